package webhook_test

import (
	"encoding/json"
	"testing"

	"github.com/amirasaad/wallet/infra/provider/paystack"
	"github.com/amirasaad/wallet/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chargeSuccess(t *testing.T, reference string) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"event": "charge.success",
		"data":  map[string]any{"reference": reference, "status": "success"},
	})
	require.NoError(t, err)
	return payload
}

func balance(t *testing.T, env *testutils.Env, u testutils.User) float64 {
	t.Helper()
	resp, body := env.Do(t, fiber.MethodGet, "/wallet/balance", u.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	b, _ := testutils.Data(body)["balance"].(float64)
	return b
}

func TestPaystackWebhook_SettlesFunding(t *testing.T) {
	env := testutils.New(t)
	u := env.NewUser(t, "")

	resp, body := env.Do(t, fiber.MethodPost, "/wallet/fund", u.Token, map[string]any{"amount": 2000})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	ref, _ := testutils.Data(body)["reference"].(string)
	require.NoError(t, env.Gateway.Settle(ref, "success", 3000))

	payload := chargeSuccess(t, ref)
	headers := map[string]string{paystack.SignatureHeader: env.Paystack.Sign(payload)}
	for range 2 {
		resp, raw := env.DoRaw(t, fiber.MethodPost, "/webhooks/paystack", "", headers, payload)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	}
	assert.InDelta(t, 200000, balance(t, env, u), 0)
}

func TestPaystackWebhook_BadSignature(t *testing.T) {
	env := testutils.New(t)
	payload := chargeSuccess(t, "whatever")
	resp, _ := env.DoRaw(t, fiber.MethodPost, "/webhooks/paystack", "",
		map[string]string{paystack.SignatureHeader: "deadbeef"}, payload)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestPaystackWebhook_IgnoresOtherEvents(t *testing.T) {
	env := testutils.New(t)
	payload := []byte(`{"event":"transfer.success","data":{"reference":"abc"}}`)
	resp, raw := env.DoRaw(t, fiber.MethodPost, "/webhooks/paystack", "",
		map[string]string{paystack.SignatureHeader: env.Paystack.Sign(payload)}, payload)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "Event ignored")
}

func TestPaystackWebhook_UnknownReferenceIsRedelivered(t *testing.T) {
	env := testutils.New(t)
	payload := chargeSuccess(t, "never-opened")
	resp, _ := env.DoRaw(t, fiber.MethodPost, "/webhooks/paystack", "",
		map[string]string{paystack.SignatureHeader: env.Paystack.Sign(payload)}, payload)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

func TestStripeWebhook_NotMountedWithoutProvider(t *testing.T) {
	env := testutils.New(t)
	resp, _ := env.DoRaw(t, fiber.MethodPost, "/webhooks/stripe", "", nil, []byte(`{}`))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
