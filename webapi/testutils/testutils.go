// Package testutils builds a fully wired wallet HTTP app over the in-memory
// store and the mock gateway for handler tests.
package testutils

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	infra_eventbus "github.com/amirasaad/wallet/infra/eventbus"
	"github.com/amirasaad/wallet/infra/provider/mockgateway"
	"github.com/amirasaad/wallet/infra/provider/paystack"
	"github.com/amirasaad/wallet/infra/repository/memory"
	"github.com/amirasaad/wallet/pkg/app"
	"github.com/amirasaad/wallet/pkg/config"
	"github.com/amirasaad/wallet/pkg/metrics"
	"github.com/amirasaad/wallet/pkg/provider/gateway"
	"github.com/amirasaad/wallet/webapi"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const (
	JwtSecret      = "wallet-test-secret"
	PaystackSecret = "sk_test_wallet"
)

// Env is a wired test application.
type Env struct {
	App      *fiber.App
	Wallet   *app.App
	Config   *config.App
	Gateway  *mockgateway.Gateway
	Paystack *paystack.Client
	Bus      *infra_eventbus.MemoryEventBus
}

// Config returns an application config with the production defaults.
func Config() *config.App {
	return &config.App{
		Env:       "test",
		Log:       &config.Log{Format: "text"},
		DB:        &config.DB{},
		Auth:      &config.Auth{Strategy: "jwt", Jwt: &config.Jwt{Secret: JwtSecret, Expiry: time.Hour}},
		Redis:     &config.Redis{},
		Kafka:     &config.Kafka{},
		EventBus:  &config.EventBus{Driver: "memory"},
		RateLimit: &config.RateLimit{MaxRequests: 1000, Window: time.Minute},
		Gateway: &config.Gateway{
			Provider: "mock",
			Timeout:  2 * time.Second,
			Country:  "nigeria",
			Paystack: &config.Paystack{SecretKey: PaystackSecret, BaseURL: "http://paystack.invalid"},
			Stripe:   &config.Stripe{},
		},
		Ledger: &config.Ledger{
			Reserve:              10000,
			WithdrawalFee:        1500,
			PlatformFeeThreshold: 250000,
			PlatformFeeAbove:     15000,
			PlatformFeeBelow:     1000,
			SplitPercentage:      0.01,
			Currency:             "NGN",
		},
	}
}

// New wires an Env. mutate, when given, adjusts the config first.
func New(t testing.TB, mutate ...func(*config.App)) *Env {
	t.Helper()
	cfg := Config()
	for _, m := range mutate {
		m(cfg)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw := mockgateway.New()
	ps := paystack.New(cfg.Gateway.Paystack, cfg.Gateway.Timeout, logger)
	bus := infra_eventbus.NewWithMemory(logger)
	reg := prometheus.NewRegistry()

	wallet := app.New(&app.Deps{
		Uow:      memory.NewUoW(memory.New()),
		EventBus: bus,
		Gateway:  gw,
		Webhooks: map[string]gateway.Webhooks{"paystack": ps},
		Registry: reg,
		Metrics:  metrics.New(reg),
		Logger:   logger,
	}, cfg)

	return &Env{
		App:      webapi.SetupApp(wallet),
		Wallet:   wallet,
		Config:   cfg,
		Gateway:  gw,
		Paystack: ps,
		Bus:      bus,
	}
}

// Token signs an access token for the given identity.
func (e *Env) Token(t testing.TB, id uuid.UUID, email string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   id.String(),
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(JwtSecret))
	require.NoError(t, err)
	return token
}

// User is a caller with a provisioned account.
type User struct {
	ID    uuid.UUID
	Email string
	Token string
}

// NewUser provisions an account by calling /user/me and, when handle is
// not empty, claims it.
func (e *Env) NewUser(t testing.TB, handle string) User {
	t.Helper()
	u := User{ID: uuid.New()}
	u.Email = u.ID.String()[:8] + "@example.com"
	u.Token = e.Token(t, u.ID, u.Email)
	resp, _ := e.Do(t, fiber.MethodGet, "/user/me", u.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	if handle != "" {
		resp, body := e.Do(t, fiber.MethodPut, "/user/handle", u.Token, map[string]any{"handle": handle})
		require.Equal(t, fiber.StatusOK, resp.StatusCode, "%v", body)
	}
	return u
}

// Do sends a request and decodes the JSON body into a map.
func (e *Env) Do(t testing.TB, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	resp, raw := e.DoRaw(t, method, path, token, nil, body)
	out := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

// DoRaw sends a request with extra headers and returns the raw body.
func (e *Env) DoRaw(
	t testing.TB,
	method, path, token string,
	headers map[string]string,
	body any,
) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := e.App.Test(req, 10_000)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, raw
}

// Data returns the "data" object of a success envelope.
func Data(body map[string]any) map[string]any {
	d, _ := body["data"].(map[string]any)
	return d
}

// Fund credits naira to u through a settled mock checkout and returns its reference.
func (e *Env) Fund(t testing.TB, u User, naira float64, fee int64) string {
	t.Helper()
	resp, body := e.Do(t, fiber.MethodPost, "/wallet/fund", u.Token, map[string]any{"amount": naira})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, "%v", body)
	ref, _ := Data(body)["reference"].(string)
	require.NotEmpty(t, ref)
	require.NoError(t, e.Gateway.Settle(ref, "success", fee))
	resp, body = e.Do(t, fiber.MethodGet, "/wallet/verify-transaction?reference="+ref, u.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, "%v", body)
	return ref
}
