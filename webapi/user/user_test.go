package user_test

import (
	"testing"

	"github.com/amirasaad/wallet/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMe_ProvisionsAccount(t *testing.T) {
	env := testutils.New(t)
	u := env.NewUser(t, "")

	resp, body := env.Do(t, fiber.MethodGet, "/user/me", u.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := testutils.Data(body)
	assert.Equal(t, u.ID.String(), data["id"])
	assert.Equal(t, u.Email, data["email"])
	assert.Equal(t, false, data["has_pin"])
	assert.NotContains(t, data, "handle")
}

func TestSetHandle(t *testing.T) {
	env := testutils.New(t)
	alice := env.NewUser(t, "")
	bob := env.NewUser(t, "")

	resp, body := env.Do(t, fiber.MethodPut, "/user/handle", alice.Token, map[string]any{"handle": "Alice.Smith"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, "%v", body)
	assert.Equal(t, "alice.smith", testutils.Data(body)["handle"])

	t.Run("taken ignoring case", func(t *testing.T) {
		resp, body := env.Do(t, fiber.MethodPut, "/user/handle", bob.Token, map[string]any{"handle": "ALICE.SMITH"})
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode, "%v", body)
	})

	t.Run("too short", func(t *testing.T) {
		resp, _ := env.Do(t, fiber.MethodPut, "/user/handle", bob.Token, map[string]any{"handle": "bob"})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("bad characters", func(t *testing.T) {
		resp, _ := env.Do(t, fiber.MethodPut, "/user/handle", bob.Token, map[string]any{"handle": "bob smith!"})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestHandleAvailable(t *testing.T) {
	env := testutils.New(t)
	u := env.NewUser(t, "taken_handle")

	resp, body := env.Do(t, fiber.MethodGet, "/user/handle/Taken_Handle", u.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, false, testutils.Data(body)["available"])

	resp, body = env.Do(t, fiber.MethodGet, "/user/handle/free_handle", u.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, testutils.Data(body)["available"])

	resp, _ = env.Do(t, fiber.MethodGet, "/user/handle/x", u.Token, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
