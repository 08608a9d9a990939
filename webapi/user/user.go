package user

import (
	"time"

	"github.com/amirasaad/wallet/pkg/domain/account"
	"github.com/amirasaad/wallet/pkg/middleware"
	accountsvc "github.com/amirasaad/wallet/pkg/service/account"
	"github.com/amirasaad/wallet/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// SetHandleRequest represents the request body for claiming a handle.
type SetHandleRequest struct {
	Handle string `json:"handle" validate:"required,min=6,max=32"`
}

// Profile is the JSON view of an account.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Handle    string    `json:"handle,omitempty"`
	HasPin    bool      `json:"has_pin"`
	CreatedAt time.Time `json:"created_at"`
}

func profileOf(a *account.Account) Profile {
	return Profile{
		ID:        a.ID,
		Email:     a.Email,
		Handle:    a.Handle,
		HasPin:    a.HasPin(),
		CreatedAt: a.CreatedAt,
	}
}

func Routes(app *fiber.App, accounts *accountsvc.Service, protected ...fiber.Handler) {
	u := app.Group("/user", protected...)
	u.Get("/me", Me())
	u.Put("/handle", SetHandle(accounts))
	u.Get("/handle/:handle", HandleAvailable(accounts))
}

// Me returns the caller's profile.
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Router /user/me [get]
// @Security Bearer
func Me() fiber.Handler {
	return func(c *fiber.Ctx) error {
		acc, ok := middleware.CurrentAccount(c)
		if !ok {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context", fiber.StatusUnauthorized)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "User found", profileOf(acc))
	}
}

// SetHandle claims a handle for the caller.
// @Summary Set handle
// @Tags users
// @Accept json
// @Produce json
// @Param request body SetHandleRequest true "Handle"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Router /user/handle [put]
// @Security Bearer
func SetHandle(accounts *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		acc, ok := middleware.CurrentAccount(c)
		if !ok {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context", fiber.StatusUnauthorized)
		}
		input, err := common.BindAndValidate[SetHandleRequest](c)
		if input == nil {
			return err
		}
		updated, err := accounts.SetHandle(c.UserContext(), acc.ID, input.Handle)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to set handle", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Handle updated", profileOf(updated))
	}
}

// HandleAvailable reports whether a handle can still be claimed.
// @Summary Handle availability
// @Tags users
// @Produce json
// @Param handle path string true "Handle"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Router /user/handle/{handle} [get]
// @Security Bearer
func HandleAvailable(accounts *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		available, err := accounts.HandleAvailable(c.UserContext(), c.Params("handle"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid handle", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Handle checked", fiber.Map{"available": available})
	}
}
