package common

import (
	"errors"

	"github.com/amirasaad/wallet/pkg/domain"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const problemJSON = "application/problem+json"

var validate = validator.New()

// Response defines the standard API response structure for success cases.
type Response struct {
	Status  int    `json:"status"`         // HTTP status code
	Message string `json:"message"`        // Human-readable explanation
	Data    any    `json:"data,omitempty"` // Response data
}

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`     // A URI reference that identifies the problem type
	Title    string `json:"title"`              // Short, human-readable summary
	Status   int    `json:"status"`             // HTTP status code
	Detail   string `json:"detail,omitempty"`   // Human-readable explanation
	Instance string `json:"instance,omitempty"` // URI reference that identifies the specific occurrence
	Errors   any    `json:"errors,omitempty"`   // Optional: additional error details
	// Reference is set for settlements that need reconciliation.
	Reference string `json:"reference,omitempty"`
}

// SuccessResponseJSON writes a Response envelope.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{Status: status, Message: message, Data: data})
}

// ProblemDetailsJSON writes err as RFC 9457 problem details. The status is
// derived from err unless an int is passed in args; a string in args
// overrides the detail and anything else is reported under errors.
func ProblemDetailsJSON(c *fiber.Ctx, title string, err error, args ...any) error {
	status := fiber.StatusInternalServerError
	if err != nil {
		status = ErrorToStatusCode(err)
	}
	pd := ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Instance: c.OriginalURL(),
	}
	if err != nil {
		pd.Detail = err.Error()
	}
	var ambiguous *domain.AmbiguousSettlementError
	if errors.As(err, &ambiguous) {
		pd.Reference = ambiguous.Reference
	}
	overridden := false
	for _, arg := range args {
		switch v := arg.(type) {
		case int:
			status = v
		case string:
			pd.Detail = v
			overridden = true
		default:
			pd.Errors = v
		}
	}
	if status == fiber.StatusInternalServerError && !overridden {
		pd.Detail = "internal error"
	}
	pd.Status = status
	return c.Status(status).JSON(pd, problemJSON)
}

// ErrorToStatusCode maps domain errors to appropriate HTTP status codes.
func ErrorToStatusCode(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	if errors.Is(err, domain.ErrUnauthorized) {
		return fiber.StatusUnauthorized
	}
	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindSameAccount, domain.KindInvalidBankAccount:
		return fiber.StatusBadRequest
	case domain.KindAccountNotFound, domain.KindRecipientNotFound, domain.KindRecordNotFound:
		return fiber.StatusNotFound
	case domain.KindHandleTaken, domain.KindDuplicateReference:
		return fiber.StatusConflict
	case domain.KindInvalidPin:
		return fiber.StatusForbidden
	case domain.KindInsufficientFunds:
		return fiber.StatusUnprocessableEntity
	case domain.KindGateway:
		return fiber.StatusBadGateway
	case domain.KindSettlementAmbiguous:
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

// BindAndValidate parses the request body and validates it using go-playground/validator.
// Returns a pointer to the struct (populated), or writes an error response and returns nil.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		return nil, ProblemDetailsJSON(c, "Invalid request body", nil, err.Error(), fiber.StatusBadRequest)
	}
	if err := validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			return nil, ProblemDetailsJSON(c, "Validation failed", nil, "request validation failed", fields, fiber.StatusBadRequest)
		}
		return nil, ProblemDetailsJSON(c, "Validation failed", nil, err.Error(), fiber.StatusBadRequest)
	}
	return &input, nil
}
