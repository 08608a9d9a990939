// Package webhook receives payment gateway callbacks and settles the
// fundings they report.
package webhook

import (
	"github.com/amirasaad/wallet/infra/provider/paystack"
	"github.com/amirasaad/wallet/infra/provider/stripepayment"
	"github.com/amirasaad/wallet/pkg/domain"
	"github.com/amirasaad/wallet/pkg/provider/gateway"
	"github.com/amirasaad/wallet/pkg/service/settlement"
	"github.com/amirasaad/wallet/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

var signatureHeaders = map[string]string{
	"paystack": paystack.SignatureHeader,
	"stripe":   stripepayment.SignatureHeader,
}

// Routes mounts POST /webhooks/<provider> for every configured provider.
func Routes(app *fiber.App, svc *settlement.Service, hooks map[string]gateway.Webhooks) {
	for name, parser := range hooks {
		header, ok := signatureHeaders[name]
		if !ok {
			log.Warnf("no signature header known for webhook provider %s", name)
			continue
		}
		app.Post("/webhooks/"+name, Handler(svc, parser, header))
	}
}

// Handler authenticates a callback and, for settled payments, runs
// VerifyFunding on its reference. Only gateway failures are answered with
// an error status so that the provider redelivers.
// @Summary Gateway webhook
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Failure 502 {object} common.ProblemDetails
// @Router /webhooks/{provider} [post]
func Handler(svc *settlement.Service, parser gateway.Webhooks, signatureHeader string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		evt, err := parser.ParseWebhook(c.UserContext(), c.Body(), c.Get(signatureHeader))
		if err != nil {
			log.Warnf("Rejected webhook: %v", err)
			return common.ProblemDetailsJSON(c, "Invalid webhook", err)
		}
		if !evt.Settled || evt.Reference == "" {
			return common.SuccessResponseJSON(c, fiber.StatusOK, "Event ignored", fiber.Map{"type": evt.Type})
		}
		rec, err := svc.VerifyFunding(c.UserContext(), evt.Reference)
		switch {
		case err == nil:
			return common.SuccessResponseJSON(c, fiber.StatusOK, "Event processed", fiber.Map{
				"reference": rec.Reference,
				"status":    rec.Status,
			})
		case domain.Retryable(err):
			return common.ProblemDetailsJSON(c, "Gateway unavailable", err)
		default:
			log.Errorf("Webhook for %s not applied: %v", evt.Reference, err)
			return common.SuccessResponseJSON(c, fiber.StatusOK, "Event not applied", fiber.Map{
				"reference": evt.Reference,
				"reason":    string(domain.KindOf(err)),
			})
		}
	}
}
