// Package wallet exposes the ledger, transfer and settlement operations of
// the authenticated account over HTTP.
package wallet

import (
	"fmt"

	"github.com/amirasaad/wallet/pkg/domain"
	"github.com/amirasaad/wallet/pkg/middleware"
	"github.com/amirasaad/wallet/pkg/money"
	"github.com/amirasaad/wallet/pkg/service/ledger"
	"github.com/amirasaad/wallet/pkg/service/pin"
	"github.com/amirasaad/wallet/pkg/service/settlement"
	"github.com/amirasaad/wallet/pkg/service/transfer"
	"github.com/amirasaad/wallet/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// Services are the engines the wallet routes call into.
type Services struct {
	Ledger     *ledger.Service
	Pin        *pin.Service
	Transfer   *transfer.Service
	Settlement *settlement.Service
	Currency   string
}

// Routes registers the wallet endpoints. protected must authenticate the
// caller and load their account (see middleware.RequireAccount).
//
// Routes:
//   - POST /wallet/fund                       : Open a card checkout.
//   - GET  /wallet/verify-transaction         : Settle a checkout by reference.
//   - GET  /wallet/quote                      : Price a funding.
//   - POST /wallet/transfer-fund              : Transfer to another handle.
//   - PUT  /wallet/pin/set                    : Set the transaction PIN.
//   - GET  /wallet/balance                    : Current balance.
//   - GET  /wallet/transaction-history        : All records of the account.
//   - GET  /wallet/transaction-history/:id    : One record.
//   - GET  /wallet/banks                      : Payout banks.
//   - POST /wallet/bank/verify-account        : Resolve a bank account.
//   - POST /wallet/withdraw                   : Pay out to a bank account.
func Routes(app *fiber.App, svc Services, protected ...fiber.Handler) {
	w := app.Group("/wallet", protected...)
	w.Post("/fund", Fund(svc.Settlement))
	w.Get("/verify-transaction", VerifyTransaction(svc.Settlement))
	w.Get("/quote", GetQuote(svc.Settlement))
	w.Post("/transfer-fund", TransferFund(svc.Transfer))
	w.Put("/pin/set", SetPin(svc.Pin))
	w.Get("/balance", GetBalance(svc.Ledger, svc.Currency))
	w.Get("/transaction-history", GetTransactions(svc.Ledger))
	w.Get("/transaction-history/:id", GetTransaction(svc.Ledger))
	w.Get("/banks", ListBanks(svc.Settlement))
	w.Post("/bank/verify-account", VerifyAccount(svc.Settlement))
	w.Post("/withdraw", Withdraw(svc.Settlement))
}

// amountOf converts a naira amount from a request body into kobo.
func amountOf(naira float64) (int64, error) {
	kobo, err := money.FromFloat(naira)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	return kobo, nil
}

// Fund opens a card checkout for the caller.
// @Summary Fund wallet
// @Description Opens a gateway checkout for the amount plus fees and records a pending funding.
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body FundRequest true "Funding details"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Failure 502 {object} common.ProblemDetails
// @Router /wallet/fund [post]
// @Security Bearer
func Fund(svc *settlement.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		acc, ok := middleware.CurrentAccount(c)
		if !ok {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context", fiber.StatusUnauthorized)
		}
		input, err := common.BindAndValidate[FundRequest](c)
		if input == nil {
			return err
		}
		amount, err := amountOf(input.Amount)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid amount", err)
		}
		f, err := svc.InitiateFunding(c.UserContext(), settlement.FundingRequest{
			AccountID: acc.ID,
			Email:     acc.Email,
			Amount:    amount,
		})
		if err != nil {
			log.Errorf("Failed to initiate funding: %v", err)
			return common.ProblemDetailsJSON(c, "Failed to initiate funding", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Checkout opened", FundingDTO{
			Reference:        f.Reference,
			AccessCode:       f.AccessCode,
			AuthorizationURL: f.AuthorizationURL,
			Quote:            f.Quote,
		})
	}
}

// VerifyTransaction settles a checkout of the caller by reference.
// @Summary Verify funding
// @Tags wallet
// @Produce json
// @Param reference query string true "Checkout reference"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Failure 502 {object} common.ProblemDetails
// @Router /wallet/verify-transaction [get]
// @Security Bearer
func VerifyTransaction(svc *settlement.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		acc, ok := middleware.CurrentAccount(c)
		if !ok {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context", fiber.StatusUnauthorized)
		}
		reference := c.Query("reference")
		if reference == "" {
			reference = c.Query("trxref")
		}
		rec, err := svc.VerifyFunding(c.UserContext(), reference)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to verify transaction", err)
		}
		if !rec.Involves(acc.ID) {
			return common.ProblemDetailsJSON(c, "Failed to verify transaction", domain.ErrRecordNotFound)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transaction "+string(rec.Status), ToTransactionDTO(rec))
	}
}

// GetQuote prices a funding of ?amount= naira.
// @Summary Funding quote
// @Tags wallet
// @Produce json
// @Param amount query number true "Amount in naira"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Router /wallet/quote [get]
// @Security Bearer
func GetQuote(svc *settlement.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		amount, err := money.Parse(c.Query("amount"))
		if err != nil || amount == 0 {
			detail := "amount must be positive"
			if err != nil {
				detail = err.Error()
			}
			return common.ProblemDetailsJSON(c, "Invalid amount", nil, detail, fiber.StatusBadRequest)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Quote", svc.Quote(amount))
	}
}

// TransferFund moves money from the caller to another wallet.
// @Summary Transfer funds
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body TransferRequest true "Transfer details"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 403 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails
// @Router /wallet/transfer-fund [post]
// @Security Bearer
func TransferFund(svc *transfer.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		acc, ok := middleware.CurrentAccount(c)
		if !ok {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context", fiber.StatusUnauthorized)
		}
		input, err := common.BindAndValidate[TransferRequest](c)
		if input == nil {
			return err
		}
		amount, err := amountOf(input.Amount)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid amount", err)
		}
		rec, err := svc.Transfer(c.UserContext(), transfer.Request{
			OriginatorID:    acc.ID,
			RecipientHandle: input.Handle,
			Amount:          amount,
			PIN:             input.Pin,
			Comment:         input.Comment,
			Reference:       input.Reference,
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Transfer failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transfer successful", ToTransactionDTO(rec))
	}
}

// SetPin sets or replaces the caller's transaction PIN.
// @Summary Set transaction PIN
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body SetPinRequest true "PIN"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Router /wallet/pin/set [put]
// @Security Bearer
func SetPin(svc *pin.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		acc, ok := middleware.CurrentAccount(c)
		if !ok {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context", fiber.StatusUnauthorized)
		}
		input, err := common.BindAndValidate[SetPinRequest](c)
		if input == nil {
			return err
		}
		if _, err := svc.SetPin(c.UserContext(), acc.ID, input.Pin, input.ConfirmPin); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to set pin", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transaction pin set", nil)
	}
}

// GetBalance returns the caller's balance.
// @Summary Wallet balance
// @Tags wallet
// @Produce json
// @Success 200 {object} common.Response
// @Router /wallet/balance [get]
// @Security Bearer
func GetBalance(svc *ledger.Service, currency string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		acc, ok := middleware.CurrentAccount(c)
		if !ok {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context", fiber.StatusUnauthorized)
		}
		balance, err := svc.Balance(c.UserContext(), acc.ID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to get balance", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Balance fetched", BalanceDTO{
			Balance:        balance,
			DisplayBalance: money.FormatWithCurrency(balance, currency),
			Currency:       currency,
		})
	}
}

// GetTransactions lists the caller's records, newest first.
// @Summary Transaction history
// @Tags wallet
// @Produce json
// @Success 200 {object} common.Response
// @Router /wallet/transaction-history [get]
// @Security Bearer
func GetTransactions(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		acc, ok := middleware.CurrentAccount(c)
		if !ok {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context", fiber.StatusUnauthorized)
		}
		records, err := svc.Transactions(c.UserContext(), acc.ID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list transactions", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transactions fetched", toTransactionDTOs(records))
	}
}

// GetTransaction returns one of the caller's records.
// @Summary Transaction detail
// @Tags wallet
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /wallet/transaction-history/{id} [get]
// @Security Bearer
func GetTransaction(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		acc, ok := middleware.CurrentAccount(c)
		if !ok {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context", fiber.StatusUnauthorized)
		}
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid transaction ID", nil, "Transaction ID must be a valid UUID", fiber.StatusBadRequest)
		}
		rec, err := svc.Transaction(c.UserContext(), acc.ID, id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to get transaction", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transaction fetched", ToTransactionDTO(rec))
	}
}

// ListBanks returns the banks payouts can be sent to.
// @Summary Payout banks
// @Tags wallet
// @Produce json
// @Success 200 {object} common.Response
// @Failure 502 {object} common.ProblemDetails
// @Router /wallet/banks [get]
// @Security Bearer
func ListBanks(svc *settlement.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		banks, err := svc.ListBanks(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list banks", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, fmt.Sprintf("%d banks", len(banks)), banks)
	}
}

// VerifyAccount resolves the holder name of a bank account.
// @Summary Resolve bank account
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body VerifyAccountRequest true "Bank account"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 502 {object} common.ProblemDetails
// @Router /wallet/bank/verify-account [post]
// @Security Bearer
func VerifyAccount(svc *settlement.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[VerifyAccountRequest](c)
		if input == nil {
			return err
		}
		resolved, err := svc.ResolveAccount(c.UserContext(), input.AccountNumber, input.BankCode)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to verify account", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Account resolved", resolved)
	}
}

// Withdraw pays money out of the caller's wallet to a bank account.
// @Summary Withdraw to bank
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body WithdrawRequest true "Withdrawal details"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 403 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails
// @Failure 502 {object} common.ProblemDetails
// @Failure 504 {object} common.ProblemDetails "Outcome unknown; reconciliation pending"
// @Router /wallet/withdraw [post]
// @Security Bearer
func Withdraw(svc *settlement.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		acc, ok := middleware.CurrentAccount(c)
		if !ok {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context", fiber.StatusUnauthorized)
		}
		input, err := common.BindAndValidate[WithdrawRequest](c)
		if input == nil {
			return err
		}
		amount, err := amountOf(input.Amount)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid amount", err)
		}
		rec, err := svc.InitiateWithdrawal(c.UserContext(), settlement.WithdrawalRequest{
			AccountID:     acc.ID,
			Amount:        amount,
			Reason:        input.Reason,
			PayeeName:     input.Name,
			AccountNumber: input.AccountNumber,
			BankCode:      input.BankCode,
			PIN:           input.Pin,
		})
		if err != nil {
			log.Errorf("Withdrawal failed: %v", err)
			return common.ProblemDetailsJSON(c, "Withdrawal failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Withdrawal successful", ToTransactionDTO(rec))
	}
}
