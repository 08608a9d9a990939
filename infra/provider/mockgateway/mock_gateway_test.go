package mockgateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirasaad/wallet/pkg/domain"
	"github.com/amirasaad/wallet/pkg/provider/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutLifecycle(t *testing.T) {
	g := New()
	ctx := context.Background()

	s, err := g.InitiateCheckout(ctx, gateway.CheckoutParams{Email: "a@b.c", Amount: 5200, Reference: "ref-1", Currency: "NGN"})
	require.NoError(t, err)
	assert.Equal(t, "ref-1", s.Reference)
	assert.Equal(t, "ac_ref-1", s.AccessCode)

	v, err := g.VerifyCheckout(ctx, "ref-1")
	require.NoError(t, err)
	assert.Equal(t, "pending", v.Status)

	require.NoError(t, g.Settle("ref-1", "success", 150))
	v, err = g.VerifyCheckout(ctx, "ref-1")
	require.NoError(t, err)
	assert.Equal(t, "success", v.Status)
	assert.Equal(t, int64(150), v.ProcessingFee())
	assert.Equal(t, 2, g.Calls(OpVerifyCheckout))

	_, err = g.VerifyCheckout(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrGateway)
	assert.Error(t, g.Settle("missing", "success", 0))
}

func TestPayouts(t *testing.T) {
	g := New()
	ctx := context.Background()

	_, err := g.CreatePayoutRecipient(ctx, gateway.RecipientParams{Name: "Ada", AccountNumber: "12", BankCode: "058"})
	assert.ErrorIs(t, err, domain.ErrInvalidBankAccount)
	_, err = g.CreatePayoutRecipient(ctx, gateway.RecipientParams{Name: "Ada", AccountNumber: "0001234567", BankCode: "999"})
	assert.ErrorIs(t, err, domain.ErrInvalidBankAccount)

	rcp, err := g.CreatePayoutRecipient(ctx, gateway.RecipientParams{Name: "Ada", AccountNumber: "0001234567", BankCode: "058"})
	require.NoError(t, err)
	assert.Equal(t, "Guaranty Trust Bank", rcp.BankName)

	p, err := g.InitiatePayout(ctx, gateway.PayoutParams{Amount: 101500, RecipientCode: rcp.Code, Reference: "wd-1"})
	require.NoError(t, err)
	assert.Equal(t, "wd-1", p.Reference)
	require.Len(t, g.Payouts(), 1)
	assert.Equal(t, int64(101500), g.Payouts()[0].Amount)

	_, err = g.InitiatePayout(ctx, gateway.PayoutParams{Amount: 1, RecipientCode: "RCP_unknown", Reference: "wd-2"})
	assert.ErrorIs(t, err, domain.ErrGateway)
}

func TestFailOn(t *testing.T) {
	g := New()
	boom := errors.New("boom")
	g.FailOn(OpListBanks, boom)

	_, err := g.ListBanks(context.Background(), "nigeria")
	assert.ErrorIs(t, err, domain.ErrGateway)
	assert.ErrorIs(t, err, boom)

	g.FailOn(OpListBanks, nil)
	banks, err := g.ListBanks(context.Background(), "nigeria")
	require.NoError(t, err)
	assert.NotEmpty(t, banks)
}

func TestDelayOn_TimeoutStillActs(t *testing.T) {
	g := New()
	ctx := context.Background()
	rcp, err := g.CreatePayoutRecipient(ctx, gateway.RecipientParams{Name: "Ada", AccountNumber: "0001234567", BankCode: "044"})
	require.NoError(t, err)

	g.DelayOn(OpInitiatePayout, time.Second)
	tctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, err = g.InitiatePayout(tctx, gateway.PayoutParams{Amount: 500, RecipientCode: rcp.Code, Reference: "wd-3"})
	require.Error(t, err)
	assert.True(t, gateway.IsTimeout(err))
	assert.Len(t, g.Payouts(), 1)
}

func TestResolveAccount(t *testing.T) {
	g := New()
	acct, err := g.ResolveAccount(context.Background(), "0001234567", "057")
	require.NoError(t, err)
	assert.Equal(t, "MOCK ACCOUNT 4567", acct.AccountName)

	_, err = g.ResolveAccount(context.Background(), "00012345ab", "057")
	assert.ErrorIs(t, err, domain.ErrInvalidBankAccount)
}
