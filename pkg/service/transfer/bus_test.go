package transfer_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/amirasaad/wallet/pkg/config"
	"github.com/amirasaad/wallet/pkg/domain"
	"github.com/amirasaad/wallet/pkg/domain/events"
	"github.com/amirasaad/wallet/pkg/eventbus"
	"github.com/amirasaad/wallet/pkg/metrics"
	"github.com/amirasaad/wallet/pkg/service/transfer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBus struct {
	mock.Mock
}

func (m *MockBus) Emit(ctx context.Context, event events.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockBus) Register(eventType string, handler eventbus.HandlerFunc) {
	m.Called(eventType, handler)
}

func TestTransfer_EmitFailureKeepsTransfer(t *testing.T) {
	f := newFixture(t)
	alice := f.account(t, "alice_01")
	bob := f.account(t, "bobby_02")
	f.fund(t, alice.ID, 100000)

	bus := &MockBus{}
	bus.On("Emit", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
		evt, ok := e.(events.TransferCompleted)
		return ok && evt.RecipientID == bob.ID && evt.Amount == 5000
	})).Return(errors.New("broker down")).Once()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := transfer.New(f.uow, bus, &config.Ledger{Reserve: 10000}, metrics.New(prometheus.NewRegistry()), logger)

	rec, err := svc.Transfer(context.Background(), transfer.Request{
		OriginatorID:    alice.ID,
		RecipientHandle: "bobby_02",
		Amount:          5000,
		PIN:             testPin,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), rec.Amount)
	assert.Equal(t, int64(95000), f.balance(t, alice.ID))
	bus.AssertExpectations(t)
}

func TestTransfer_RejectedTransferEmitsNothing(t *testing.T) {
	f := newFixture(t)
	alice := f.account(t, "alice_01")
	f.account(t, "bobby_02")
	f.fund(t, alice.ID, 100000)

	bus := &MockBus{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := transfer.New(f.uow, bus, &config.Ledger{Reserve: 10000}, metrics.New(prometheus.NewRegistry()), logger)

	_, err := svc.Transfer(context.Background(), transfer.Request{
		OriginatorID:    alice.ID,
		RecipientHandle: "bobby_02",
		Amount:          5000,
		PIN:             "9999",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPin)
	bus.AssertNotCalled(t, "Emit", mock.Anything, mock.Anything)
}
