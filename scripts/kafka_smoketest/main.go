package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/amirasaad/wallet/infra/eventbus"
	"github.com/amirasaad/wallet/pkg/domain/events"
	"github.com/google/uuid"
)

// RunSmokeTest emits a transfer.completed event through the Kafka event bus
// and waits for the bus to hand it back to a registered handler.
func RunSmokeTest() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	brokers := strings.TrimSpace(os.Getenv("KAFKA_BROKERS"))
	if brokers == "" {
		brokers = "localhost:9092"
	}
	groupID := strings.TrimSpace(os.Getenv("KAFKA_GROUP_ID"))
	if groupID == "" {
		groupID = "wallet-smoketest"
	}

	bus, err := eventbus.NewWithKafka(strings.Split(brokers, ","), eventbus.KafkaEventBusConfig{
		GroupID:     groupID,
		TopicPrefix: "wallet.smoketest",
	}, logger)
	if err != nil {
		logger.Error("connect failed", "error", err)
		return err
	}
	defer func() { _ = bus.Close() }()

	want := events.TransferCompleted{
		ID:         uuid.New(),
		Reference:  "smoke-" + uuid.NewString(),
		OccurredAt: time.Now().UTC(),
	}
	got := make(chan string, 1)
	bus.Register(events.EventTypeTransferCompleted.String(), func(_ context.Context, e events.Event) error {
		if evt, ok := e.(events.TransferCompleted); ok && evt.Reference == want.Reference {
			select {
			case got <- evt.Reference:
			default:
			}
		}
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := bus.Emit(ctx, want); err != nil {
		logger.Error("emit failed", "error", err)
		return err
	}
	logger.Info("produced", "reference", want.Reference)

	select {
	case ref := <-got:
		logger.Info("consumed", "reference", ref)
	case <-ctx.Done():
		logger.Error("no delivery before deadline", "reference", want.Reference)
		return ctx.Err()
	}

	logger.Info("kafka smoke test passed")
	return nil
}

func main() {
	if err := RunSmokeTest(); err != nil {
		os.Exit(1)
	}
}
