// Command cli is the operator console for the wallet ledger.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/amirasaad/wallet/infra/initializer"
	"github.com/amirasaad/wallet/pkg/app"
	"github.com/amirasaad/wallet/pkg/config"
	"github.com/amirasaad/wallet/pkg/domain/transaction"
	"github.com/amirasaad/wallet/pkg/money"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"
	"github.com/google/uuid"
)

const usage = `Usage: cli <command> [arguments]
Commands:
  balance <account_id>    show the ledger balance
  history <account_id>    list the account's transactions
  verify <reference>      settle a pending card funding
  banks                   list payout banks`

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed, color.Bold)
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		return
	}
	cfg, err := config.Load(".env")
	if err != nil {
		errColor.Fprintln(os.Stderr, "Failed to load configuration:", err) //nolint:errcheck
		os.Exit(1)
	}
	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		errColor.Fprintln(os.Stderr, "Failed to initialize:", err) //nolint:errcheck
		os.Exit(1)
	}
	if err := run(context.Background(), app.New(deps, cfg), os.Stdout, os.Args[1:]); err != nil {
		errColor.Fprintln(os.Stderr, "Error:", err) //nolint:errcheck
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	currency := a.Config.Ledger.Currency
	switch args[0] {
	case "balance":
		id, err := accountArg(args)
		if err != nil {
			return err
		}
		balance, err := a.LedgerService.Balance(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Account %s balance: ", id)
		okColor.Fprintln(out, money.FormatWithCurrency(balance, currency)) //nolint:errcheck
	case "history":
		id, err := accountArg(args)
		if err != nil {
			return err
		}
		records, err := a.LedgerService.Transactions(ctx, id)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			warnColor.Fprintln(out, "No transactions") //nolint:errcheck
			return nil
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("CREATED", "KIND", "SIGN", "AMOUNT", "STATUS", "REFERENCE")
		for _, r := range records {
			sign := "-"
			if r.Recipient != nil && *r.Recipient == id {
				sign = "+"
			}
			t.Row(
				r.CreatedAt.Format("2006-01-02 15:04"), string(r.Kind), sign,
				money.Format(r.Amount), statusText(r.Status), r.Reference,
			)
		}
		fmt.Fprintln(out, t.Render())
	case "verify":
		if len(args) < 2 {
			return fmt.Errorf("usage: verify <reference>")
		}
		rec, err := a.SettlementService.VerifyFunding(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Funding %s of %s: %s\n", rec.Reference,
			money.FormatWithCurrency(rec.Amount, currency), statusText(rec.Status))
	case "banks":
		banks, err := a.SettlementService.ListBanks(ctx)
		if err != nil {
			return err
		}
		for _, b := range banks {
			fmt.Fprintf(out, "%-8s %s\n", b.Code, b.Name)
		}
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
	return nil
}

func accountArg(args []string) (uuid.UUID, error) {
	if len(args) < 2 {
		return uuid.Nil, fmt.Errorf("usage: %s <account_id>", args[0])
	}
	id, err := uuid.Parse(args[1])
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid account id: %w", err)
	}
	return id, nil
}

func statusText(s transaction.Status) string {
	switch s {
	case transaction.StatusSuccess:
		return okColor.Sprint(s)
	case transaction.StatusFailed:
		return errColor.Sprint(s)
	default:
		return warnColor.Sprint(s)
	}
}
