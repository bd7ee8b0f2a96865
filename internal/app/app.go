package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ayo6706/token-payout/internal/config"
	"github.com/ayo6706/token-payout/internal/dispatch"
	"github.com/ayo6706/token-payout/internal/domain"
	"github.com/ayo6706/token-payout/internal/ledger/eth"
	"github.com/ayo6706/token-payout/internal/observability"
	"github.com/ayo6706/token-payout/internal/persist"
	"github.com/ayo6706/token-payout/internal/queue"
	"github.com/ayo6706/token-payout/internal/quote"
	"github.com/ayo6706/token-payout/internal/recorder/csvbook"
	"github.com/ayo6706/token-payout/internal/report"
	"github.com/ayo6706/token-payout/internal/tracker"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrAborted is returned when the operator declines a continue prompt. The
// process exits before any submission; no final report is written.
var ErrAborted = errors.New("aborted by operator")

// Run bootstraps the payout batch and blocks until every dispatched transfer
// reached a terminal state and the final report landed, or until a shutdown
// signal arrives.
func Run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))
	zap.ReplaceGlobals(logger)

	observability.Init()
	if cfg.MetricsAddr != "" {
		observability.Serve(cfg.MetricsAddr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	book, err := csvbook.Open(cfg.InputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	book.SetRunID(runID)

	accepted, quarantined, err := book.Parse()
	if err != nil {
		return fmt.Errorf("parse input: %w", err)
	}
	if len(quarantined) > 0 {
		logger.Warn("some input rows failed validation", zap.Int("quarantined", len(quarantined)))
		if err := confirm(cfg.AssumeYes, os.Stdin); err != nil {
			return err
		}
	}
	if len(accepted) == 0 {
		return fmt.Errorf("no dispatchable rows in input")
	}

	client, err := eth.Dial(ctx, cfg.NodeURL, cfg.ContractAddress, cfg.PrivateKey)
	if err != nil {
		return fmt.Errorf("connect ledger: %w", err)
	}
	logger.Info("credentials loaded", zap.String("account", client.Account()))

	gasPrice, err := client.GasPrice(ctx)
	if err != nil {
		return fmt.Errorf("query gas price: %w", err)
	}
	decimals, err := client.AssetDecimals(ctx)
	if err != nil {
		return fmt.Errorf("query asset decimals: %w", err)
	}

	totalBase, err := sumBaseUnits(accepted, decimals)
	if err != nil {
		return fmt.Errorf("preflight scaling: %w", err)
	}
	balance, err := client.Balance(ctx)
	if err != nil {
		return fmt.Errorf("query balance: %w", err)
	}
	if balance.Cmp(totalBase) < 0 {
		logger.Warn("insufficient funds",
			zap.String("balance", balance.String()),
			zap.String("requested", totalBase.String()))
		if err := confirm(cfg.AssumeYes, os.Stdin); err != nil {
			return err
		}
	}

	persister := persist.New(book, cfg.SnapshotInterval)

	var fin *report.Finalizer
	trk := tracker.New(len(accepted), book, func() { fin.Finalize() })
	fin = report.New(trk, book, quote.New(), persister.Stop, gasPrice, quarantined)

	scale := func(amount decimal.Decimal) (*big.Int, error) {
		return domain.ScaleToBaseUnits(amount, decimals)
	}
	dispatcher := dispatch.New(queue.New(accepted), client, trk, scale, cfg.SubmitInterval)

	stopPersister := persister.Run(ctx)
	stopDispatcher := dispatcher.Run(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-fin.Done():
		logger.Info("run complete")
		return nil
	case <-sigChan:
		logger.Warn("shutdown signal received, in-flight transfers abandoned")
		stopDispatcher()
		stopPersister()
		return nil
	}
}

// sumBaseUnits scales every accepted amount against the live token decimals
// and returns the exact total. A row whose amount cannot be represented in
// the token's base unit is a fatal startup error, surfaced here rather than
// mid-dispatch.
func sumBaseUnits(reqs []*domain.TransferRequest, decimals uint8) (*big.Int, error) {
	total := new(big.Int)
	for _, req := range reqs {
		base, err := domain.ScaleToBaseUnits(req.Amount, decimals)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", req.Row, err)
		}
		total.Add(total, base)
	}
	return total, nil
}

// confirm asks the operator to continue, reading Y/N from in. assumeYes
// bypasses the prompt for non-interactive runs. Anything other than Y or N is
// ignored and the prompt keeps reading; EOF counts as a decline.
func confirm(assumeYes bool, in io.Reader) error {
	if assumeYes {
		return nil
	}
	fmt.Println(`Do you want to continue? Enter "Y" to continue or "N" to exit`)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		switch strings.ToUpper(strings.TrimSpace(scanner.Text())) {
		case "Y":
			return nil
		case "N":
			return ErrAborted
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read confirmation: %w", err)
	}
	return ErrAborted
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}
