package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"

	"github.com/alphabill-org/alphabill-blueprints/blueprints/adminnft"
	"github.com/alphabill-org/alphabill-blueprints/blueprints/counter"
	"github.com/alphabill-org/alphabill-blueprints/engine"
	"github.com/alphabill-org/alphabill-blueprints/types"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "blueprints: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("blueprints", flag.ContinueOnError)
	fs.SetOutput(out)
	configFile := fs.String("config", "", "path to the YAML config file, built-in defaults are used when empty")
	scenario := fs.String("scenario", "counter", "scenario to run: counter or adminnft")
	n := fs.Int("n", 3, "number of increments (counter) or mints (adminnft)")
	dumpMetrics := fs.Bool("metrics", false, "print metrics in Prometheus text format after the scenario")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *n < 0 {
		return fmt.Errorf("n must not be negative, got %d", *n)
	}

	cfg := engine.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = engine.LoadConfig(*configFile); err != nil {
			return err
		}
	}

	log, err := engine.NewLogger(cfg.Log, out)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	reg := prometheus.NewRegistry()
	metrics, err := engine.NewMetrics(reg)
	if err != nil {
		return err
	}

	store, err := cfg.OpenStore()
	if err != nil {
		return err
	}
	defer store.Close()

	e, err := engine.New(store, cfg,
		engine.WithLogger(log),
		engine.WithMetrics(metrics),
		engine.WithBlueprints(counter.Blueprint(), adminnft.Blueprint()))
	if err != nil {
		return err
	}

	switch *scenario {
	case "counter":
		err = runCounter(ctx, e, log, *n)
	case "adminnft":
		err = runAdminNFT(ctx, e, log, *n)
	default:
		err = fmt.Errorf("unknown scenario %q", *scenario)
	}
	if err != nil {
		return err
	}

	if *dumpMetrics {
		return writeMetrics(reg, out)
	}
	return nil
}

func runCounter(ctx context.Context, e *engine.Engine, log *zap.Logger, n int) error {
	var c types.Address
	if _, err := e.Execute(ctx, func(f *engine.Frame) (err error) {
		c, err = counter.Instantiate(f)
		return err
	}); err != nil {
		return err
	}
	log.Info("counter instantiated", zap.Stringer("component", c))

	for range n {
		if _, err := e.Execute(ctx, func(f *engine.Frame) error { return counter.Increment(f, c) }); err != nil {
			return err
		}
	}

	var count uint64
	if err := e.Query(ctx, func(f *engine.Frame) (err error) {
		count, err = counter.GetCount(f, c)
		return err
	}); err != nil {
		return err
	}
	log.Info("counter incremented", zap.Uint64("count", count))

	if _, err := e.Execute(ctx, func(f *engine.Frame) error { return counter.Reset(f, c) }); err != nil {
		return err
	}
	if err := e.Query(ctx, func(f *engine.Frame) (err error) {
		count, err = counter.GetCount(f, c)
		return err
	}); err != nil {
		return err
	}
	log.Info("counter reset", zap.Uint64("count", count))
	return nil
}

func runAdminNFT(ctx context.Context, e *engine.Engine, log *zap.Logger, n int) error {
	var c, badgeVault types.Address
	var badge *engine.Bucket
	if _, err := e.Execute(ctx, func(f *engine.Frame) (err error) {
		if c, badge, err = adminnft.Instantiate(f); err != nil {
			return err
		}
		badgeVault, err = f.NewVault(badge)
		return err
	}); err != nil {
		return err
	}
	log.Info("admin nft instantiated",
		zap.Stringer("component", c),
		zap.Stringer("badge", badge.Resource()),
		zap.Stringer("badgeVault", badgeVault))

	for i := range n {
		name := fmt.Sprintf("NFT %d", i+1)
		var ids []types.NonFungibleLocalID
		var vault types.Address
		if _, err := e.Execute(ctx, func(f *engine.Frame) error {
			nft, err := adminnft.MintNFT(f, c, name)
			if err != nil {
				return err
			}
			ids = nft.NonFungibleIDs()
			vault, err = f.NewVault(nft)
			return err
		}); err != nil {
			return err
		}
		if len(ids) != 1 {
			return errors.New("expected bucket with single nft")
		}
		log.Info("nft minted", zap.String("name", name), zap.Stringer("id", ids[0]), zap.Stringer("vault", vault))
	}

	var supply types.Amount
	if err := e.Query(ctx, func(f *engine.Frame) (err error) {
		supply, err = adminnft.GetTotalSupply(f, c)
		return err
	}); err != nil {
		return err
	}
	log.Info("total supply", zap.Stringer("supply", supply))
	return nil
}

func writeMetrics(g prometheus.Gatherer, w io.Writer) error {
	mfs, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encoding metrics: %w", err)
		}
	}
	return nil
}
