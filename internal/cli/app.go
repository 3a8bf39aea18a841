package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/NotHilal/PLM-Hackaton/analytics"
	"github.com/NotHilal/PLM-Hackaton/config"
	"github.com/NotHilal/PLM-Hackaton/loader"
	"github.com/NotHilal/PLM-Hackaton/metrics"
	"github.com/NotHilal/PLM-Hackaton/store"
)

// app is everything a command needs: the configured store, loaded once,
// and the provider over it.
type app struct {
	log      *slog.Logger
	cfg      *config.Config
	metrics  *metrics.Metrics
	reader   *loader.DuckDBReader
	loader   *loader.Loader
	store    *store.Store
	provider *analytics.Provider
	report   *store.LoadReport

	out    *printer
	closer io.Closer
}

// appOptions come from the root persistent flags.
type appOptions struct {
	verbose        bool
	envFiles       []string
	dataDir        string
	policyFile     string
	miner          string
	format         string
	out            string
	varianceRework bool
}

func readAppOptions(cmd *cobra.Command) (appOptions, error) {
	var o appOptions
	var err error
	flags := cmd.Root().PersistentFlags()
	if o.verbose, err = flags.GetBool("verbose"); err != nil {
		return o, fmt.Errorf("failed to get verbose flag: %w", err)
	}
	if o.envFiles, err = flags.GetStringSlice("env-file"); err != nil {
		return o, fmt.Errorf("failed to get env-file flag: %w", err)
	}
	if o.dataDir, err = flags.GetString("data-dir"); err != nil {
		return o, fmt.Errorf("failed to get data-dir flag: %w", err)
	}
	if o.policyFile, err = flags.GetString("policy"); err != nil {
		return o, fmt.Errorf("failed to get policy flag: %w", err)
	}
	if o.miner, err = flags.GetString("miner"); err != nil {
		return o, fmt.Errorf("failed to get miner flag: %w", err)
	}
	if o.format, err = flags.GetString("format"); err != nil {
		return o, fmt.Errorf("failed to get format flag: %w", err)
	}
	if o.out, err = flags.GetString("out"); err != nil {
		return o, fmt.Errorf("failed to get out flag: %w", err)
	}
	if o.varianceRework, err = flags.GetBool("variance-rework"); err != nil {
		return o, fmt.Errorf("failed to get variance-rework flag: %w", err)
	}
	return o, nil
}

// newApp loads the configuration, reloads the tables once and builds the
// provider. Metrics register with reg.
func newApp(ctx context.Context, cmd *cobra.Command, reg prometheus.Registerer) (*app, error) {
	opts, err := readAppOptions(cmd)
	if err != nil {
		return nil, err
	}
	if err := validateFormat(opts.format); err != nil {
		return nil, err
	}
	log := newLogger(opts.verbose)

	cfg, err := config.Load(opts.envFiles...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.dataDir != "" {
		cfg.DataDir = opts.dataDir
	}
	if opts.policyFile != "" {
		cfg.PolicyFile = opts.policyFile
	}
	if opts.miner != "" {
		cfg.GraphMiner = opts.miner
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	source, err := cfg.Source(ctx, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create source: %w", err)
	}
	reader, err := loader.NewDuckDBReader(log)
	if err != nil {
		return nil, err
	}
	l, err := loader.New(loader.Config{Logger: log, Source: source, Reader: reader})
	if err != nil {
		reader.Close()
		return nil, err
	}

	m := metrics.NewMetrics(reg)
	st, err := store.New(store.Config{
		Logger:       log,
		Loader:       l,
		Metrics:      m,
		LoadPoolSize: cfg.LoadPoolSize,
	})
	if err != nil {
		reader.Close()
		return nil, err
	}

	a := &app{log: log, cfg: cfg, metrics: m, reader: reader, loader: l, store: st}
	if _, a.report, err = st.Reload(ctx); err != nil {
		a.Close()
		return nil, err
	}
	for _, f := range a.report.Failures() {
		log.Warn("Table could not be loaded, using fallback results", "category", f.Category, "status", f.Status, "error", f.Err)
	}

	a.provider, err = analytics.NewProvider(analytics.ProviderConfig{
		Logger:         log,
		Snapshots:      st,
		Metrics:        m,
		Policy:         policy,
		Miner:          cfg.Miner(),
		VarianceRework: opts.varianceRework,
		CacheTTL:       cfg.CacheTTL,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	w := io.Writer(os.Stdout)
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create output file: %w", err)
		}
		a.closer = f
		w = f
	}
	a.out = &printer{w: w, format: opts.format}
	return a, nil
}

func (a *app) Close() error {
	a.store.Close()
	if a.closer != nil {
		if err := a.closer.Close(); err != nil {
			return err
		}
	}
	return a.reader.Close()
}

// runWithApp builds the app for a command, runs fn and closes the app.
func runWithApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
