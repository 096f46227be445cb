package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/clsforge/internal/builder"
	"github.com/zjrosen/clsforge/internal/cachemanager"
	"github.com/zjrosen/clsforge/internal/catalog"
	"github.com/zjrosen/clsforge/internal/config"
	"github.com/zjrosen/clsforge/internal/flags"
	"github.com/zjrosen/clsforge/internal/infrastructure/sqlite"
	"github.com/zjrosen/clsforge/internal/log"
	"github.com/zjrosen/clsforge/internal/metrics"
	"github.com/zjrosen/clsforge/internal/tracing"
	"github.com/zjrosen/clsforge/internal/types"
)

// environment holds the collaborators of a build, created from the config.
type environment struct {
	cfg      config.Config
	catalog  catalog.Catalog
	taxonomy types.Taxonomy
	tracing  *tracing.Provider
	metrics  *metrics.Recorder
	flags    *flags.Registry
	closers  []func() error
}

// newEnvironment opens the catalog and taxonomy named by c. YAML files
// given in files take precedence over the configured catalog.
func newEnvironment(c config.Config, files []string) (*environment, error) {
	env := &environment{
		cfg:     c,
		metrics: metrics.NewRecorder(),
		flags:   flags.New(c.Flags),
	}

	cat, closeCatalog, err := openCatalog(c.Catalog, files)
	if err != nil {
		return nil, err
	}
	env.catalog = cat
	if closeCatalog != nil {
		env.closers = append(env.closers, closeCatalog)
	}

	env.taxonomy, err = loadTaxonomy(c.Taxonomy, c.Cache)
	if err != nil {
		_ = env.Close()
		return nil, err
	}

	env.tracing, err = tracing.NewProvider(tracingConfig(c.Tracing))
	if err != nil {
		_ = env.Close()
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}
	env.closers = append(env.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return env.tracing.Shutdown(ctx)
	})
	return env, nil
}

// Close releases the catalog and flushes pending spans.
func (e *environment) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

func (e *environment) builder() *builder.Builder {
	return builder.New(e.catalog,
		builder.WithTracer(e.tracing.Tracer()),
		builder.WithRecorder(e.metrics),
	)
}

// options merges the configured build options with the feature flags.
func (e *environment) options(b config.BuildConfig) builder.Options {
	opts := builder.Options{
		Blacklist:          b.Blacklist,
		PropagatedTypes:    b.PropagatedTypes,
		ConnectJointOrigin: b.ConnectJointOrigin,
		Parallel:           b.Parallel || e.flags.Enabled(flags.FlagParallelBuild),
		Workers:            b.Workers,
	}
	if e.taxonomy != nil {
		opts.Taxonomy = e.taxonomy
	}
	return opts
}

// writeMetrics writes the textfile if one is configured.
func (e *environment) writeMetrics() {
	if e.cfg.Metrics.Textfile == "" {
		return
	}
	if sub, ok := e.taxonomy.(*types.Subtypes); ok {
		e.metrics.RecordCache("subtypes", sub.CacheStats())
	}
	if err := e.metrics.WriteTextfile(e.cfg.Metrics.Textfile); err != nil {
		log.ErrorErr(log.CatTrace, "Failed to write metrics textfile", err, "path", e.cfg.Metrics.Textfile)
	}
}

func openCatalog(c config.CatalogConfig, files []string) (catalog.Catalog, func() error, error) {
	if len(files) == 0 && c.Driver == config.DriverYAML {
		files = c.Files
	}
	if len(files) > 0 {
		cat, err := catalog.NewYAMLCatalog(files...)
		if err != nil {
			return nil, nil, fmt.Errorf("loading catalog files: %w", err)
		}
		log.Debug(log.CatCatalog, "YAML catalog loaded", "files", len(files), "projects", cat.Projects())
		return cat, nil, nil
	}
	if c.Driver == config.DriverYAML {
		return nil, nil, fmt.Errorf("catalog.driver is %q but no catalog files were given", config.DriverYAML)
	}

	db, err := sqlite.NewDB(c.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening catalog database: %w", err)
	}
	return db.CatalogRepository(), db.Close, nil
}

// loadTaxonomy returns nil when no taxonomy file is configured.
func loadTaxonomy(t config.TaxonomyConfig, c config.CacheConfig) (types.Taxonomy, error) {
	if t.Path == "" {
		return nil, nil
	}
	env, err := types.LoadTaxonomyFile(t.Path)
	if err != nil {
		return nil, fmt.Errorf("loading taxonomy: %w", err)
	}
	var opts []types.Option
	if c.SubtypeTTL > 0 {
		cache := cachemanager.NewMemory[string, bool]("subtypes", c.SubtypeTTL)
		opts = append(opts, types.WithCache(cache, c.SubtypeTTL))
	}
	return types.NewSubtypes(env, opts...), nil
}

func tracingConfig(t config.TracingConfig) tracing.Config {
	tc := tracing.DefaultConfig()
	tc.Enabled = t.Enabled
	if t.Exporter != "" {
		tc.Exporter = t.Exporter
	}
	tc.FilePath = t.FilePath
	if tc.FilePath == "" {
		tc.FilePath = config.DefaultTracesFilePath()
	}
	if t.OTLPEndpoint != "" {
		tc.OTLPEndpoint = t.OTLPEndpoint
	}
	if t.SampleRate > 0 {
		tc.SampleRate = t.SampleRate
	}
	return tc
}
