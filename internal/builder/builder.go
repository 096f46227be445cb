// Package builder turns catalog parts into a typed combinator repository
// for a combinatory logic synthesis engine. Every configuration of a part
// becomes one combinator whose type is a curried arrow from its required
// joint-origin types to its provided type.
//
// A blacklist reserves a subtree of the taxonomy for connector synthesis:
// configurations providing a blacklisted type are left out, and required
// slots whose filler would have to provide one get a virtual substitute
// marker instead.
package builder

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/zjrosen/clsforge/internal/catalog"
	"github.com/zjrosen/clsforge/internal/log"
	"github.com/zjrosen/clsforge/internal/tracing"
	"github.com/zjrosen/clsforge/internal/types"
)

// ErrInvalidBlacklistUsage is returned when a blacklist is given without
// a taxonomy to evaluate it.
var ErrInvalidBlacklistUsage = errors.New("blacklist requires a taxonomy")

// Options control a build. The zero value builds without blacklist or
// propagated types, sequentially.
type Options struct {
	// Blacklist names the constructors whose intersection is reserved for
	// connector synthesis. Empty means no blacklist.
	Blacklist []string
	// Taxonomy decides subtyping against the blacklist.
	Taxonomy types.Taxonomy
	// PropagatedTypes are threaded through every configuration as
	// per-argument-position overloads.
	PropagatedTypes [][]string
	// ConnectJointOrigin is the joint origin the blacklist was derived
	// from. It is recorded on spans and logs only.
	ConnectJointOrigin string

	Parallel bool
	Workers  int // parallel workers; 0 means GOMAXPROCS
}

func (o Options) validate() error {
	if len(o.Blacklist) > 0 && o.Taxonomy == nil {
		return ErrInvalidBlacklistUsage
	}
	if o.Workers < 0 {
		return fmt.Errorf("workers must not be negative: %d", o.Workers)
	}
	if err := types.ValidateNames(o.Blacklist...); err != nil {
		return fmt.Errorf("blacklist: %w", err)
	}
	for i, set := range o.PropagatedTypes {
		if err := types.ValidateNames(set...); err != nil {
			return fmt.Errorf("propagated types %d: %w", i, err)
		}
	}
	return nil
}

// Stats counts the outcome of a build.
type Stats struct {
	Parts              int // parts processed
	Configurations     int // configurations encoded
	SkippedBlacklisted int // configurations left out because they provide a blacklisted type
	Entries            int // new repository entries, substitutes included
	Substitutes        int // new virtual substitute entries
}

func (s *Stats) add(o Stats) {
	s.Parts += o.Parts
	s.Configurations += o.Configurations
	s.SkippedBlacklisted += o.SkippedBlacklisted
	s.Entries += o.Entries
	s.Substitutes += o.Substitutes
}

// Recorder receives the result of every project build.
type Recorder interface {
	RecordBuild(projectID string, stats Stats, elapsed time.Duration, err error)
}

// Builder builds repositories from a catalog.
type Builder struct {
	catalog  catalog.Catalog
	alg      types.Algebra
	tracer   trace.Tracer
	recorder Recorder
}

// Option configures a Builder.
type Option func(*Builder)

// WithAlgebra replaces the default type algebra.
func WithAlgebra(alg types.Algebra) Option {
	return func(b *Builder) { b.alg = alg }
}

// WithTracer records spans for builds.
func WithTracer(tracer trace.Tracer) Option {
	return func(b *Builder) { b.tracer = tracer }
}

// WithRecorder reports build outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(b *Builder) { b.recorder = r }
}

// New creates a builder reading parts from cat. cat may be nil when only
// AddPartToRepository is used.
func New(cat catalog.Catalog, opts ...Option) *Builder {
	b := &Builder{
		catalog: cat,
		alg:     types.DefaultAlgebra,
		tracer:  noop.NewTracerProvider().Tracer("noop"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddPartToRepository adds the combinators of every configuration of part
// to repo. The part's entries are staged and committed only when the whole
// part encodes without error, so a failing part leaves repo untouched.
func (b *Builder) AddPartToRepository(ctx context.Context, part catalog.PartDescriptor, repo *Repository, opts Options) (Stats, error) {
	if err := opts.validate(); err != nil {
		return Stats{}, err
	}
	_, span := b.tracer.Start(ctx, tracing.SpanBuildPart,
		trace.WithAttributes(
			attribute.String(tracing.AttrPartName, part.Meta.Name),
			attribute.String(tracing.AttrPartDocumentID, part.Meta.ForgeDocumentID),
		),
	)
	defer span.End()

	staged, stats, err := b.encodePart(part, opts, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Stats{}, err
	}
	stats.add(commit(repo, staged))

	span.SetAttributes(
		attribute.Int(tracing.AttrConfigurations, stats.Configurations),
		attribute.Int(tracing.AttrSkippedBlacklisted, stats.SkippedBlacklisted),
		attribute.Int(tracing.AttrEntries, stats.Entries),
		attribute.Int(tracing.AttrSubstitutes, stats.Substitutes),
	)
	span.SetStatus(codes.Ok, "")
	return stats, nil
}

// encodePart runs the configuration encoding for one part into a private
// repository. Entries and Substitutes are left for commit to count.
func (b *Builder) encodePart(part catalog.PartDescriptor, opts Options, span trace.Span) (*Repository, Stats, error) {
	stats := Stats{Parts: 1}
	if err := part.Validate(); err != nil {
		return nil, stats, err
	}

	var blacklisted func(t types.Type) bool
	if len(opts.Blacklist) > 0 {
		bl := constructors(b.alg, opts.Blacklist)
		blacklisted = func(t types.Type) bool { return opts.Taxonomy.IsSubtype(t, bl) }
	} else {
		blacklisted = func(types.Type) bool { return false }
	}

	staged := NewRepository()
	for _, cfg := range part.Configurations {
		provided, err := part.JointOrigin(cfg.Provides)
		if err != nil {
			return nil, stats, err
		}
		if blacklisted(ProvidedRoleType(b.alg, provided)) {
			stats.SkippedBlacklisted++
			span.AddEvent(tracing.EventConfigurationSkipped, trace.WithAttributes(attribute.String("provides", cfg.Provides)))
			log.Debug(log.CatBuilder, "Skipping blacklisted configuration",
				"part", part.Meta.Name, "provides", cfg.Provides)
			continue
		}

		t, err := ConfigurationType(b.alg, part, cfg, opts.PropagatedTypes)
		if err != nil {
			return nil, stats, err
		}
		slots := make([]Slot, len(cfg.Requires))
		for i, id := range cfg.Requires {
			jo, _ := part.JointOrigin(id) // resolved by ConfigurationType
			slots[i] = Slot{
				JointOriginID: id,
				Requires:      jo.Requires,
				Provides:      jo.Provides,
				Motion:        jo.Motion,
				Count:         jo.Count,
			}
		}
		staged.Add(NewPart(part.Meta, cfg.Provides, provided.Motion, slots).WithOffers(provided.Provides), t)
		stats.Configurations++

		for _, id := range cfg.Requires {
			jo, _ := part.JointOrigin(id)
			if !blacklisted(ProvidedRoleType(b.alg, jo)) {
				continue
			}
			required := RequiredRoleType(b.alg, jo)
			if staged.Add(NewVirtualSubstitute(required), required) {
				span.AddEvent(tracing.EventSubstituteInserted, trace.WithAttributes(attribute.String("type", required.String())))
			}
		}
	}
	return staged, stats, nil
}

func commit(repo *Repository, staged *Repository) Stats {
	var stats Stats
	for _, e := range repo.Merge(staged) {
		stats.Entries++
		if e.Part.IsVirtual() {
			stats.Substitutes++
		}
	}
	return stats
}

// AddAllToRepository builds a fresh repository from every part of the
// project. The result does not depend on the order parts are processed in;
// with opts.Parallel parts are encoded concurrently and merged.
func (b *Builder) AddAllToRepository(ctx context.Context, projectID string, opts Options) (*Repository, Stats, error) {
	start := time.Now()
	repo, stats, err := b.addAll(ctx, projectID, opts)
	if b.recorder != nil {
		b.recorder.RecordBuild(projectID, stats, time.Since(start), err)
	}
	return repo, stats, err
}

func (b *Builder) addAll(ctx context.Context, projectID string, opts Options) (*Repository, Stats, error) {
	if err := opts.validate(); err != nil {
		return nil, Stats{}, err
	}
	if b.catalog == nil {
		return nil, Stats{}, errors.New("builder has no catalog")
	}

	ctx, span := b.tracer.Start(ctx, tracing.SpanBuildProject,
		trace.WithAttributes(
			attribute.String(tracing.AttrProjectID, projectID),
			attribute.StringSlice(tracing.AttrBlacklist, opts.Blacklist),
			attribute.Int(tracing.AttrPropagatedTypes, len(opts.PropagatedTypes)),
			attribute.String(tracing.AttrConnectJointOrigin, opts.ConnectJointOrigin),
			attribute.Bool(tracing.AttrParallel, opts.Parallel),
		),
	)
	defer span.End()
	fail := func(err error) (*Repository, Stats, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.ErrorErr(log.CatBuilder, "Build failed", err, "project", projectID)
		return nil, Stats{}, err
	}

	fetchCtx, fetchSpan := b.tracer.Start(ctx, tracing.SpanCatalogFetch)
	parts, err := b.catalog.FetchPartsForProject(fetchCtx, projectID)
	fetchSpan.End()
	if err != nil {
		return fail(fmt.Errorf("fetch parts for %q: %w", projectID, err))
	}

	var (
		repo  *Repository
		stats Stats
	)
	if opts.Parallel {
		repo, stats, err = b.addAllParallel(ctx, parts, opts)
	} else {
		repo, stats, err = b.addAllSequential(ctx, parts, opts)
	}
	if err != nil {
		return fail(err)
	}

	span.SetAttributes(
		attribute.Int(tracing.AttrConfigurations, stats.Configurations),
		attribute.Int(tracing.AttrSkippedBlacklisted, stats.SkippedBlacklisted),
		attribute.Int(tracing.AttrEntries, stats.Entries),
		attribute.Int(tracing.AttrSubstitutes, stats.Substitutes),
	)
	span.SetStatus(codes.Ok, "")
	log.Info(log.CatBuilder, "Repository built",
		"project", projectID,
		"parts", stats.Parts,
		"configurations", stats.Configurations,
		"entries", stats.Entries,
		"skipped", stats.SkippedBlacklisted,
		"substitutes", stats.Substitutes,
		"connect", opts.ConnectJointOrigin)
	return repo, stats, nil
}

func (b *Builder) addAllSequential(ctx context.Context, parts []catalog.PartDescriptor, opts Options) (*Repository, Stats, error) {
	repo := NewRepository()
	var stats Stats
	for _, part := range parts {
		if err := ctx.Err(); err != nil {
			return nil, Stats{}, err
		}
		s, err := b.AddPartToRepository(ctx, part, repo, opts)
		if err != nil {
			return nil, Stats{}, err
		}
		stats.add(s)
	}
	return repo, stats, nil
}

func (b *Builder) addAllParallel(ctx context.Context, parts []catalog.PartDescriptor, opts Options) (*Repository, Stats, error) {
	workers := opts.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	partials := make([]*Repository, len(parts))
	partStats := make([]Stats, len(parts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, part := range parts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			partial := NewRepository()
			s, err := b.AddPartToRepository(gctx, part, partial, opts)
			if err != nil {
				return err
			}
			partials[i] = partial
			partStats[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}

	// Entries and Substitutes are recounted on merge since partial
	// repositories may overlap.
	repo := NewRepository()
	var stats Stats
	for i, partial := range partials {
		s := partStats[i]
		s.Entries, s.Substitutes = 0, 0
		stats.add(s)
		stats.add(commit(repo, partial))
	}
	log.Debug(log.CatBuilder, "Merged partial repositories", "parts", len(parts), "workers", workers)
	return repo, stats, nil
}
