package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/clsforge/internal/catalog"
)

// NewPart builds a validated part descriptor, failing the test on error.
func NewPart(t testing.TB, name string, opts ...PartOption) catalog.PartDescriptor {
	t.Helper()
	data := defaultPart(name)
	for _, opt := range opts {
		opt(&data)
	}
	part, err := catalog.NewPartDescriptor(data.meta, data.jos, data.configs)
	require.NoError(t, err)
	if data.derive {
		part.Configurations = catalog.DeriveConfigurations(part)
	}
	return part
}

// Builder accumulates parts per project.
type Builder struct {
	t       testing.TB
	catalog *catalog.MemoryCatalog
}

// NewBuilder creates a builder over an empty in-memory catalog.
func NewBuilder(t testing.TB) *Builder {
	t.Helper()
	return &Builder{t: t, catalog: catalog.NewMemoryCatalog()}
}

// WithPart adds a part to project.
func (b *Builder) WithPart(project, name string, opts ...PartOption) *Builder {
	b.t.Helper()
	b.catalog.Add(project, NewPart(b.t, name, opts...))
	return b
}

// WithParts adds already built parts to project.
func (b *Builder) WithParts(project string, parts ...catalog.PartDescriptor) *Builder {
	b.catalog.Add(project, parts...)
	return b
}

// Build returns the catalog.
func (b *Builder) Build() *catalog.MemoryCatalog {
	return b.catalog
}
