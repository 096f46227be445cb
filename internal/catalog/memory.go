package catalog

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// MemoryCatalog is a Catalog held in memory, keyed by project id.
type MemoryCatalog struct {
	mu       sync.RWMutex
	projects map[string][]PartDescriptor
}

var _ Catalog = (*MemoryCatalog)(nil)

// NewMemoryCatalog returns an empty catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{projects: make(map[string][]PartDescriptor)}
}

// Add appends parts to a project, creating the project if needed.
func (c *MemoryCatalog) Add(projectID string, parts ...PartDescriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projects[projectID] = append(c.projects[projectID], parts...)
}

// FetchPartsForProject returns the parts of a project in insertion order.
func (c *MemoryCatalog) FetchPartsForProject(_ context.Context, projectID string) ([]PartDescriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	parts, ok := c.projects[projectID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProject, projectID)
	}
	return slices.Clone(parts), nil
}

// Projects returns the sorted project ids.
func (c *MemoryCatalog) Projects() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.projects))
	for id := range c.projects {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
