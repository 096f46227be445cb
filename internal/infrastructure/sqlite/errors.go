package sqlite

import (
	"fmt"

	"github.com/zjrosen/clsforge/internal/catalog"
)

// ProjectNotFoundError is returned when a project has no stored parts.
// It matches catalog.ErrUnknownProject.
type ProjectNotFoundError struct {
	Project string
}

func (e *ProjectNotFoundError) Error() string {
	return fmt.Sprintf("project not found: %s", e.Project)
}

func (e *ProjectNotFoundError) Is(target error) bool {
	return target == catalog.ErrUnknownProject
}
