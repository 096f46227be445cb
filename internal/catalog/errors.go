package catalog

import (
	"errors"
	"fmt"

	"github.com/zjrosen/clsforge/internal/types"
)

// Validation errors raised at the catalog boundary.
var (
	ErrMissingField          = errors.New("missing field")
	ErrEmptyConfiguration    = errors.New("configuration provides no joint origin")
	ErrEmptyPartName         = errors.New("part name cannot be empty")
	ErrInvalidCount          = errors.New("joint origin count must be at least 1")
	ErrUnknownMotion         = errors.New("unknown motion")
	ErrDuplicateJointOrigin  = errors.New("duplicate joint origin")
	ErrIncompatibleMotion    = errors.New("incompatible motions")
	ErrJointOriginIDMismatch = errors.New("joint origin id does not match its key")
	ErrUnknownProject        = errors.New("unknown project")
	// ErrInvalidTypeName is types.ErrInvalidTypeName, raised for capability
	// names that are empty or use characters reserved by type rendering.
	ErrInvalidTypeName = types.ErrInvalidTypeName
)

// MissingJointOriginError reports a configuration that references a joint
// origin the part does not define. It matches ErrMissingField.
type MissingJointOriginError struct {
	Part        string
	JointOrigin string
}

func (e *MissingJointOriginError) Error() string {
	return fmt.Sprintf("part %q: joint origin %q not found", e.Part, e.JointOrigin)
}

func (e *MissingJointOriginError) Is(target error) bool {
	return target == ErrMissingField
}
