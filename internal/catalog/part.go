// Package catalog defines the part descriptors the repository builder
// consumes: joint origins with their required and provided capability
// types, and the configurations in which a part may be used. Descriptors
// are validated here, at the catalog boundary, before they reach the
// builder.
package catalog

import (
	"context"
	"fmt"
	"slices"

	"github.com/zjrosen/clsforge/internal/types"
)

// Role selects which capability list of a joint origin to read.
type Role string

const (
	// RoleRequires lists what an attached part must provide.
	RoleRequires Role = "requires"
	// RoleProvides lists what this joint origin offers to an attached part.
	RoleProvides Role = "provides"
)

// JointOrigin is an attachment point on a part.
type JointOrigin struct {
	ID       string
	Requires []string // capability types required of the attached part
	Provides []string // capability types offered to the attached part
	Motion   Motion
	Count    int // multiplicity of this joint origin on the part
}

// Names returns the capability names listed under role.
func (j JointOrigin) Names(role Role) []string {
	if role == RoleProvides {
		return j.Provides
	}
	return j.Requires
}

// Configuration is one legal usage of a part: the joint origins it
// requires, in argument order, and the one joint origin it provides.
type Configuration struct {
	Requires []string
	Provides string
}

// Meta is the catalog identity of a part.
type Meta struct {
	Name            string
	ForgeDocumentID string
	ForgeFolderID   string
	ForgeProjectID  string
}

// PartDescriptor is an immutable catalog entry. Build it with
// NewPartDescriptor; callers must not modify the maps and slices it holds.
type PartDescriptor struct {
	Meta           Meta
	JointOrigins   map[string]JointOrigin
	JointOrder     []string // joint origin ids in declaration order
	Configurations []Configuration
}

// Catalog supplies the part descriptors of a project.
type Catalog interface {
	FetchPartsForProject(ctx context.Context, projectID string) ([]PartDescriptor, error)
}

// NewPartDescriptor normalises and validates a part. Joint origins without
// a count get count 1 and joint origins without a motion are Rigid. The
// inputs are copied.
func NewPartDescriptor(meta Meta, jointOrigins []JointOrigin, configurations []Configuration) (PartDescriptor, error) {
	p := PartDescriptor{
		Meta:           meta,
		JointOrigins:   make(map[string]JointOrigin, len(jointOrigins)),
		JointOrder:     make([]string, 0, len(jointOrigins)),
		Configurations: make([]Configuration, len(configurations)),
	}
	for _, jo := range jointOrigins {
		if jo.ID == "" {
			return PartDescriptor{}, fmt.Errorf("part %q: joint origin id: %w", meta.Name, ErrMissingField)
		}
		if _, dup := p.JointOrigins[jo.ID]; dup {
			return PartDescriptor{}, fmt.Errorf("part %q: %w %q", meta.Name, ErrDuplicateJointOrigin, jo.ID)
		}
		if jo.Count == 0 {
			jo.Count = 1
		}
		if jo.Motion == "" {
			jo.Motion = MotionRigid
		}
		jo.Requires = slices.Clone(jo.Requires)
		jo.Provides = slices.Clone(jo.Provides)
		p.JointOrigins[jo.ID] = jo
		p.JointOrder = append(p.JointOrder, jo.ID)
	}
	for i, cfg := range configurations {
		p.Configurations[i] = Configuration{
			Requires: slices.Clone(cfg.Requires),
			Provides: cfg.Provides,
		}
	}
	if err := p.Validate(); err != nil {
		return PartDescriptor{}, err
	}
	return p, nil
}

// JointOrigin looks up a joint origin by id.
func (p PartDescriptor) JointOrigin(id string) (JointOrigin, error) {
	jo, ok := p.JointOrigins[id]
	if !ok {
		return JointOrigin{}, &MissingJointOriginError{Part: p.Meta.Name, JointOrigin: id}
	}
	return jo, nil
}

// Validate checks the descriptor for corrupt or stale data.
func (p PartDescriptor) Validate() error {
	if p.Meta.Name == "" {
		return ErrEmptyPartName
	}
	for id, jo := range p.JointOrigins {
		if jo.ID != "" && jo.ID != id {
			return fmt.Errorf("part %q: %w: %q stored under %q", p.Meta.Name, ErrJointOriginIDMismatch, jo.ID, id)
		}
		if jo.Count < 1 {
			return fmt.Errorf("part %q joint origin %q: %w", p.Meta.Name, id, ErrInvalidCount)
		}
		if !jo.Motion.IsValid() {
			return fmt.Errorf("part %q joint origin %q: %w %q", p.Meta.Name, id, ErrUnknownMotion, jo.Motion)
		}
		for _, role := range []Role{RoleRequires, RoleProvides} {
			if err := types.ValidateNames(jo.Names(role)...); err != nil {
				return fmt.Errorf("part %q joint origin %q %s: %w", p.Meta.Name, id, role, err)
			}
		}
	}
	for i, cfg := range p.Configurations {
		if err := p.validateConfiguration(cfg); err != nil {
			return fmt.Errorf("configuration %d: %w", i, err)
		}
	}
	return nil
}

func (p PartDescriptor) validateConfiguration(cfg Configuration) error {
	if cfg.Provides == "" {
		return fmt.Errorf("part %q: %w", p.Meta.Name, ErrEmptyConfiguration)
	}
	if _, err := p.JointOrigin(cfg.Provides); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(cfg.Requires))
	for _, id := range cfg.Requires {
		if _, err := p.JointOrigin(id); err != nil {
			return err
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("part %q: %w %q", p.Meta.Name, ErrDuplicateJointOrigin, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// DeriveConfigurations lists the configurations of a part that declares
// none: each joint origin that provides something is in turn the provided
// one, and every other joint origin is required in declaration order.
func DeriveConfigurations(p PartDescriptor) []Configuration {
	var configs []Configuration
	for _, id := range p.JointOrder {
		if len(p.JointOrigins[id].Provides) == 0 {
			continue
		}
		requires := make([]string, 0, len(p.JointOrder)-1)
		for _, other := range p.JointOrder {
			if other != id {
				requires = append(requires, other)
			}
		}
		configs = append(configs, Configuration{Requires: requires, Provides: id})
	}
	return configs
}
