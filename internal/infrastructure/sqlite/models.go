package sqlite

import (
	"encoding/json"
	"fmt"

	"github.com/zjrosen/clsforge/internal/catalog"
)

// PartModel is a row of the parts table.
type PartModel struct {
	ID              int64
	Project         string
	Name            string
	ForgeDocumentID string
	ForgeFolderID   string
	ForgeProjectID  string
	CreatedAt       int64 // Unix timestamp
}

// JointOriginModel is a row of the joint_origins table. Capability lists
// are JSON encoded.
type JointOriginModel struct {
	PartID   int64
	ID       string
	Position int
	Requires string
	Provides string
	Motion   string
	Count    int
}

// ConfigurationModel is a row of the configurations table.
type ConfigurationModel struct {
	PartID   int64
	Position int
	Requires string // JSON encoded joint origin ids
	Provides string
}

func encodeList(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	b, err := json.Marshal(names)
	return string(b), err
}

func decodeList(s string) ([]string, error) {
	var names []string
	if err := json.Unmarshal([]byte(s), &names); err != nil {
		return nil, fmt.Errorf("decode list %q: %w", s, err)
	}
	if len(names) == 0 {
		return nil, nil
	}
	return names, nil
}

func toJointOriginModel(jo catalog.JointOrigin, position int) (JointOriginModel, error) {
	requires, err := encodeList(jo.Requires)
	if err != nil {
		return JointOriginModel{}, err
	}
	provides, err := encodeList(jo.Provides)
	if err != nil {
		return JointOriginModel{}, err
	}
	return JointOriginModel{
		ID:       jo.ID,
		Position: position,
		Requires: requires,
		Provides: provides,
		Motion:   string(jo.Motion),
		Count:    jo.Count,
	}, nil
}

func (m JointOriginModel) toDomain() (catalog.JointOrigin, error) {
	requires, err := decodeList(m.Requires)
	if err != nil {
		return catalog.JointOrigin{}, err
	}
	provides, err := decodeList(m.Provides)
	if err != nil {
		return catalog.JointOrigin{}, err
	}
	return catalog.JointOrigin{
		ID:       m.ID,
		Requires: requires,
		Provides: provides,
		Motion:   catalog.Motion(m.Motion),
		Count:    m.Count,
	}, nil
}

func toConfigurationModel(cfg catalog.Configuration, position int) (ConfigurationModel, error) {
	requires, err := encodeList(cfg.Requires)
	if err != nil {
		return ConfigurationModel{}, err
	}
	return ConfigurationModel{Position: position, Requires: requires, Provides: cfg.Provides}, nil
}

func (m ConfigurationModel) toDomain() (catalog.Configuration, error) {
	requires, err := decodeList(m.Requires)
	if err != nil {
		return catalog.Configuration{}, err
	}
	return catalog.Configuration{Requires: requires, Provides: m.Provides}, nil
}

func (m PartModel) meta() catalog.Meta {
	return catalog.Meta{
		Name:            m.Name,
		ForgeDocumentID: m.ForgeDocumentID,
		ForgeFolderID:   m.ForgeFolderID,
		ForgeProjectID:  m.ForgeProjectID,
	}
}
