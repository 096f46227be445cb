package catalog

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/clsforge/internal/log"
)

// File is the root structure of a catalog YAML file.
type File struct {
	Project string    `yaml:"project"`
	Parts   []PartDef `yaml:"parts"`
}

// PartDef defines a single part in YAML.
type PartDef struct {
	Name            string `yaml:"name"`
	ForgeDocumentID string `yaml:"forge_document_id"`
	ForgeFolderID   string `yaml:"forge_folder_id"`
	ForgeProjectID  string `yaml:"forge_project_id"`

	// DeriveConfigurations generates configurations when none are listed:
	// every providing joint origin becomes the result once.
	DeriveConfigurations bool `yaml:"derive_configurations"`

	JointOrigins   []JointOriginDef   `yaml:"joint_origins"`
	Configurations []ConfigurationDef `yaml:"configurations"`
}

// JointOriginDef defines a joint origin in YAML.
type JointOriginDef struct {
	ID       string   `yaml:"id"`
	Requires []string `yaml:"requires"`
	Provides []string `yaml:"provides"`
	Motion   string   `yaml:"motion"` // Rigid (default), Revolute, Slider, ...
	Count    int      `yaml:"count"`  // default 1
}

// ConfigurationDef defines a configuration in YAML.
type ConfigurationDef struct {
	Requires []string `yaml:"requires"` // joint origin ids, argument order
	Provides string   `yaml:"provides"` // joint origin id
}

// Project is a decoded catalog file.
type Project struct {
	ID    string
	Parts []PartDescriptor
}

// LoadYAML decodes and validates a catalog file.
func LoadYAML(r io.Reader) (Project, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return Project{}, fmt.Errorf("parse catalog: %w", err)
	}
	if file.Project == "" {
		return Project{}, fmt.Errorf("parse catalog: project: %w", ErrMissingField)
	}

	project := Project{ID: file.Project, Parts: make([]PartDescriptor, 0, len(file.Parts))}
	for i, def := range file.Parts {
		part, err := def.toDomain()
		if err != nil {
			return Project{}, fmt.Errorf("part %d (%s): %w", i, def.Name, err)
		}
		project.Parts = append(project.Parts, part)
	}
	log.Debug(log.CatCatalog, "Loaded catalog", "project", project.ID, "parts", len(project.Parts))
	return project, nil
}

// LoadYAMLFile reads and decodes the catalog file at path.
func LoadYAMLFile(path string) (Project, error) {
	f, err := os.Open(path) //nolint:gosec // G304: catalog path is user supplied
	if err != nil {
		return Project{}, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()
	project, err := LoadYAML(f)
	if err != nil {
		return Project{}, fmt.Errorf("%s: %w", path, err)
	}
	return project, nil
}

// NewYAMLCatalog loads every file into one in-memory catalog. Files naming
// the same project are concatenated in argument order.
func NewYAMLCatalog(paths ...string) (*MemoryCatalog, error) {
	cat := NewMemoryCatalog()
	for _, path := range paths {
		project, err := LoadYAMLFile(path)
		if err != nil {
			return nil, err
		}
		cat.Add(project.ID, project.Parts...)
	}
	return cat, nil
}

func (d PartDef) toDomain() (PartDescriptor, error) {
	meta := Meta{
		Name:            d.Name,
		ForgeDocumentID: d.ForgeDocumentID,
		ForgeFolderID:   d.ForgeFolderID,
		ForgeProjectID:  d.ForgeProjectID,
	}
	jos := make([]JointOrigin, len(d.JointOrigins))
	for i, jo := range d.JointOrigins {
		jos[i] = JointOrigin{
			ID:       jo.ID,
			Requires: jo.Requires,
			Provides: jo.Provides,
			Motion:   Motion(jo.Motion),
			Count:    jo.Count,
		}
	}
	configs := make([]Configuration, len(d.Configurations))
	for i, cfg := range d.Configurations {
		configs[i] = Configuration{Requires: cfg.Requires, Provides: cfg.Provides}
	}

	part, err := NewPartDescriptor(meta, jos, configs)
	if err != nil {
		return PartDescriptor{}, err
	}
	if d.DeriveConfigurations && len(part.Configurations) == 0 {
		part.Configurations = DeriveConfigurations(part)
	}
	return part, nil
}
