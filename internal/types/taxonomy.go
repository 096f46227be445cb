package types

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// TaxonomyFile is the root structure of a taxonomy YAML file:
//
//	subtypes:
//	  M3_screw_format: [screw_format]
//	  screw_format: [fastener_format]
type TaxonomyFile struct {
	Subtypes map[string][]string `yaml:"subtypes"`
}

// LoadTaxonomy decodes a taxonomy file from r.
func LoadTaxonomy(r io.Reader) (map[string][]string, error) {
	var file TaxonomyFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return map[string][]string{}, nil
		}
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}
	for name, supers := range file.Subtypes {
		if err := ValidateName(name); err != nil {
			return nil, fmt.Errorf("parse taxonomy: %w", err)
		}
		if err := ValidateNames(supers...); err != nil {
			return nil, fmt.Errorf("parse taxonomy: supertype of %q: %w", name, err)
		}
	}
	if file.Subtypes == nil {
		file.Subtypes = map[string][]string{}
	}
	return file.Subtypes, nil
}

// LoadTaxonomyFile reads and decodes the taxonomy file at path.
func LoadTaxonomyFile(path string) (map[string][]string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from config/flags
	if err != nil {
		return nil, fmt.Errorf("open taxonomy: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadTaxonomy(f)
}
