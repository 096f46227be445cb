package assembly

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/clsforge/internal/builder"
)

// Term is a combinator applied to argument terms, as returned by the
// synthesis engine. Part is a repository key, a unique key prefix, or the
// rendered name of an entry (name[provides]).
type Term struct {
	Part string `json:"part" yaml:"part"`
	Args []Term `json:"args,omitempty" yaml:"args,omitempty"`
}

// LoadTerm decodes a term from YAML or JSON.
func LoadTerm(r io.Reader) (Term, error) {
	var term Term
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&term); err != nil {
		return Term{}, fmt.Errorf("parse term: %w", err)
	}
	return term, nil
}

// Resolve finds the repository entry a reference names.
func Resolve(repo *builder.Repository, ref string) (builder.Entry, error) {
	if e, ok := repo.Lookup(ref); ok {
		return e, nil
	}
	var matches []builder.Entry
	for _, e := range repo.Entries() {
		if e.Part.String() == ref || (len(ref) >= 8 && strings.HasPrefix(e.Part.Key(), ref)) {
			matches = append(matches, e)
		}
	}
	switch len(matches) {
	case 0:
		return builder.Entry{}, fmt.Errorf("%w: %q", ErrUnknownPart, ref)
	case 1:
		return matches[0], nil
	default:
		return builder.Entry{}, fmt.Errorf("%w: %q matches %d entries", ErrAmbiguousPart, ref, len(matches))
	}
}

// Build resolves every combinator of term against repo and applies it to
// its arguments, innermost first.
func Build(repo *builder.Repository, term Term, opts Options) (Instruction, error) {
	entry, err := Resolve(repo, term.Part)
	if err != nil {
		return Instruction{}, err
	}
	fillers := make([]Instruction, len(term.Args))
	for i, arg := range term.Args {
		if fillers[i], err = Build(repo, arg, opts); err != nil {
			return Instruction{}, err
		}
	}
	return Apply(entry.Part, fillers, opts)
}
