// Package assembly turns synthesized combinator terms into assembly
// instructions: which part documents to insert and how their joint origins
// connect.
package assembly

import (
	"errors"
	"fmt"

	"github.com/zjrosen/clsforge/internal/builder"
	"github.com/zjrosen/clsforge/internal/catalog"
)

var (
	ErrTooManyArguments = errors.New("too many arguments")
	ErrUnknownPart      = errors.New("unknown part")
	ErrAmbiguousPart    = errors.New("ambiguous part reference")
)

// Instruction places one part and, recursively, the parts connected to its
// required joint origins.
type Instruction struct {
	Name            string                 `json:"name"`
	ForgeDocumentID string                 `json:"forgeDocumentId"`
	ForgeFolderID   string                 `json:"forgeFolderId"`
	ForgeProjectID  string                 `json:"forgeProjectId"`
	Provides        string                 `json:"provides"`
	Motion          catalog.Motion         `json:"motion"`
	Count           int                    `json:"count"`
	Connections     map[string]Instruction `json:"connections"`
}

// Options control how instructions are composed.
type Options struct {
	// StrictMotion rejects connecting two different non-rigid motions.
	StrictMotion bool
}

// Apply applies part to fillers, one per required slot in order. Slots
// beyond the last filler stay unconnected. Each connection takes its count
// from the slot and its motion from composing the part's motion with the
// slot's.
func Apply(part builder.Part, fillers []Instruction, opts Options) (Instruction, error) {
	slots := part.Slots()
	if len(fillers) > len(slots) {
		return Instruction{}, fmt.Errorf("%s takes %d arguments, got %d: %w", part, len(slots), len(fillers), ErrTooManyArguments)
	}

	meta := part.Meta()
	inst := Instruction{
		Name:            meta.Name,
		ForgeDocumentID: meta.ForgeDocumentID,
		ForgeFolderID:   meta.ForgeFolderID,
		ForgeProjectID:  meta.ForgeProjectID,
		Provides:        part.Provides(),
		Motion:          part.Motion(),
		Count:           1,
		Connections:     make(map[string]Instruction, len(fillers)),
	}
	for i, filler := range fillers {
		slot := slots[i]
		motion := catalog.CombineMotions(part.Motion(), slot.Motion)
		if opts.StrictMotion {
			var err error
			if motion, err = catalog.CombineMotionsStrict(part.Motion(), slot.Motion); err != nil {
				return Instruction{}, fmt.Errorf("%s slot %q: %w", part, slot.JointOriginID, err)
			}
		}
		filler.Count = slot.Count
		filler.Motion = motion
		inst.Connections[slot.JointOriginID] = filler
	}
	return inst, nil
}

// Parts counts the documents an instruction inserts, markers excluded.
func (i Instruction) Parts() int {
	n := 0
	if i.ForgeDocumentID != builder.NoInsert {
		n = 1
	}
	for _, child := range i.Connections {
		n += child.Count * child.Parts()
	}
	return n
}
