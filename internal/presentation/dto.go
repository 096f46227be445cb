// Package presentation renders repositories and assembly instructions for
// the command line.
package presentation

import (
	"github.com/zjrosen/clsforge/internal/assembly"
	"github.com/zjrosen/clsforge/internal/builder"
)

// SlotDTO represents one required joint origin of a combinator.
type SlotDTO struct {
	JointOrigin string   `json:"joint_origin"`
	Requires    []string `json:"requires"`
	Provides    []string `json:"provides"`
	Motion      string   `json:"motion"`
	Count       int      `json:"count"`
}

// EntryDTO represents one repository combinator and its type.
type EntryDTO struct {
	Key             string    `json:"key"`
	Name            string    `json:"name"`
	ForgeDocumentID string    `json:"forge_document_id"`
	Provides        string    `json:"provides"`
	Motion          string    `json:"motion"`
	Virtual         bool      `json:"virtual"`
	Type            string    `json:"type"`
	Slots           []SlotDTO `json:"slots"`
}

// StatsDTO mirrors builder.Stats.
type StatsDTO struct {
	Parts              int `json:"parts"`
	Configurations     int `json:"configurations"`
	SkippedBlacklisted int `json:"skipped_blacklisted"`
	Entries            int `json:"entries"`
	Substitutes        int `json:"substitutes"`
}

// RepositoryDTO is the rendered form of a built repository.
type RepositoryDTO struct {
	Project string     `json:"project"`
	Stats   StatsDTO   `json:"stats"`
	Entries []EntryDTO `json:"entries"`
}

// FromEntry converts a repository entry to a DTO.
func FromEntry(e builder.Entry) EntryDTO {
	slots := make([]SlotDTO, 0, e.Part.Arity())
	for _, s := range e.Part.Slots() {
		slots = append(slots, SlotDTO{
			JointOrigin: s.JointOriginID,
			Requires:    nonNil(s.Requires),
			Provides:    nonNil(s.Provides),
			Motion:      string(s.Motion),
			Count:       s.Count,
		})
	}
	meta := e.Part.Meta()
	return EntryDTO{
		Key:             e.Part.Key(),
		Name:            meta.Name,
		ForgeDocumentID: meta.ForgeDocumentID,
		Provides:        e.Part.Provides(),
		Motion:          string(e.Part.Motion()),
		Virtual:         e.Part.IsVirtual(),
		Type:            e.Type.String(),
		Slots:           slots,
	}
}

// FromRepository converts a repository and its build stats to a DTO.
// Entries keep the repository's deterministic order.
func FromRepository(project string, repo *builder.Repository, stats builder.Stats) RepositoryDTO {
	entries := repo.Entries()
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = FromEntry(e)
	}
	return RepositoryDTO{
		Project: project,
		Stats: StatsDTO{
			Parts:              stats.Parts,
			Configurations:     stats.Configurations,
			SkippedBlacklisted: stats.SkippedBlacklisted,
			Entries:            stats.Entries,
			Substitutes:        stats.Substitutes,
		},
		Entries: dtos,
	}
}

// InstructionResult wraps an assembly instruction with its inserted part count.
type InstructionResult struct {
	Parts       int                  `json:"parts"`
	Instruction assembly.Instruction `json:"instruction"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
