package presentation

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/clsforge/internal/assembly"
	"github.com/zjrosen/clsforge/internal/builder"
	"github.com/zjrosen/clsforge/internal/infrastructure/sqlite"
	"github.com/zjrosen/clsforge/internal/testutil"
	"github.com/zjrosen/clsforge/internal/types"
)

func buildArm(t *testing.T, blacklist ...string) RepositoryDTO {
	t.Helper()
	cat := testutil.NewBuilder(t).WithArmParts().Build()
	opts := builder.Options{}
	if len(blacklist) > 0 {
		opts.Blacklist = blacklist
		opts.Taxonomy = types.NewSubtypes(testutil.ArmTaxonomy())
	}
	repo, stats, err := builder.New(cat).AddAllToRepository(context.Background(), testutil.ArmProject, opts)
	require.NoError(t, err)
	return FromRepository(testutil.ArmProject, repo, stats)
}

func TestFromRepository(t *testing.T) {
	dto := buildArm(t, "Screw")

	require.Equal(t, testutil.ArmProject, dto.Project)
	require.Equal(t, StatsDTO{Parts: 5, Configurations: 5, SkippedBlacklisted: 1, Entries: 6, Substitutes: 1}, dto.Stats)
	require.Len(t, dto.Entries, 6)

	var virtual, plate *EntryDTO
	for i := range dto.Entries {
		e := &dto.Entries[i]
		if e.Virtual {
			virtual = e
		}
		if e.Name == "plate" {
			plate = e
		}
	}
	require.NotNil(t, virtual)
	require.True(t, strings.HasPrefix(virtual.Name, builder.MarkerPrefix))
	require.Equal(t, builder.NoInsert, virtual.ForgeDocumentID)
	require.Equal(t, "Fastener", virtual.Type)
	require.Empty(t, virtual.Slots)

	require.NotNil(t, plate)
	require.Equal(t, "face", plate.Provides)
	require.Len(t, plate.Slots, 2)
	require.Equal(t, "left", plate.Slots[0].JointOrigin)
	require.Equal(t, []string{"Screw"}, plate.Slots[0].Provides)
}

func TestFormatRepository_JSON(t *testing.T) {
	dto := buildArm(t)
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf).FormatRepository(dto, FormatJSON))

	var decoded RepositoryDTO
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, dto, decoded)
}

func TestFormatRepository_Table(t *testing.T) {
	dto := buildArm(t)
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf).FormatRepository(dto, FormatTable))

	out := buf.String()
	for _, want := range []string{"KEY", "PROVIDES", "gripper", "plate", "(Joint -> Base)", "6 entries"} {
		require.Contains(t, out, want)
	}
	require.Contains(t, out, dto.Entries[0].Key[:shortKeyLen])
	require.NotContains(t, out, dto.Entries[0].Key)
}

func TestRepositoryTable_TruncatesLongTypes(t *testing.T) {
	long := strings.Repeat("(Fastener & Screw) -> ", 10) + "Plate"
	out := RepositoryTable(RepositoryDTO{Entries: []EntryDTO{{Key: "k", Name: "plate", Type: long}}})
	require.NotContains(t, out, long)
	require.Contains(t, out, "…")
}

func TestFormatRepository_UnknownFormat(t *testing.T) {
	err := NewFormatter(&bytes.Buffer{}).FormatRepository(RepositoryDTO{}, "xml")
	require.ErrorContains(t, err, "unknown output format")
}

func TestFormatProjects(t *testing.T) {
	var buf bytes.Buffer
	err := NewFormatter(&buf).FormatProjects([]sqlite.ProjectSummary{
		{Project: "arm", Parts: 5},
		{Project: "table", Parts: 2},
	})
	require.NoError(t, err)
	require.Contains(t, buf.String(), "PROJECT")
	require.Contains(t, buf.String(), "arm")
	require.Contains(t, buf.String(), "table")
}

func TestFormatInstruction(t *testing.T) {
	inst := assembly.Instruction{
		Name:            "gripper",
		ForgeDocumentID: "doc-gripper",
		Provides:        "mount",
		Count:           1,
		Connections:     map[string]assembly.Instruction{},
	}
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf).FormatInstruction(inst))

	var decoded InstructionResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, 1, decoded.Parts)
	require.Equal(t, "gripper", decoded.Instruction.Name)
}

func TestDiffRepositories(t *testing.T) {
	before := buildArm(t)
	after := buildArm(t, "Screw")

	require.Empty(t, DiffRepositories(before, before))

	diff := DiffRepositories(before, after)
	require.Contains(t, diff, "- screw[head] : M6Screw\n")
	require.Contains(t, diff, "+ "+builder.MarkerPrefix)
	require.NotContains(t, diff, "plate[face]")
	for _, line := range strings.Split(strings.TrimSuffix(diff, "\n"), "\n") {
		require.True(t, strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "+ "), line)
	}
}

func TestEntryLines_Empty(t *testing.T) {
	require.Empty(t, EntryLines(RepositoryDTO{}))
	require.Empty(t, DiffRepositories(RepositoryDTO{}, RepositoryDTO{}))
}
