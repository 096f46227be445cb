package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"

	"github.com/zjrosen/clsforge/internal/assembly"
	"github.com/zjrosen/clsforge/internal/infrastructure/sqlite"
)

// Output formats accepted by the CLI.
const (
	FormatJSON  = "json"
	FormatTable = "table"
)

const (
	// shortKeyLen is the number of key characters shown in tables.
	shortKeyLen = 12
	// maxTypeWidth bounds the TYPE column; JSON output is never truncated.
	maxTypeWidth = 72
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	virtualStyle = lipgloss.NewStyle().Padding(0, 1).Faint(true)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatRepository writes the repository in the given format.
func (f *Formatter) FormatRepository(repo RepositoryDTO, format string) error {
	switch format {
	case FormatJSON, "":
		return f.encode(repo)
	case FormatTable:
		_, err := fmt.Fprintln(f.writer, RepositoryTable(repo))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(f.writer, "%d parts, %d configurations, %d skipped, %d entries (%d substitutes)\n",
			repo.Stats.Parts, repo.Stats.Configurations, repo.Stats.SkippedBlacklisted,
			repo.Stats.Entries, repo.Stats.Substitutes)
		return err
	default:
		return fmt.Errorf("unknown output format %q (expected %s or %s)", format, FormatJSON, FormatTable)
	}
}

// FormatInstruction formats an assembly instruction as JSON
func (f *Formatter) FormatInstruction(inst assembly.Instruction) error {
	return f.encode(InstructionResult{Parts: inst.Parts(), Instruction: inst})
}

// FormatProjects writes the stored projects as a table.
func (f *Formatter) FormatProjects(projects []sqlite.ProjectSummary) error {
	rows := make([][]string, len(projects))
	for i, p := range projects {
		rows[i] = []string{p.Project, strconv.Itoa(p.Parts)}
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("PROJECT", "PARTS").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	_, err := fmt.Fprintln(f.writer, t.String())
	return err
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// RepositoryTable renders the repository entries as a bordered table.
// Virtual substitutes are rendered faint.
func RepositoryTable(repo RepositoryDTO) string {
	rows := make([][]string, len(repo.Entries))
	for i, e := range repo.Entries {
		rows[i] = []string{shortKey(e.Key), e.Name, e.Provides, e.Motion, strconv.Itoa(len(e.Slots)), runewidth.Truncate(e.Type, maxTypeWidth, "…")}
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("KEY", "NAME", "PROVIDES", "MOTION", "ARITY", "TYPE").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row >= 0 && row < len(repo.Entries) && repo.Entries[row].Virtual:
				return virtualStyle
			default:
				return cellStyle
			}
		}).
		String()
}

func shortKey(key string) string {
	if len(key) <= shortKeyLen {
		return key
	}
	return key[:shortKeyLen]
}
