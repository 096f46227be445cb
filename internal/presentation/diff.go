package presentation

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// EntryLines renders one line per entry, "name[provides] : type", in
// repository order. Used as the input for DiffRepositories.
func EntryLines(repo RepositoryDTO) []string {
	lines := make([]string, len(repo.Entries))
	for i, e := range repo.Entries {
		label := e.Name
		if !e.Virtual {
			label += "[" + e.Provides + "]"
		}
		lines[i] = label + " : " + e.Type
	}
	return lines
}

// DiffRepositories returns a line diff between two rendered repositories.
// Removed entries are prefixed with "- " and added entries with "+ ".
// Unchanged entries are omitted. An empty result means no difference.
func DiffRepositories(before, after RepositoryDTO) string {
	oldText := joinLines(EntryLines(before))
	newText := joinLines(EntryLines(after))
	if oldText == newText {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var out strings.Builder
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		default:
			continue
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(prefix)
			out.WriteString(line)
		}
	}
	return out.String()
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
