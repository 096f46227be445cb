package builder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/clsforge/internal/catalog"
)

func namedPart(name, provides string) Part {
	return NewPart(catalog.Meta{Name: name}, provides, catalog.MotionRigid, nil)
}

func TestRepository_AddKeepsFirst(t *testing.T) {
	repo := NewRepository()
	p := namedPart("a", "x")

	require.True(t, repo.Add(p, c("First")))
	require.False(t, repo.Add(p, c("Second")))

	got, ok := repo.Get(p)
	require.True(t, ok)
	require.Equal(t, "First", got.String())

	e, ok := repo.Lookup(p.Key())
	require.True(t, ok)
	require.True(t, e.Part.Equal(p))

	_, ok = repo.Get(namedPart("b", "x"))
	require.False(t, ok)
}

func TestRepository_EntriesSorted(t *testing.T) {
	repo := NewRepository()
	repo.Add(namedPart("b", "x"), c("T"))
	repo.Add(namedPart("a", "y"), c("T"))
	repo.Add(namedPart("a", "x"), c("T"))

	var got []string
	for _, e := range repo.Entries() {
		got = append(got, e.Part.String())
	}
	require.Equal(t, []string{"a[x]", "a[y]", "b[x]"}, got)
}

func TestRepository_Merge(t *testing.T) {
	left := NewRepository()
	left.Add(namedPart("a", "x"), c("T"))
	left.Add(namedPart("b", "x"), c("T"))

	right := NewRepository()
	right.Add(namedPart("b", "x"), c("T"))
	right.Add(namedPart("c", "x"), c("T"))

	added := left.Merge(right)
	require.Len(t, added, 1)
	require.Equal(t, "c", added[0].Part.Meta().Name)
	require.Equal(t, 3, left.Len())
}

func TestRepository_Equal(t *testing.T) {
	a := NewRepository()
	b := NewRepository()
	require.True(t, a.Equal(b))

	a.Add(namedPart("a", "x"), c("T"))
	require.False(t, a.Equal(b))

	b.Add(namedPart("a", "x"), c("U"))
	require.False(t, a.Equal(b))

	other := NewRepository()
	other.Add(namedPart("a", "x"), c("T"))
	require.True(t, a.Equal(other))
}
