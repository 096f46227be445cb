package types

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/clsforge/internal/cachemanager"
)

func fastenerTaxonomy(opts ...Option) *Subtypes {
	return NewSubtypes(map[string][]string{
		"M3":    {"Screw"},
		"M4":    {"Screw"},
		"Screw": {"Fastener"},
		"Rivet": {"Fastener"},
	}, opts...)
}

func TestSubtypes_Constructors(t *testing.T) {
	tax := fastenerTaxonomy()

	require.True(t, tax.IsSubtype(c("M3"), c("M3")), "reflexive")
	require.True(t, tax.IsSubtype(c("M3"), c("Screw")))
	require.True(t, tax.IsSubtype(c("M3"), c("Fastener")), "transitive")
	require.False(t, tax.IsSubtype(c("Screw"), c("M3")))
	require.False(t, tax.IsSubtype(c("Rivet"), c("Screw")))
	require.False(t, tax.IsSubtype(c("Unknown"), c("Screw")))
}

func TestSubtypes_Intersections(t *testing.T) {
	tax := fastenerTaxonomy()

	require.True(t, tax.IsSubtype(Constructors("M3", "Steel"), c("Screw")))
	require.True(t, tax.IsSubtype(Constructors("M3", "Steel"), Constructors("Fastener", "Steel")))
	require.False(t, tax.IsSubtype(c("M3"), Constructors("Screw", "Steel")))
}

func TestSubtypes_Omega(t *testing.T) {
	tax := fastenerTaxonomy()

	require.True(t, tax.IsSubtype(c("M3"), Omega{}))
	require.True(t, tax.IsSubtype(Omega{}, Omega{}))
	require.False(t, tax.IsSubtype(Omega{}, c("M3")))
	require.True(t, tax.IsSubtype(c("M3"), Arrow{Source: c("A"), Target: Omega{}}))
}

func TestSubtypes_Arrows(t *testing.T) {
	tax := fastenerTaxonomy()

	// Contravariant in the source, covariant in the target.
	require.True(t, tax.IsSubtype(MultiArrow(c("Screw"), c("M3")), MultiArrow(c("M3"), c("Screw"))))
	require.False(t, tax.IsSubtype(MultiArrow(c("M3"), c("M3")), MultiArrow(c("Screw"), c("M3"))))

	// An intersection of arrows combines targets for a shared source.
	both := Intersect(MultiArrow(c("A"), c("X")), MultiArrow(c("A"), c("Y")))
	require.True(t, tax.IsSubtype(both, MultiArrow(c("A"), Constructors("X", "Y"))))
	require.False(t, tax.IsSubtype(MultiArrow(c("A"), c("X")), MultiArrow(c("A"), Constructors("X", "Y"))))

	// Arrows are never below constructors and vice versa.
	require.False(t, tax.IsSubtype(MultiArrow(c("A"), c("X")), c("X")))
	require.False(t, tax.IsSubtype(c("X"), MultiArrow(c("A"), c("X"))))
}

func TestSubtypes_Cycles(t *testing.T) {
	tax := NewSubtypes(map[string][]string{"A": {"B"}, "B": {"A"}})
	require.True(t, tax.IsSubtype(c("A"), c("B")))
	require.True(t, tax.IsSubtype(c("B"), c("A")))
	require.Equal(t, []string{"B"}, tax.Supertypes("A"))
}

func TestSubtypes_Supertypes(t *testing.T) {
	tax := fastenerTaxonomy()
	require.Equal(t, []string{"Fastener", "Screw"}, tax.Supertypes("M3"))
	require.Empty(t, tax.Supertypes("Fastener"))
}

func TestSubtypes_CachedVerdictsMatch(t *testing.T) {
	cache := cachemanager.NewMemory[string, bool]("subtypes", time.Minute)
	cached := fastenerTaxonomy(WithCache(cache, time.Minute))
	plain := fastenerTaxonomy()

	pairs := [][2]Type{
		{c("M3"), c("Fastener")},
		{c("Rivet"), c("Screw")},
		{MultiArrow(c("Screw"), c("M3")), MultiArrow(c("M3"), c("Screw"))},
	}
	for range 2 {
		for _, p := range pairs {
			require.Equal(t, plain.IsSubtype(p[0], p[1]), cached.IsSubtype(p[0], p[1]))
		}
	}
	require.Equal(t, len(pairs), cache.Len())
	require.Equal(t, cachemanager.Stats{Hits: 3, Misses: 3}, cached.CacheStats())
	require.Zero(t, plain.CacheStats())
}

func TestLoadTaxonomy(t *testing.T) {
	env, err := LoadTaxonomy(strings.NewReader(`
subtypes:
  M3: [Screw]
  Screw: [Fastener]
`))
	require.NoError(t, err)
	require.Equal(t, map[string][]string{"M3": {"Screw"}, "Screw": {"Fastener"}}, env)
}

func TestLoadTaxonomy_EmptyDocument(t *testing.T) {
	env, err := LoadTaxonomy(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, env)
}

func TestLoadTaxonomy_RejectsUnknownFields(t *testing.T) {
	_, err := LoadTaxonomy(strings.NewReader("types:\n  A: [B]\n"))
	require.Error(t, err)
}

func TestLoadTaxonomy_RejectsEmptySupertype(t *testing.T) {
	_, err := LoadTaxonomy(strings.NewReader("subtypes:\n  A: ['']\n"))
	require.ErrorIs(t, err, ErrInvalidTypeName)
	require.ErrorContains(t, err, `supertype of "A"`)
}

func TestLoadTaxonomy_RejectsReservedCharacters(t *testing.T) {
	for _, doc := range []string{
		"subtypes:\n  '(X & Y)': [S]\n",
		"subtypes:\n  X: ['A -> B']\n",
		"subtypes:\n  'M3 screw': [Screw]\n",
	} {
		_, err := LoadTaxonomy(strings.NewReader(doc))
		require.ErrorIs(t, err, ErrInvalidTypeName, doc)
	}
}

func TestSubtypes_CachedVerdictsKeyedByStructure(t *testing.T) {
	cache := cachemanager.NewMemory[string, bool]("subtypes", time.Minute)
	tax := NewSubtypes(map[string][]string{"X": {"S"}}, WithCache(cache, time.Minute))

	require.True(t, tax.IsSubtype(Constructors("X", "Y"), c("S")))
	// A constructor that renders like the intersection must not reuse its verdict.
	require.False(t, tax.IsSubtype(c("(X & Y)"), c("S")))
	require.Equal(t, 2, cache.Len())
}
