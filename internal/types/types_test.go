package types

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func c(name string) Type { return Constructor{Name: name} }

func TestKey_DistinguishesLookalikeNames(t *testing.T) {
	inter := Constructors("X", "Y")
	atom := c("(X & Y)")

	require.Equal(t, inter.String(), atom.String())
	require.NotEqual(t, Key(inter), Key(atom))
	require.False(t, Equal(inter, atom))
	require.Len(t, members(Intersect(inter, atom)), 3)

	require.NotEqual(t, Key(Arrow{Source: c("A"), Target: c("B")}), Key(c("(A -> B)")))
	require.Equal(t, Key(Intersect(c("Y"), c("X"))), Key(Constructors("X", "Y")))
}

func TestValidateName(t *testing.T) {
	for _, ok := range []string{"Screw", "M3_screw_format", "fastener-format", "Ø8"} {
		require.NoError(t, ValidateName(ok), ok)
	}
	for _, bad := range []string{"", "(X & Y)", "A->B", "X&Y", "a<=b", "ω", "M3 screw", "tab\there"} {
		require.ErrorIs(t, ValidateName(bad), ErrInvalidTypeName, bad)
	}
	require.ErrorIs(t, ValidateNames("A", "B", "C)"), ErrInvalidTypeName)
	require.NoError(t, ValidateNames())
}

func TestIntersect_Normalises(t *testing.T) {
	tests := []struct {
		name string
		in   []Type
		want string
	}{
		{"empty is omega", nil, "ω"},
		{"single is unwrapped", []Type{c("X")}, "X"},
		{"sorted", []Type{c("Y"), c("X")}, "(X & Y)"},
		{"deduplicated", []Type{c("X"), c("X")}, "X"},
		{"omega dropped", []Type{Omega{}, c("X")}, "X"},
		{"flattened", []Type{Intersect(c("Z"), c("X")), c("Y")}, "(X & Y & Z)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Intersect(tt.in...).String())
		})
	}
}

func TestIntersect_OrderIndependent(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		names := rapid.SliceOfN(rapid.StringMatching(`[A-E]`), 0, 6).Draw(r, "names")
		shuffled := rapid.Permutation(names).Draw(r, "shuffled")
		require.True(t, Equal(Constructors(names...), Constructors(shuffled...)))
	})
}

func TestMultiArrow_RightAssociative(t *testing.T) {
	got := MultiArrow(c("A"), c("B"), c("C"))
	want := Arrow{Source: c("A"), Target: Arrow{Source: c("B"), Target: c("C")}}
	require.Equal(t, want, got)
	require.Equal(t, "(A -> (B -> C))", got.String())
}

func TestMultiArrow_Degenerate(t *testing.T) {
	require.Equal(t, c("A"), MultiArrow(c("A")))
	require.Equal(t, Omega{}, MultiArrow())
}

func TestIsOmega(t *testing.T) {
	require.True(t, IsOmega(Omega{}))
	require.True(t, IsOmega(Arrow{Source: c("A"), Target: Omega{}}))
	require.False(t, IsOmega(Arrow{Source: Omega{}, Target: c("A")}))
	require.False(t, IsOmega(c("A")))
	require.False(t, IsOmega(Intersect(c("A"), Arrow{Source: c("B"), Target: Omega{}})))
}

func TestEqual(t *testing.T) {
	require.True(t, Equal(nil, nil))
	require.False(t, Equal(c("A"), nil))
	require.True(t, Equal(Constructors("B", "A"), Intersect(c("A"), c("B"))))
	require.False(t, Equal(MultiArrow(c("A"), c("B")), MultiArrow(c("B"), c("A"))))
}

func TestDefaultAlgebra(t *testing.T) {
	alg := DefaultAlgebra
	got := alg.Arrow(alg.Intersect(alg.Constructor("X"), alg.Omega()), alg.Constructor("Y"))
	require.Equal(t, "(X -> Y)", got.String())
}
