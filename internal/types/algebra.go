package types

// Algebra is the set of type-forming operations the repository builder
// depends on. Implementations may wrap a foreign type representation as
// long as the returned values satisfy Type.
type Algebra interface {
	Constructor(name string) Type
	Arrow(source, target Type) Type
	Intersect(ts ...Type) Type
	Omega() Type
}

// Taxonomy decides subtyping between two types.
type Taxonomy interface {
	IsSubtype(sub, super Type) bool
}

// DefaultAlgebra is the in-process Algebra backed by this package's types.
var DefaultAlgebra Algebra = algebra{}

type algebra struct{}

func (algebra) Constructor(name string) Type   { return Constructor{Name: name} }
func (algebra) Arrow(source, target Type) Type { return Arrow{Source: source, Target: target} }
func (algebra) Intersect(ts ...Type) Type      { return Intersect(ts...) }
func (algebra) Omega() Type                    { return Omega{} }
