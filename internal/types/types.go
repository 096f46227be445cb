// Package types implements the intersection type algebra consumed by the
// combinatory logic synthesis engine: named constructors, arrows,
// intersections and the top type ω.
//
// Types are immutable values. Two types are equal when their structural
// keys are equal; Intersect normalises its members (flattened,
// deduplicated, ω removed, sorted) so that equal sets render identically.
package types

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// ErrInvalidTypeName is returned for constructor names that are empty or
// contain characters used by the type rendering.
var ErrInvalidTypeName = errors.New("invalid type name")

// ValidateName checks that name can be a Constructor. Parentheses, '&',
// '<', '>', "ω" and whitespace are reserved so that a name never renders
// like a compound type.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidTypeName)
	}
	for _, r := range name {
		if unicode.IsSpace(r) || strings.ContainsRune("()&<>ω", r) {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidTypeName, name, r)
		}
	}
	return nil
}

// ValidateNames runs ValidateName on every name.
func ValidateNames(names ...string) error {
	for _, n := range names {
		if err := ValidateName(n); err != nil {
			return err
		}
	}
	return nil
}

// Type is a member of the type algebra.
type Type interface {
	// String returns the canonical rendering of the type.
	String() string
	isType()
}

// Constructor is a named atomic type, e.g. a capability name.
type Constructor struct {
	Name string
}

// Arrow is the function type Source -> Target.
type Arrow struct {
	Source Type
	Target Type
}

// Intersection is a type inhabited by values inhabiting all of Members.
// Build intersections with Intersect so the member list stays normalised.
type Intersection struct {
	Members []Type
}

// Omega is the top type. Every type is a subtype of Omega.
type Omega struct{}

func (Constructor) isType()          {}
func (Arrow) isType()                {}
func (Intersection) isType()         {}
func (Omega) isType()                {}
func (c Constructor) String() string { return c.Name }
func (Omega) String() string         { return "ω" }

func (a Arrow) String() string {
	return "(" + a.Source.String() + " -> " + a.Target.String() + ")"
}

func (i Intersection) String() string {
	parts := make([]string, len(i.Members))
	for k, m := range i.Members {
		parts[k] = m.String()
	}
	return "(" + strings.Join(parts, " & ") + ")"
}

// Equal reports whether a and b have the same structure.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return Key(a) == Key(b)
}

// Key is an unambiguous encoding of t: constructor names are length
// prefixed, so no name can collide with a compound type whatever it
// contains. Use it wherever a type identifies something.
func Key(t Type) string {
	var b strings.Builder
	writeKey(&b, t)
	return b.String()
}

func writeKey(b *strings.Builder, t Type) {
	switch v := t.(type) {
	case Constructor:
		b.WriteByte('C')
		b.WriteString(strconv.Itoa(len(v.Name)))
		b.WriteByte(':')
		b.WriteString(v.Name)
	case Arrow:
		b.WriteByte('A')
		writeKey(b, v.Source)
		writeKey(b, v.Target)
	case Intersection:
		b.WriteByte('I')
		b.WriteString(strconv.Itoa(len(v.Members)))
		b.WriteByte(':')
		for _, m := range v.Members {
			writeKey(b, m)
		}
	case Omega:
		b.WriteByte('W')
	default:
		b.WriteByte('?')
	}
}

// Intersect builds the normalised intersection of ts. Nested intersections
// are flattened, ω members and duplicates are dropped and the remaining
// members are ordered by their canonical string. An empty result is ω and
// a single member is returned unwrapped.
func Intersect(ts ...Type) Type {
	seen := make(map[string]struct{}, len(ts))
	members := make([]Type, 0, len(ts))

	var add func(t Type)
	add = func(t Type) {
		switch v := t.(type) {
		case nil, Omega:
			return
		case Intersection:
			for _, m := range v.Members {
				add(m)
			}
		default:
			key := Key(v)
			if _, dup := seen[key]; dup {
				return
			}
			seen[key] = struct{}{}
			members = append(members, v)
		}
	}
	for _, t := range ts {
		add(t)
	}

	switch len(members) {
	case 0:
		return Omega{}
	case 1:
		return members[0]
	}
	slices.SortFunc(members, func(a, b Type) int {
		if c := strings.Compare(a.String(), b.String()); c != 0 {
			return c
		}
		return strings.Compare(Key(a), Key(b))
	})
	return Intersection{Members: members}
}

// Constructors returns the intersection of one Constructor per name.
// An empty name list yields ω.
func Constructors(names ...string) Type {
	ts := make([]Type, len(names))
	for i, n := range names {
		ts[i] = Constructor{Name: n}
	}
	return Intersect(ts...)
}

// MultiArrow folds ts into a right-associated arrow chain:
// [a, b, c] becomes a -> (b -> c). The last element is the codomain.
// A single element is returned as-is; an empty list yields ω.
func MultiArrow(ts ...Type) Type {
	if len(ts) == 0 {
		return Omega{}
	}
	result := ts[len(ts)-1]
	for i := len(ts) - 2; i >= 0; i-- {
		result = Arrow{Source: ts[i], Target: result}
	}
	return result
}

// IsOmega reports whether t is equivalent to ω: ω itself, an arrow into
// an ω-equivalent type, or an intersection of ω-equivalent types.
func IsOmega(t Type) bool {
	switch v := t.(type) {
	case Omega:
		return true
	case Arrow:
		return IsOmega(v.Target)
	case Intersection:
		for _, m := range v.Members {
			if !IsOmega(m) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// members lists the conjuncts of t; ω has none.
func members(t Type) []Type {
	switch v := t.(type) {
	case Omega:
		return nil
	case Intersection:
		return v.Members
	default:
		return []Type{t}
	}
}
