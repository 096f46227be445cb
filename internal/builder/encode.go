package builder

import (
	"github.com/zjrosen/clsforge/internal/catalog"
	"github.com/zjrosen/clsforge/internal/types"
)

// RoleType is the intersection of the constructors a joint origin lists
// under role. An empty list is ω.
func RoleType(alg types.Algebra, jo catalog.JointOrigin, role catalog.Role) types.Type {
	return constructors(alg, jo.Names(role))
}

// RequiredRoleType is what a filler of jo must provide.
func RequiredRoleType(alg types.Algebra, jo catalog.JointOrigin) types.Type {
	return RoleType(alg, jo, catalog.RoleRequires)
}

// ProvidedRoleType is what jo offers to whatever attaches to it.
func ProvidedRoleType(alg types.Algebra, jo catalog.JointOrigin) types.Type {
	return RoleType(alg, jo, catalog.RoleProvides)
}

func constructors(alg types.Algebra, names []string) types.Type {
	ts := make([]types.Type, len(names))
	for i, n := range names {
		ts[i] = alg.Constructor(n)
	}
	return alg.Intersect(ts...)
}

// MultiArrow folds ts into t0 -> (t1 -> (... -> tn)). The last element is
// the codomain; a single element is returned unchanged.
func MultiArrow(alg types.Algebra, ts []types.Type) types.Type {
	if len(ts) == 0 {
		return alg.Omega()
	}
	result := ts[len(ts)-1]
	for i := len(ts) - 2; i >= 0; i-- {
		result = alg.Arrow(ts[i], result)
	}
	return result
}

// PropagatedOverloads certifies that t is preserved through every argument
// position of an arrow chain of the given length (arguments + codomain).
// For each position x it builds the chain with t at x and at the codomain
// and ω elsewhere, then intersects the chains. With no arguments the
// result is ω.
func PropagatedOverloads(alg types.Algebra, t types.Type, length int) types.Type {
	var chains []types.Type
	for x := 0; x < length-1; x++ {
		chain := make([]types.Type, length)
		for i := range chain {
			chain[i] = alg.Omega()
		}
		chain[x] = t
		chain[length-1] = t
		chains = append(chains, MultiArrow(alg, chain))
	}
	return alg.Intersect(chains...)
}

// ConfigurationType encodes cfg as a curried arrow from the required-role
// types of its required joint origins, in declared order, to the
// provided-role type of its provided joint origin. Each propagated type
// set adds its per-position overloads.
func ConfigurationType(alg types.Algebra, part catalog.PartDescriptor, cfg catalog.Configuration, propagated [][]string) (types.Type, error) {
	chain := make([]types.Type, 0, len(cfg.Requires)+1)
	for _, id := range cfg.Requires {
		jo, err := part.JointOrigin(id)
		if err != nil {
			return nil, err
		}
		chain = append(chain, RequiredRoleType(alg, jo))
	}
	provided, err := part.JointOrigin(cfg.Provides)
	if err != nil {
		return nil, err
	}
	chain = append(chain, ProvidedRoleType(alg, provided))

	primary := MultiArrow(alg, chain)
	if len(propagated) == 0 {
		return primary, nil
	}
	overloads := []types.Type{primary}
	for _, names := range propagated {
		overloads = append(overloads, PropagatedOverloads(alg, constructors(alg, names), len(chain)))
	}
	return alg.Intersect(overloads...), nil
}
