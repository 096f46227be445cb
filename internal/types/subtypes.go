package types

import (
	"context"
	"slices"
	"time"

	"github.com/zjrosen/clsforge/internal/cachemanager"
	"github.com/zjrosen/clsforge/internal/log"
)

// Subtypes is a Taxonomy over constructor names. The environment maps a
// constructor name to its direct supertypes; subtyping between names is the
// reflexive-transitive closure of that relation, lifted to arrows
// (contravariant source, covariant target) and intersections.
type Subtypes struct {
	supers   map[string]map[string]struct{}
	verdicts *cachemanager.ReadThroughCache[string, bool, subtypeQuery]
	ttl      time.Duration
}

type subtypeQuery struct {
	sub, super Type
}

// Option configures a Subtypes taxonomy.
type Option func(*Subtypes)

// WithCache memoises IsSubtype verdicts in cache for ttl.
func WithCache(cache cachemanager.CacheManager[string, bool], ttl time.Duration) Option {
	return func(s *Subtypes) {
		s.ttl = ttl
		s.verdicts = cachemanager.NewReadThroughCache[string, bool, subtypeQuery](
			cache,
			func(_ context.Context, q subtypeQuery) (bool, error) {
				return s.check(q.sub, q.super), nil
			},
			false,
		)
	}
}

var _ Taxonomy = (*Subtypes)(nil)

// NewSubtypes builds a taxonomy from env (name -> direct supertypes).
// Cycles are allowed and make the names involved equivalent.
func NewSubtypes(env map[string][]string, opts ...Option) *Subtypes {
	s := &Subtypes{supers: closure(env)}
	for _, opt := range opts {
		opt(s)
	}
	log.Debug(log.CatTypes, "taxonomy built", "names", len(s.supers))
	return s
}

func closure(env map[string][]string) map[string]map[string]struct{} {
	result := make(map[string]map[string]struct{}, len(env))
	for name := range env {
		reached := make(map[string]struct{})
		stack := slices.Clone(env[name])
		for len(stack) > 0 {
			next := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if _, done := reached[next]; done {
				continue
			}
			reached[next] = struct{}{}
			stack = append(stack, env[next]...)
		}
		result[name] = reached
	}
	return result
}

// Supertypes returns the sorted strict and inherited supertypes of name.
func (s *Subtypes) Supertypes(name string) []string {
	out := make([]string, 0, len(s.supers[name]))
	for n := range s.supers[name] {
		if n != name {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return out
}

// IsSubtype reports whether sub <= super.
func (s *Subtypes) IsSubtype(sub, super Type) bool {
	if s.verdicts == nil {
		return s.check(sub, super)
	}
	key := Key(sub) + "<=" + Key(super)
	ok, _ := s.verdicts.Get(context.Background(), key, subtypeQuery{sub: sub, super: super}, s.ttl)
	return ok
}

// CacheStats reports verdict cache lookups. It is zero without WithCache.
func (s *Subtypes) CacheStats() cachemanager.Stats {
	if s.verdicts == nil {
		return cachemanager.Stats{}
	}
	return s.verdicts.Stats()
}

func (s *Subtypes) nameLE(sub, super string) bool {
	if sub == super {
		return true
	}
	_, ok := s.supers[sub][super]
	return ok
}

func (s *Subtypes) check(sub, super Type) bool {
	switch sp := super.(type) {
	case Omega:
		return true
	case Intersection:
		for _, m := range sp.Members {
			if !s.check(sub, m) {
				return false
			}
		}
		return true
	case Constructor:
		for _, m := range members(sub) {
			if c, ok := m.(Constructor); ok && s.nameLE(c.Name, sp.Name) {
				return true
			}
		}
		return false
	case Arrow:
		if IsOmega(sp.Target) {
			return true
		}
		// Collect the targets of every arrow in sub whose source accepts
		// sp.Source; their intersection must be below sp.Target.
		var targets []Type
		for _, m := range members(sub) {
			if a, ok := m.(Arrow); ok && s.check(sp.Source, a.Source) {
				targets = append(targets, a.Target)
			}
		}
		if len(targets) == 0 {
			return false
		}
		return s.check(Intersect(targets...), sp.Target)
	default:
		return false
	}
}
