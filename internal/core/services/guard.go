package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/policy-store/internal/core/domain"
)

// ExistsFunc reports whether an artifact is stored.
type ExistsFunc func(ctx context.Context, loc domain.Location) (bool, error)

// Rule is one cross-artifact precondition. Check is called only for
// writes whose artifact kind is Target, with the record lock held.
type Rule struct {
	// Name identifies the rule in errors.
	Name string

	// Target is the artifact kind whose writes the rule guards.
	Target domain.ArtifactKind

	// Check returns nil to allow the write.
	Check func(ctx context.Context, target domain.Location, exists ExistsFunc) error
}

// Guard evaluates cross-artifact rules before mutating writes.
// It is stateless apart from its rule list.
type Guard struct {
	rules  []Rule
	exists ExistsFunc
}

// NewGuard returns a guard with the default rules.
func NewGuard(exists ExistsFunc) *Guard {
	return &Guard{
		rules:  DefaultRules(),
		exists: exists,
	}
}

// DefaultRules returns the rules every store enforces.
func DefaultRules() []Rule {
	return []Rule{
		writeOnce(domain.ArtifactSource),
		writeOnce(domain.ArtifactReport),
		requires(domain.ArtifactIndex, domain.ArtifactSegments),
	}
}

// With returns a copy of the guard with an extra rule appended.
func (g *Guard) With(rule Rule) *Guard {
	rules := make([]Rule, len(g.rules), len(g.rules)+1)
	copy(rules, g.rules)
	return &Guard{rules: append(rules, rule), exists: g.exists}
}

// Rules returns the names of the active rules in evaluation order.
func (g *Guard) Rules() []string {
	names := make([]string, len(g.rules))
	for i, r := range g.rules {
		names[i] = r.Name
	}
	return names
}

// Check runs every rule targeting loc.Kind and returns the first failure.
func (g *Guard) Check(ctx context.Context, loc domain.Location) error {
	for _, r := range g.rules {
		if r.Target != loc.Kind {
			continue
		}
		if err := r.Check(ctx, loc, g.exists); err != nil {
			return err
		}
	}
	return nil
}

// writeOnce rejects a write if the artifact is already stored.
func writeOnce(kind domain.ArtifactKind) Rule {
	return Rule{
		Name:   kind.String() + "-write-once",
		Target: kind,
		Check: func(ctx context.Context, target domain.Location, exists ExistsFunc) error {
			ok, err := exists(ctx, target)
			if err != nil {
				return err
			}
			if ok {
				return fmt.Errorf("%w: %s is write-once", domain.ErrAlreadyExists, kind)
			}
			return nil
		},
	}
}

// requires rejects a write unless a sibling artifact of the same record exists.
func requires(kind, dependency domain.ArtifactKind) Rule {
	return Rule{
		Name:   kind.String() + "-requires-" + dependency.String(),
		Target: kind,
		Check: func(ctx context.Context, target domain.Location, exists ExistsFunc) error {
			dep, err := domain.Resolve(target.Namespace, target.ID, dependency)
			if err != nil {
				return err
			}
			ok, err := exists(ctx, dep)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s requires %s", domain.ErrPreconditionFailed, kind, dependency)
			}
			return nil
		},
	}
}
