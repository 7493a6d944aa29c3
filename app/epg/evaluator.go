package epg

import (
	"sort"
	"strconv"
	"strings"

	"github.com/bittles/teamarr/app/teams"
)

// Evaluator selects the winning template for a description slot by evaluating
// the slot's condition rules against a resolved context. Evaluation is total:
// missing variables compare as empty strings and malformed comparisons are
// simply false, never errors.
type Evaluator struct{}

func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// SelectTemplate evaluates a slot's rules and returns the chosen template.
// Rules run in ascending priority order (declaration order within a priority).
// When no satisfied rule carries a score the first match wins; when any does,
// the highest-scoring match wins and earlier declaration breaks ties. With no
// match at all the config's default template for the slot is returned.
func (e *Evaluator) SelectTemplate(cfg *teams.Config, slot string, ctx TemplateContext) string {
	rules := cfg.SlotRules(slot)
	if len(rules) == 0 {
		return cfg.DefaultTemplate(slot)
	}

	ordered := make([]teams.Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	var matches []teams.Rule
	scored := false
	for _, rule := range ordered {
		if e.Matches(rule.When, ctx) {
			matches = append(matches, rule)
			if rule.Score != 0 {
				scored = true
			}
		}
	}
	if len(matches) == 0 {
		return cfg.DefaultTemplate(slot)
	}
	if !scored {
		return matches[0].Template
	}

	best := matches[0]
	for _, rule := range matches[1:] {
		if rule.Score > best.Score {
			best = rule
		}
	}
	return best.Template
}

// Matches reports whether a condition holds against the context. An empty
// condition is always true. Unknown operators never match.
func (e *Evaluator) Matches(cond teams.Condition, ctx TemplateContext) bool {
	switch {
	case cond.IsEmpty():
		return true
	case len(cond.All) > 0:
		for _, sub := range cond.All {
			if !e.Matches(sub, ctx) {
				return false
			}
		}
		return true
	case len(cond.Any) > 0:
		for _, sub := range cond.Any {
			if e.Matches(sub, ctx) {
				return true
			}
		}
		return false
	default:
		return e.matchesLeaf(cond, ctx)
	}
}

func (e *Evaluator) matchesLeaf(cond teams.Condition, ctx TemplateContext) bool {
	actual := ctx[cond.Var]

	switch cond.Op {
	case teams.OpEq:
		return compareValues(actual, cond.Value) == 0
	case teams.OpNe:
		return compareValues(actual, cond.Value) != 0
	case teams.OpContains:
		return strings.Contains(strings.ToLower(actual), strings.ToLower(cond.Value))
	case teams.OpGt, teams.OpGte, teams.OpLt, teams.OpLte:
		left, right, ok := numericPair(actual, cond.Value)
		if !ok {
			return false
		}
		switch cond.Op {
		case teams.OpGt:
			return left > right
		case teams.OpGte:
			return left >= right
		case teams.OpLt:
			return left < right
		default:
			return left <= right
		}
	default:
		return false
	}
}

// compareValues compares numerically when both sides parse as numbers, else as
// case-insensitive strings. Returns -1, 0 or 1.
func compareValues(a, b string) int {
	if left, right, ok := numericPair(a, b); ok {
		switch {
		case left < right:
			return -1
		case left > right:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func numericPair(a, b string) (float64, float64, bool) {
	left, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	right, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if errA != nil || errB != nil {
		return 0, 0, false
	}
	return left, right, true
}
