// Package rules implements the condition evaluator and the requirement
// resolver: the pure decision core that derives per-document required
// status from a record's property bag.
package rules

import (
	"strings"

	"docket/internal/checklist/models"
)

// Evaluate applies a single condition against the property bag.
//
// equals / not_equals compare trimmed values exactly. contains /
// not_contains compare case-insensitively. in resolves the bag value into
// its member items (native list, ";" list, "," list, or the whole value)
// and checks membership by trimmed, whitespace-collapsed equality; an
// absent or empty bag value never matches.
//
// Unknown operators evaluate as satisfied. That permissive default is a
// compatibility hold-over; catalogs reject unknown operators at load time,
// so this branch is only reachable when loading ran with
// WithAllowUnknownOperators.
func Evaluate(cond models.Condition, bag models.PropertyBag) bool {
	switch cond.Operator {
	case models.OpEquals:
		return bag.String(cond.Property) == strings.TrimSpace(cond.Value)
	case models.OpNotEquals:
		return bag.String(cond.Property) != strings.TrimSpace(cond.Value)
	case models.OpContains:
		return containsFold(bag.String(cond.Property), strings.TrimSpace(cond.Value))
	case models.OpNotContains:
		return !containsFold(bag.String(cond.Property), strings.TrimSpace(cond.Value))
	case models.OpIn:
		want := collapseWhitespace(cond.Value)
		for _, item := range bag.Items(cond.Property) {
			if item == want {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// GroupsSatisfied evaluates a condition set as AND-of-ORs: conditions are
// grouped by property name (case-insensitively, matching bag lookup), a
// group is satisfied when any of its conditions matches, and all groups
// must be satisfied. An empty condition set is trivially satisfied.
func GroupsSatisfied(conds []models.Condition, bag models.PropertyBag) bool {
	if len(conds) == 0 {
		return true
	}

	groups := make(map[string][]models.Condition)
	var order []string
	for _, cond := range conds {
		key := strings.ToLower(cond.Property)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], cond)
	}

	for _, key := range order {
		matched := false
		for _, cond := range groups[key] {
			if Evaluate(cond, bag) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
