package executor

import (
	"regexp"
	"strings"

	dberrors "github.com/omniql-engine/flatql/engine/errors"
	"github.com/omniql-engine/flatql/engine/models"
	"github.com/omniql-engine/flatql/mapping"
)

// scope resolves column references while a predicate is evaluated.
type scope interface {
	value(column string) (any, error)
}

// matches folds the conditions left to right: each sibling combines with the
// running result through its junction, short-circuiting once the result is
// settled. There is no precedence between AND and OR.
func (e *Engine) matches(s scope, conditions []models.Condition) (bool, error) {
	if len(conditions) == 0 {
		return true, nil
	}

	result, err := e.evaluateCondition(s, conditions[0])
	if err != nil {
		return false, err
	}

	for i := 1; i < len(conditions); i++ {
		cond := conditions[i]
		if cond.Junction == models.JunctionOr {
			if result {
				continue
			}
		} else if !result {
			continue
		}
		result, err = e.evaluateCondition(s, cond)
		if err != nil {
			return false, err
		}
	}
	return result, nil
}

// checkConditions resolves every column a condition tree names, including
// the right-hand column of a join predicate. Running it before the row loop
// keeps a bad reference from hiding behind a short-circuited sibling.
func checkConditions(conditions []models.Condition, check func(column string) error) error {
	for _, cond := range conditions {
		switch cond.Kind {
		case models.Group:
			if err := checkConditions(cond.Children, check); err != nil {
				return err
			}
		case models.Raw:
			return rawFragment(cond)
		default:
			if err := check(cond.Column); err != nil {
				return err
			}
			if name, ok := cond.Value.(string); ok && cond.ValueIsColumn {
				if err := check(name); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func rawFragment(cond models.Condition) error {
	return dberrors.NewQueryError("executor.where",
		"raw fragment %q cannot be evaluated against flat-file records", cond.Fragment).
		WithHint("express the condition with column/operator/value triples")
}

// evaluateCondition evaluates one node against the scope
func (e *Engine) evaluateCondition(s scope, cond models.Condition) (bool, error) {
	switch cond.Kind {
	case models.Group:
		return e.matches(s, cond.Children)
	case models.Raw:
		return false, rawFragment(cond)
	}

	actual, err := s.value(cond.Column)
	if err != nil {
		return false, err
	}
	operator := cond.Operator
	category := mapping.GetOperatorCategory(operator)

	if category == "NULLCHECK" {
		return matchNullCheck(actual, operator), nil
	}

	// NULL only satisfies the negative set operators
	if actual == nil {
		return operator == "!=" || operator == "NOT_IN", nil
	}

	switch category {
	case "COMPARISON":
		expected := cond.Value
		if cond.ValueIsColumn {
			name, _ := expected.(string)
			if expected, err = s.value(name); err != nil {
				return false, err
			}
			if expected == nil {
				return operator == "!=", nil
			}
		}
		return e.matchComparison(actual, operator, expected)
	case "MULTI_VALUE":
		return matchMultiValue(actual, operator, cond.Values), nil
	case "RANGE":
		return e.matchRange(actual, operator, cond.Value, cond.Value2), nil
	}
	return false, dberrors.NewQueryError("executor.where", "unsupported operator %s", operator)
}

// matchNullCheck handles IS_NULL / IS_NOT_NULL
func matchNullCheck(actual any, operator string) bool {
	if operator == "IS_NULL" {
		return actual == nil
	}
	return actual != nil
}

// matchComparison handles =, !=, >, <, >=, <=, LIKE, ILIKE. Ordering or
// pattern-matching against NULL is never true.
func (e *Engine) matchComparison(actual any, operator string, expected any) (bool, error) {
	if expected == nil && operator != "=" && operator != "!=" {
		return false, nil
	}
	switch operator {
	case "=":
		return models.ValuesEqual(actual, expected), nil
	case "!=":
		return !models.ValuesEqual(actual, expected), nil
	case ">":
		return e.compare(actual, expected) > 0, nil
	case "<":
		return e.compare(actual, expected) < 0, nil
	case ">=":
		return e.compare(actual, expected) >= 0, nil
	case "<=":
		return e.compare(actual, expected) <= 0, nil
	}

	pattern, err := e.likePattern(models.FormatScalar(expected), strings.HasSuffix(operator, "ILIKE"))
	if err != nil {
		return false, err
	}
	found := pattern.MatchString(models.FormatScalar(actual))
	if strings.HasPrefix(operator, "NOT_") {
		return !found, nil
	}
	return found, nil
}

// matchMultiValue handles IN / NOT_IN
func matchMultiValue(actual any, operator string, values []any) bool {
	found := false
	for _, v := range values {
		if models.ValuesEqual(actual, v) {
			found = true
			break
		}
	}
	if operator == "IN" {
		return found
	}
	return !found
}

// matchRange handles BETWEEN / NOT_BETWEEN, bounds inclusive
func (e *Engine) matchRange(actual any, operator string, low, high any) bool {
	if low == nil || high == nil {
		return false
	}
	inRange := e.compare(actual, low) >= 0 && e.compare(actual, high) <= 0
	if operator == "BETWEEN" {
		return inRange
	}
	return !inRange
}

// compare orders two values numerically when both are numeric, otherwise as
// text, through the configured collator when there is one. nil sorts first.
func (e *Engine) compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if aNum, ok := models.ToFloat(a); ok {
		if bNum, ok := models.ToFloat(b); ok {
			switch {
			case aNum < bNum:
				return -1
			case aNum > bNum:
				return 1
			}
			return 0
		}
	}
	as, bs := models.FormatScalar(a), models.FormatScalar(b)
	if e.collator != nil {
		return e.collator.CompareString(as, bs)
	}
	return strings.Compare(as, bs)
}

// likePattern translates a LIKE pattern: % matches any run, _ one character,
// and a backslash escapes the next character.
func (e *Engine) likePattern(pattern string, fold bool) (*regexp.Regexp, error) {
	key := pattern
	if fold {
		key = "(?i)" + pattern
	}
	if re, ok := e.likes[key]; ok {
		return re, nil
	}

	var b strings.Builder
	if fold {
		b.WriteString("(?is)^")
	} else {
		b.WriteString("(?s)^")
	}
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			b.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%':
			b.WriteString(".*")
		case r == '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, dberrors.NewQueryError("executor.like", "bad pattern %q", pattern).WithCause(err)
	}
	e.likes[key] = re
	return re, nil
}
