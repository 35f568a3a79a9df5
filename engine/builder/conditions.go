package builder

import (
	"fmt"
	"reflect"

	"github.com/omniql-engine/flatql/engine/dialect"
	dberrors "github.com/omniql-engine/flatql/engine/errors"
	"github.com/omniql-engine/flatql/engine/lexer"
	"github.com/omniql-engine/flatql/engine/models"
	"github.com/omniql-engine/flatql/mapping"
)

// ============================================================================
// INPUT SHAPES
// ============================================================================
//
// where/andWhere/orWhere (and the having and on families) accept:
//
//	("age", ">", 30)                      three scalars: one comparison
//	("age", 30)                           two scalars: implied "="
//	(models.Condition{...})               a prebuilt node
//	([]any{"age", ">", 30})               depth 1: one comparison
//	([]any{[]any{...}, []any{...}})       depth 2: one AND-group
//	([]any{[]any{"AND", [...]}, ...})     depth >= 3: nested groups
//
// A slice whose first element is a column name counts as one level no matter
// what its value holds, so IN lists never deepen the input. In the nested
// form every element becomes its own node with the junction named by its
// "AND"/"OR" key; unkeyed elements, at any depth, take the calling method's
// junction.

const nestedDepth = 3

func parseConditionArgs(op string, args []any, def models.Junction, valueIsColumn bool) ([]models.Condition, error) {
	switch len(args) {
	case 0:
		return nil, dberrors.NewQueryError(op, "missing condition")
	case 1:
		if c, ok := args[0].(models.Condition); ok {
			if c.Junction == "" {
				c.Junction = def
			}
			return []models.Condition{c}, nil
		}
		list, ok := toList(args[0])
		if !ok {
			return nil, dberrors.NewQueryError(op, "condition must be a list, got %T", args[0])
		}
		return parseList(op, list, def, valueIsColumn)
	default:
		c, err := parseTriple(op, args, def, valueIsColumn)
		if err != nil {
			return nil, err
		}
		return []models.Condition{c}, nil
	}
}

func parseList(op string, list []any, def models.Junction, valueIsColumn bool) ([]models.Condition, error) {
	depth := depthOf(list)
	switch {
	case depth == 1:
		c, err := parseTriple(op, list, def, valueIsColumn)
		if err != nil {
			return nil, err
		}
		return []models.Condition{c}, nil

	case depth == 2:
		if key, ok := list[0].(string); ok {
			if _, isKey := models.ParseJunction(key); isKey {
				c, err := parseElement(op, list, def, valueIsColumn)
				if err != nil {
					return nil, err
				}
				return []models.Condition{c}, nil
			}
		}
		children := make([]models.Condition, 0, len(list))
		for _, item := range list {
			triple, ok := toList(item)
			if !ok || !isTriple(triple) {
				return nil, dberrors.NewQueryError(op, "expected a list of [column, operator, value] triples")
			}
			c, err := parseTriple(op, triple, models.JunctionAnd, valueIsColumn)
			if err != nil {
				return nil, err
			}
			children = append(children, c)
		}
		return []models.Condition{groupOf(children, def)}, nil

	case depth >= nestedDepth:
		nodes := make([]models.Condition, 0, len(list))
		for _, item := range list {
			elem, ok := toList(item)
			if !ok {
				return nil, dberrors.NewQueryError(op, "nested condition element must be a list, got %T", item)
			}
			c, err := parseElement(op, elem, def, valueIsColumn)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, c)
		}
		return nodes, nil
	}
	return nil, dberrors.NewQueryError(op, "empty condition list")
}

// parseElement handles one element of the nested form: ["AND", payload],
// ["OR", col, op, val] or an unkeyed payload.
func parseElement(op string, elem []any, def models.Junction, valueIsColumn bool) (models.Condition, error) {
	junction := def
	payload := elem
	if len(elem) > 0 {
		if key, ok := elem[0].(string); ok {
			if j, isKey := models.ParseJunction(key); isKey {
				junction = j
				payload = elem[1:]
				if len(payload) == 1 {
					inner, ok := toList(payload[0])
					if !ok {
						return models.Condition{}, dberrors.NewQueryError(op, "%s must be followed by a condition list", key)
					}
					payload = inner
				}
			}
		}
	}
	if len(payload) == 0 {
		return models.Condition{}, dberrors.NewQueryError(op, "empty nested condition")
	}

	if isTriple(payload) {
		return parseTriple(op, payload, junction, valueIsColumn)
	}

	children := make([]models.Condition, 0, len(payload))
	for _, item := range payload {
		child, ok := toList(item)
		if !ok {
			return models.Condition{}, dberrors.NewQueryError(op, "nested condition element must be a list, got %T", item)
		}
		c, err := parseElement(op, child, def, valueIsColumn)
		if err != nil {
			return models.Condition{}, err
		}
		children = append(children, c)
	}
	return groupOf(children, junction), nil
}

// parseTriple turns [column, operator, value] (or [column, value], or
// [column, BETWEEN, low, high]) into a comparison node.
func parseTriple(op string, t []any, junction models.Junction, valueIsColumn bool) (models.Condition, error) {
	column, ok := t[0].(string)
	if !ok || column == "" {
		return models.Condition{}, dberrors.NewQueryError(op, "condition column must be a non-empty string, got %v", t[0])
	}
	c := models.Condition{Kind: models.Comparison, Junction: junction, Column: column, ValueIsColumn: valueIsColumn}

	var operator string
	var operands []any
	switch len(t) {
	case 2:
		if s, isStr := t[1].(string); isStr {
			if norm, known := mapping.NormalizeOperator(s); known && mapping.GetOperatorCategory(norm) == "NULLCHECK" {
				operator = s
				break
			}
		}
		operator, operands = "=", t[1:]
	case 3, 4:
		s, isStr := t[1].(string)
		if !isStr {
			return c, dberrors.NewQueryError(op, "operator must be a string, got %T", t[1])
		}
		operator, operands = s, t[2:]
	default:
		return c, dberrors.NewQueryError(op, "condition %v has %d elements, expected 2 to 4", t, len(t))
	}

	norm, known := mapping.NormalizeOperator(operator)
	if !known {
		err := dberrors.NewQueryError(op, "unknown operator %q", operator)
		if suggestion := lexer.SuggestSimilar(operator); suggestion != "" {
			err = err.WithHint(fmt.Sprintf("did you mean %s?", suggestion))
		}
		return c, err
	}
	c.Operator = norm

	switch mapping.GetOperatorCategory(norm) {
	case "NULLCHECK":
		if len(operands) > 1 {
			return c, dberrors.NewQueryError(op, "%s takes no value", norm)
		}
	case "MULTI_VALUE":
		if len(operands) != 1 {
			return c, dberrors.NewQueryError(op, "%s takes one list of values", norm)
		}
		if list, isList := toList(operands[0]); isList {
			c.Values = normalizeAll(list)
		} else {
			c.Values = []any{models.NormalizeValue(operands[0])}
		}
	case "RANGE":
		bounds := operands
		if len(operands) == 1 {
			if list, isList := toList(operands[0]); isList {
				bounds = list
			}
		}
		if len(bounds) != 2 {
			return c, dberrors.NewQueryError(op, "%s takes exactly two bounds", norm)
		}
		c.Value = models.NormalizeValue(bounds[0])
		c.Value2 = models.NormalizeValue(bounds[1])
	default:
		if len(operands) != 1 {
			return c, dberrors.NewQueryError(op, "%s takes exactly one value", norm)
		}
		c.Value = models.NormalizeValue(operands[0])
		if c.Value == nil && !valueIsColumn {
			switch norm {
			case "=":
				c.Operator = "IS_NULL"
			case "!=":
				c.Operator = "IS_NOT_NULL"
			}
		}
	}

	if valueIsColumn {
		if _, isStr := c.Value.(string); !isStr && mapping.GetOperatorCategory(c.Operator) == "COMPARISON" {
			return c, dberrors.NewQueryError(op, "join predicate must compare two columns")
		}
	}
	return c, nil
}

func rawCondition(op, fragment string, args []any, junction models.Junction) (models.Condition, error) {
	if fragment == "" {
		return models.Condition{}, dberrors.NewQueryError(op, "empty raw fragment")
	}
	if n := dialect.CountPlaceholders(fragment); n != len(args) {
		return models.Condition{}, dberrors.NewQueryError(op, "fragment has %d placeholders but %d values", n, len(args))
	}
	return models.Condition{
		Kind:     models.Raw,
		Junction: junction,
		Fragment: fragment,
		Args:     normalizeAll(args),
	}, nil
}

// ============================================================================
// HELPERS
// ============================================================================

func groupOf(children []models.Condition, junction models.Junction) models.Condition {
	if len(children) == 1 {
		c := children[0]
		c.Junction = junction
		return c
	}
	return models.Condition{Kind: models.Group, Junction: junction, Children: children}
}

// depthOf measures list nesting. A list that starts with a column name is a
// single level.
func depthOf(list []any) int {
	if len(list) == 0 {
		return 0
	}
	if isTriple(list) {
		return 1
	}
	start := 0
	if key, ok := list[0].(string); ok {
		if _, isKey := models.ParseJunction(key); isKey {
			start = 1
		}
	}
	max := 0
	for _, item := range list[start:] {
		if inner, ok := toList(item); ok {
			if d := depthOf(inner); d > max {
				max = d
			}
		}
	}
	return max + 1
}

// isTriple reports whether list starts with a column name rather than a
// junction key or a nested list.
func isTriple(list []any) bool {
	if len(list) == 0 {
		return false
	}
	s, ok := list[0].(string)
	if !ok {
		return false
	}
	_, isKey := models.ParseJunction(s)
	return !isKey
}

// toList converts any slice or array (except []byte) to []any.
func toList(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case []byte, string, nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func normalizeAll(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = models.NormalizeValue(v)
	}
	return out
}
