package models

// ============================================================================
// PREDICATE TREE
// ============================================================================

// Junction is the boolean combinator linking a condition to its previous sibling.
type Junction string

const (
	JunctionNone Junction = "NONE"
	JunctionAnd  Junction = "AND"
	JunctionOr   Junction = "OR"
)

// ParseJunction maps "AND"/"OR" keys (any case) to a Junction.
func ParseJunction(key string) (Junction, bool) {
	switch key {
	case "AND", "and", "And":
		return JunctionAnd, true
	case "OR", "or", "Or":
		return JunctionOr, true
	}
	return "", false
}

// ConditionKind tags the Condition variant.
type ConditionKind string

const (
	Comparison ConditionKind = "COMPARISON"
	Raw        ConditionKind = "RAW"
	Group      ConditionKind = "GROUP"
)

// Condition is one node of a WHERE, HAVING or ON tree.
type Condition struct {
	Kind     ConditionKind
	Junction Junction

	// Comparison
	Column        string
	Operator      string // normalised: =, !=, >, IN, NOT_IN, BETWEEN, IS_NULL, ...
	Value         any
	Value2        any   // second BETWEEN bound
	Values        []any // IN list
	ValueIsColumn bool  // Value names a column (ON predicates)

	// Raw
	Fragment string
	Args     []any

	// Group
	Children []Condition
}

// Clone deep-copies the condition.
func (c Condition) Clone() Condition {
	out := c
	if c.Values != nil {
		out.Values = append([]any(nil), c.Values...)
	}
	if c.Args != nil {
		out.Args = append([]any(nil), c.Args...)
	}
	if c.Children != nil {
		out.Children = make([]Condition, len(c.Children))
		for i, child := range c.Children {
			out.Children[i] = child.Clone()
		}
	}
	return out
}

// ConditionTree is an ordered list of sibling conditions. Empty means no filter.
type ConditionTree struct {
	Conditions []Condition
}

// Empty reports whether the tree filters nothing.
func (t ConditionTree) Empty() bool {
	return len(t.Conditions) == 0
}

// Append adds a node. The first node always carries JunctionNone; a later node
// arriving with JunctionNone is joined with AND.
func (t *ConditionTree) Append(c Condition) {
	t.Conditions = append(t.Conditions, NormalizeJunction(c, len(t.Conditions) == 0))
}

// Clone deep-copies the tree.
func (t ConditionTree) Clone() ConditionTree {
	if t.Conditions == nil {
		return ConditionTree{}
	}
	out := make([]Condition, len(t.Conditions))
	for i, c := range t.Conditions {
		out[i] = c.Clone()
	}
	return ConditionTree{Conditions: out}
}

// NormalizeJunction applies the first-sibling invariant to c and, recursively,
// to the children of a group.
func NormalizeJunction(c Condition, first bool) Condition {
	switch {
	case first:
		c.Junction = JunctionNone
	case c.Junction == "" || c.Junction == JunctionNone:
		c.Junction = JunctionAnd
	}
	for i := range c.Children {
		c.Children[i] = NormalizeJunction(c.Children[i], i == 0)
	}
	return c
}
