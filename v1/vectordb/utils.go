package vectordb

// Expr returns a pointer to s, for use as an explicitly set Filter or
// AnnsField.
//
// Example:
//
//	req := vectordb.QueryRequest{CollectionName: "docs", Filter: vectordb.Expr(`lang == "de"`)}
func Expr(s string) *string {
	return &s
}

// ── FilterSet Constructors ───────────────────────────────────────────────────

// NewFilterSet creates a FilterSet from clause options.
//
// Example:
//
//	vectordb.NewFilterSet(
//	    vectordb.Must(vectordb.NewMatch("status", "published")),
//	    vectordb.Should(vectordb.NewMatch("tag", "ml"), vectordb.NewMatch("tag", "ai")),
//	)
func NewFilterSet(clauses ...func(*FilterSet)) *FilterSet {
	fs := &FilterSet{}
	for _, clause := range clauses {
		clause(fs)
	}
	return fs
}

// Must sets the AND clause.
func Must(conditions ...FilterCondition) func(*FilterSet) {
	return func(fs *FilterSet) {
		fs.Must = &ConditionSet{Conditions: conditions}
	}
}

// Should sets the OR clause.
func Should(conditions ...FilterCondition) func(*FilterSet) {
	return func(fs *FilterSet) {
		fs.Should = &ConditionSet{Conditions: conditions}
	}
}

// MustNot sets the NOT clause.
func MustNot(conditions ...FilterCondition) func(*FilterSet) {
	return func(fs *FilterSet) {
		fs.MustNot = &ConditionSet{Conditions: conditions}
	}
}

// ── Condition Constructors ───────────────────────────────────────────────────

// NewMatch creates an equality condition on a schema field.
func NewMatch(field string, value any) *MatchCondition {
	return &MatchCondition{Field: field, Value: value}
}

// NewDynamicMatch creates an equality condition on a dynamic key.
func NewDynamicMatch(field string, value any) *MatchCondition {
	return &MatchCondition{Field: field, Value: value, FieldType: DynamicField}
}

// NewMatchAny creates an IN condition on a schema field.
func NewMatchAny(field string, values ...any) *MatchAnyCondition {
	return &MatchAnyCondition{Field: field, Values: values}
}

// NewDynamicMatchAny creates an IN condition on a dynamic key.
func NewDynamicMatchAny(field string, values ...any) *MatchAnyCondition {
	return &MatchAnyCondition{Field: field, Values: values, FieldType: DynamicField}
}

// NewMatchExcept creates a NOT IN condition on a schema field.
func NewMatchExcept(field string, values ...any) *MatchExceptCondition {
	return &MatchExceptCondition{Field: field, Values: values}
}

// NewNumericRange creates a range condition on a schema field.
func NewNumericRange(field string, r NumericRange) *NumericRangeCondition {
	return &NumericRangeCondition{Field: field, Range: r}
}

// NewDynamicNumericRange creates a range condition on a dynamic key.
func NewDynamicNumericRange(field string, r NumericRange) *NumericRangeCondition {
	return &NumericRangeCondition{Field: field, Range: r, FieldType: DynamicField}
}

// NewIsNull creates an IS NULL condition on a schema field.
func NewIsNull(field string) *IsNullCondition {
	return &IsNullCondition{Field: field}
}

// NewLike creates a LIKE condition on a schema field.
func NewLike(field, pattern string) *LikeCondition {
	return &LikeCondition{Field: field, Pattern: pattern}
}
