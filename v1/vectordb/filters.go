package vectordb

import (
	"encoding/json"
	"fmt"
)

// FieldType tells the adapter how to address a filtered field.
type FieldType int

const (
	// SchemaField is a field declared in the collection schema.
	SchemaField FieldType = iota
	// DynamicField is a key stored in the collection's dynamic JSON field.
	DynamicField
)

// FilterCondition is implemented by every condition type in this package.
// Each database adapter renders these into its native filter language.
type FilterCondition interface {
	IsFilterCondition()
}

// FilterSet combines conditions with Must (AND), Should (OR) and MustNot (NOT)
// clauses. The clauses themselves are joined with AND.
//
// Example:
//
//	filters := &FilterSet{
//	    Must: &ConditionSet{
//	        Conditions: []FilterCondition{
//	            NewMatch("lang", "de"),
//	        },
//	    },
//	}
type FilterSet struct {
	Must    *ConditionSet `json:"must,omitempty"`
	Should  *ConditionSet `json:"should,omitempty"`
	MustNot *ConditionSet `json:"mustNot,omitempty"`
}

// ConditionSet holds the conditions of one clause.
type ConditionSet struct {
	Conditions []FilterCondition `json:"conditions,omitempty"`
}

// IsEmpty reports whether the set carries no condition at all.
func (fs *FilterSet) IsEmpty() bool {
	if fs == nil {
		return true
	}
	return fs.Must.len() == 0 && fs.Should.len() == 0 && fs.MustNot.len() == 0
}

func (cs *ConditionSet) len() int {
	if cs == nil {
		return 0
	}
	return len(cs.Conditions)
}

// MatchCondition: field == value. Value is a string, bool, integer or float.
type MatchCondition struct {
	Field     string    `json:"field"`
	Value     any       `json:"equalTo"`
	FieldType FieldType `json:"dynamic,omitempty"`
}

func (c *MatchCondition) IsFilterCondition() {}

// MatchAnyCondition: field in [values...].
type MatchAnyCondition struct {
	Field     string    `json:"field"`
	Values    []any     `json:"anyOf"`
	FieldType FieldType `json:"dynamic,omitempty"`
}

func (c *MatchAnyCondition) IsFilterCondition() {}

// MatchExceptCondition: field not in [values...].
type MatchExceptCondition struct {
	Field     string    `json:"field"`
	Values    []any     `json:"noneOf"`
	FieldType FieldType `json:"dynamic,omitempty"`
}

func (c *MatchExceptCondition) IsFilterCondition() {}

// NumericRange bounds a numeric field. Nil bounds are open.
type NumericRange struct {
	Gt  *float64 `json:"greaterThan,omitempty"`
	Gte *float64 `json:"greaterThanOrEqualTo,omitempty"`
	Lt  *float64 `json:"lessThan,omitempty"`
	Lte *float64 `json:"lessThanOrEqualTo,omitempty"`
}

// NumericRangeCondition filters a numeric field by range.
type NumericRangeCondition struct {
	Field     string       `json:"field"`
	Range     NumericRange `json:"range"`
	FieldType FieldType    `json:"dynamic,omitempty"`
}

func (c *NumericRangeCondition) IsFilterCondition() {}

// IsNullCondition: field is null. Only nullable fields can match.
type IsNullCondition struct {
	Field     string    `json:"isNull"`
	FieldType FieldType `json:"dynamic,omitempty"`
}

func (c *IsNullCondition) IsFilterCondition() {}

// LikeCondition: field like pattern, with % as wildcard.
type LikeCondition struct {
	Field     string    `json:"field"`
	Pattern   string    `json:"like"`
	FieldType FieldType `json:"dynamic,omitempty"`
}

func (c *LikeCondition) IsFilterCondition() {}

// MarshalJSON encodes the conditions as a plain JSON array.
func (cs *ConditionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(cs.Conditions)
}

// UnmarshalJSON picks the concrete condition type from the keys present in
// each array element.
func (cs *ConditionSet) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	cs.Conditions = make([]FilterCondition, 0, len(raw))
	for _, r := range raw {
		cond, err := parseCondition(r)
		if err != nil {
			return err
		}
		cs.Conditions = append(cs.Conditions, cond)
	}
	return nil
}

func parseCondition(data []byte) (FilterCondition, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, err
	}

	var cond FilterCondition
	switch {
	case hasKey(keys, "equalTo"):
		cond = &MatchCondition{}
	case hasKey(keys, "anyOf"):
		cond = &MatchAnyCondition{}
	case hasKey(keys, "noneOf"):
		cond = &MatchExceptCondition{}
	case hasKey(keys, "range"):
		cond = &NumericRangeCondition{}
	case hasKey(keys, "isNull"):
		cond = &IsNullCondition{}
	case hasKey(keys, "like"):
		cond = &LikeCondition{}
	default:
		return nil, fmt.Errorf("vectordb: unknown filter condition: %s", string(data))
	}

	if err := json.Unmarshal(data, cond); err != nil {
		return nil, err
	}
	return cond, nil
}

func hasKey(m map[string]json.RawMessage, key string) bool {
	_, ok := m[key]
	return ok
}
