package milvus

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Aleph-Alpha/milvus-adapter/v1/vectordb"
	"github.com/milvus-io/milvus-proto/go-api/v2/schemapb"
)

// IDExpr renders a primary key filter of the form `pk in [1, 2, 3]`.
//
// Integer primary keys accept any Go or vectordb integer; VarChar primary
// keys accept strings, which are quoted. Mixed or mismatched ids yield
// ErrInvalidRequest. An empty list renders `pk in []`.
func IDExpr(pk FieldDescriptor, ids []any) (string, error) {
	parts := make([]string, len(ids))
	for i, id := range ids {
		switch pk.DataType {
		case schemapb.DataType_Int64:
			n, ok := asInt64(id)
			if !ok {
				return "", invalidRequestf("id %d (%v) is not an integer but primary key '%s' is Int64", i, id, pk.Name)
			}
			parts[i] = strconv.FormatInt(n, 10)
		case schemapb.DataType_VarChar, schemapb.DataType_String:
			s, ok := asString(id)
			if !ok {
				return "", invalidRequestf("id %d (%v) is not a string but primary key '%s' is VarChar", i, id, pk.Name)
			}
			parts[i] = strconv.Quote(s)
		default:
			return "", schemaErrorf("primary key '%s' has unsupported type %s", pk.Name, pk.DataType.String())
		}
	}
	return pk.Name + " in [" + strings.Join(parts, ", ") + "]", nil
}

// resolveFilter picks the filter expression of a request. An explicit
// expression wins over a structured filter set, and both over ids. The
// second result reports whether any filter was set at all.
func resolveFilter(schema *CollectionSchema, expr *string, filters *vectordb.FilterSet, ids []any) (string, bool, error) {
	switch {
	case expr != nil:
		return *expr, true, nil
	case !filters.IsEmpty():
		s, err := FilterExpr(schema, filters)
		if err != nil {
			return "", false, err
		}
		return s, true, nil
	case ids != nil:
		s, err := IDExpr(schema.PrimaryField(), ids)
		if err != nil {
			return "", false, err
		}
		return s, true, nil
	}
	return "", false, nil
}

// FilterExpr renders a structured filter set into a boolean expression.
// Clauses are joined with "and"; Should conditions are or-ed, MustNot
// conditions are each negated.
//
// Conditions on schema fields must name a declared field. Conditions on
// dynamic keys address the collection's dynamic JSON field and require it to
// be enabled.
//
// Example:
//
//	expr, _ := milvus.FilterExpr(schema, vectordb.NewFilterSet(
//	    vectordb.Must(vectordb.NewMatch("lang", "de")),
//	    vectordb.MustNot(vectordb.NewIsNull("title")),
//	))
//	// (lang == "de") and not (title is null)
func FilterExpr(schema *CollectionSchema, fs *vectordb.FilterSet) (string, error) {
	if fs.IsEmpty() {
		return "", nil
	}

	var clauses []string

	if fs.Must != nil {
		for _, c := range fs.Must.Conditions {
			s, err := conditionExpr(schema, c)
			if err != nil {
				return "", err
			}
			clauses = append(clauses, "("+s+")")
		}
	}

	if fs.Should != nil && len(fs.Should.Conditions) > 0 {
		parts := make([]string, 0, len(fs.Should.Conditions))
		for _, c := range fs.Should.Conditions {
			s, err := conditionExpr(schema, c)
			if err != nil {
				return "", err
			}
			parts = append(parts, "("+s+")")
		}
		if len(parts) == 1 {
			clauses = append(clauses, parts[0])
		} else {
			clauses = append(clauses, "("+strings.Join(parts, " or ")+")")
		}
	}

	if fs.MustNot != nil {
		for _, c := range fs.MustNot.Conditions {
			s, err := conditionExpr(schema, c)
			if err != nil {
				return "", err
			}
			clauses = append(clauses, "not ("+s+")")
		}
	}

	return strings.Join(clauses, " and "), nil
}

func conditionExpr(schema *CollectionSchema, c vectordb.FilterCondition) (string, error) {
	switch cond := c.(type) {
	case *vectordb.MatchCondition:
		key, err := fieldRef(schema, cond.Field, cond.FieldType)
		if err != nil {
			return "", err
		}
		lit, err := literal(cond.Value)
		if err != nil {
			return "", err
		}
		return key + " == " + lit, nil

	case *vectordb.MatchAnyCondition:
		key, err := fieldRef(schema, cond.Field, cond.FieldType)
		if err != nil {
			return "", err
		}
		list, err := literalList(cond.Values)
		if err != nil {
			return "", err
		}
		return key + " in " + list, nil

	case *vectordb.MatchExceptCondition:
		key, err := fieldRef(schema, cond.Field, cond.FieldType)
		if err != nil {
			return "", err
		}
		list, err := literalList(cond.Values)
		if err != nil {
			return "", err
		}
		return key + " not in " + list, nil

	case *vectordb.NumericRangeCondition:
		key, err := fieldRef(schema, cond.Field, cond.FieldType)
		if err != nil {
			return "", err
		}
		return rangeExpr(key, cond.Range)

	case *vectordb.IsNullCondition:
		key, err := fieldRef(schema, cond.Field, cond.FieldType)
		if err != nil {
			return "", err
		}
		return key + " is null", nil

	case *vectordb.LikeCondition:
		key, err := fieldRef(schema, cond.Field, cond.FieldType)
		if err != nil {
			return "", err
		}
		return key + " like " + strconv.Quote(cond.Pattern), nil

	case nil:
		return "", invalidRequestf("nil filter condition")
	}
	return "", invalidRequestf("unsupported filter condition %T", c)
}

func fieldRef(schema *CollectionSchema, name string, ft vectordb.FieldType) (string, error) {
	if name == "" {
		return "", invalidRequestf("filter condition without field name")
	}
	if ft == vectordb.DynamicField {
		if schema.DynamicFieldName() == "" {
			return "", invalidRequestf("collection '%s' has no dynamic field for key '%s'", schema.Name(), name)
		}
		return schema.DynamicFieldName() + "[" + strconv.Quote(name) + "]", nil
	}
	if _, ok := schema.Field(name); !ok {
		return "", invalidRequestf("filter field '%s' is not in collection '%s'", name, schema.Name())
	}
	return name, nil
}

func rangeExpr(key string, r vectordb.NumericRange) (string, error) {
	var parts []string
	bound := func(op string, v *float64) {
		if v != nil {
			parts = append(parts, key+" "+op+" "+formatFloat(*v))
		}
	}
	bound(">", r.Gt)
	bound(">=", r.Gte)
	bound("<", r.Lt)
	bound("<=", r.Lte)

	if len(parts) == 0 {
		return "", invalidRequestf("range on '%s' has no bound", key)
	}
	return strings.Join(parts, " and "), nil
}

func literalList(values []any) (string, error) {
	parts := make([]string, len(values))
	for i, v := range values {
		lit, err := literal(v)
		if err != nil {
			return "", err
		}
		parts[i] = lit
	}
	return "[" + strings.Join(parts, ", ") + "]", nil
}

// literal renders a scalar as an expression literal.
func literal(v any) (string, error) {
	if s, ok := asString(v); ok {
		return strconv.Quote(s), nil
	}
	if n, ok := asInt64(v); ok {
		return strconv.FormatInt(n, 10), nil
	}
	switch x := v.(type) {
	case bool:
		return strconv.FormatBool(x), nil
	case vectordb.Bool:
		return strconv.FormatBool(bool(x)), nil
	case float32:
		return formatFloat(float64(x)), nil
	case float64:
		return formatFloat(x), nil
	case vectordb.Float:
		return formatFloat(float64(x)), nil
	case vectordb.Double:
		return formatFloat(float64(x)), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return "", invalidRequestf("invalid number %q", x.String())
		}
		return formatFloat(f), nil
	}
	return "", invalidRequestf("unsupported filter value %v (%T)", v, v)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func asString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case vectordb.String:
		return string(x), true
	}
	return "", false
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint:
		if uint64(x) > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case vectordb.Int8:
		return int64(x), true
	case vectordb.Int16:
		return int64(x), true
	case vectordb.Int32:
		return int64(x), true
	case vectordb.Int64:
		return int64(x), true
	case json.Number:
		n, err := x.Int64()
		return n, err == nil
	}
	return 0, false
}

const maxDescribedExpr = 256

// describeExpr shortens an expression for log fields. The cut never splits
// a UTF-8 sequence.
func describeExpr(expr string) string {
	if len(expr) <= maxDescribedExpr {
		return expr
	}
	cut := maxDescribedExpr
	for cut > 0 && !utf8.RuneStart(expr[cut]) {
		cut--
	}
	return fmt.Sprintf("%s... (%d bytes)", expr[:cut], len(expr))
}
