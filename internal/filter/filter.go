// Package filter implements the OrderFilter AST (spec.md §9 REDESIGN
// FLAGS): a tagged-union predicate tree replacing a virtual-dispatch
// hierarchy of per-field filter leaf classes. One sum type — Predicate —
// with one struct per variant (Equal, InSet, Less, Greater, InRange,
// Match, And); evaluation is a type switch, not virtual dispatch.
package filter

import (
	"regexp"

	"github.com/coplib/orderengine/internal/model"
)

// Field is the closed set of order attributes a predicate can test.
type Field int

const (
	FieldInvalid Field = iota
	FieldInstrumentID
	FieldAccountID
	FieldClearingID
	FieldSide
	FieldOrderType
	FieldStatus
	FieldCurrency
	FieldPrice
	FieldQty
	FieldClOrderID
	FieldDate
)

// Predicate is the common interface every filter AST node implements.
type Predicate interface {
	Eval(o *model.Order) bool
}

// Equal matches when the field's value equals Value.
type Equal struct {
	Field Field
	Value any
}

// InSet matches when the field's value is one of Values.
type InSet struct {
	Field  Field
	Values []any
}

// Less matches when the field's value orders strictly before Value.
type Less struct {
	Field Field
	Value any
}

// Greater matches when the field's value orders strictly after Value.
type Greater struct {
	Field Field
	Value any
}

// InRange matches when Lo <= field value <= Hi.
type InRange struct {
	Field  Field
	Lo, Hi any
}

// Match matches when the field's string value satisfies Re.
type Match struct {
	Field Field
	Re    *regexp.Regexp
}

// And matches when every child matches. An empty And matches everything,
// which lets the zero-value conjunction serve as "no filter".
type And struct {
	Children []Predicate
}

func (p Equal) Eval(o *model.Order) bool {
	v, ok := fieldValue(o, p.Field)
	return ok && compare(v, p.Value) == 0
}

func (p InSet) Eval(o *model.Order) bool {
	v, ok := fieldValue(o, p.Field)
	if !ok {
		return false
	}
	for _, want := range p.Values {
		if compare(v, want) == 0 {
			return true
		}
	}
	return false
}

func (p Less) Eval(o *model.Order) bool {
	v, ok := fieldValue(o, p.Field)
	return ok && compare(v, p.Value) < 0
}

func (p Greater) Eval(o *model.Order) bool {
	v, ok := fieldValue(o, p.Field)
	return ok && compare(v, p.Value) > 0
}

func (p InRange) Eval(o *model.Order) bool {
	v, ok := fieldValue(o, p.Field)
	return ok && compare(v, p.Lo) >= 0 && compare(v, p.Hi) <= 0
}

func (p Match) Eval(o *model.Order) bool {
	v, ok := fieldValue(o, p.Field)
	if !ok {
		return false
	}
	s, ok := v.(string)
	if !ok || p.Re == nil {
		return false
	}
	return p.Re.MatchString(s)
}

func (p And) Eval(o *model.Order) bool {
	for _, child := range p.Children {
		if !child.Eval(o) {
			return false
		}
	}
	return true
}

// fieldValue extracts the comparable Go value for field out of o.
func fieldValue(o *model.Order, field Field) (any, bool) {
	switch field {
	case FieldInstrumentID:
		return o.InstrumentID, true
	case FieldAccountID:
		return o.AccountID, true
	case FieldClearingID:
		return o.ClearingID, true
	case FieldSide:
		return int64(o.Side), true
	case FieldOrderType:
		return int64(o.Type), true
	case FieldStatus:
		return int64(o.Status), true
	case FieldCurrency:
		return int64(o.Currency), true
	case FieldPrice:
		return o.Price, true
	case FieldQty:
		return float64(o.OrderQty), true
	case FieldClOrderID:
		return o.ClOrderID, true
	case FieldDate:
		return int64(o.ID.Date), true
	default:
		return nil, false
	}
}

// compare orders two field values of the same underlying type. Supported
// kinds for a: int64, float64, string, and model.IdT (lexicographic). A b
// of a different type is compared as the zero value of a's type, and an
// unsupported a compares as 0; both only arise for malformed filters (a
// programming error, not a runtime condition).
func compare(a, b any) int {
	switch av := a.(type) {
	case int64:
		bv, _ := b.(int64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case float64:
		bv, _ := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case string:
		bv, _ := b.(string)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case model.IdT:
		bv, _ := b.(model.IdT)
		switch {
		case av == bv:
			return 0
		case av.Less(bv):
			return -1
		default:
			return 1
		}
	default:
		return 0
	}
}
