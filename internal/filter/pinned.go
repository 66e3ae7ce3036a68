package filter

import "github.com/coplib/orderengine/internal/model"

// PinnedInstrument implements the structural query §9 calls for: does p
// pin exactly one instrument by equality? It walks a bare Equal or an
// And of top-level conjuncts looking for exactly one
// Equal{Field: FieldInstrumentID} node. Any other shape (nested And, an
// InSet/Range/Match on the instrument field, or zero/more than one
// instrument equality) is not a pin: the subscription index falls back
// to the general bucket for it, per spec.md §4.G.
func PinnedInstrument(p Predicate) (model.IdT, bool) {
	switch v := p.(type) {
	case Equal:
		if v.Field == FieldInstrumentID {
			if id, ok := v.Value.(model.IdT); ok {
				return id, true
			}
		}
		return model.IdT{}, false
	case And:
		var found model.IdT
		count := 0
		for _, child := range v.Children {
			eq, ok := child.(Equal)
			if !ok || eq.Field != FieldInstrumentID {
				continue
			}
			id, ok := eq.Value.(model.IdT)
			if !ok {
				continue
			}
			found = id
			count++
		}
		if count == 1 {
			return found, true
		}
		return model.IdT{}, false
	default:
		return model.IdT{}, false
	}
}

// GetVal composes a concrete IdT out of an id-equality plus a date
// predicate, mirroring the original IdTFilter::getVal: it only succeeds
// if the filter carries exactly one date-field equality conjunct. The
// original's behavior when multiple date predicates coexist is
// undocumented; per spec.md §9 open question (a), that ambiguity is kept
// as-is — GetVal simply fails (returns false) whenever more than one
// date equality is present, rather than guessing which one wins.
func GetVal(p Predicate) (model.IdT, bool) {
	and, ok := p.(And)
	if !ok {
		if eq, ok := p.(Equal); ok {
			and = And{Children: []Predicate{eq}}
		} else {
			return model.IdT{}, false
		}
	}

	var id uint64
	haveID := false
	var date uint32
	dateCount := 0

	for _, child := range and.Children {
		eq, ok := child.(Equal)
		if !ok {
			continue
		}
		switch eq.Field {
		case FieldDate:
			if d, ok := eq.Value.(int64); ok {
				date = uint32(d)
				dateCount++
			}
		case FieldInstrumentID, FieldAccountID, FieldClearingID:
			if v, ok := eq.Value.(model.IdT); ok {
				id = v.ID
				haveID = true
			}
		}
	}

	if !haveID || dateCount != 1 {
		return model.IdT{}, false
	}
	return model.IdT{ID: id, Date: date}, true
}
