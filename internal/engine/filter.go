package engine

import (
	"salarydash/internal/models"
)

// View is an ordered subsequence of a Dataset's records.
type View []models.Record

// Apply returns the records of ds matching every non-empty constraint in sel.
// Columns are AND-combined; values within a column are OR-combined. Columns
// that are not filterable are ignored. Record order is preserved, and an
// unrestricted selection returns the dataset's records unchanged.
func Apply(ds *Dataset, sel models.FilterSelection) View {
	if ds == nil {
		return View{}
	}

	sets := make(map[models.Column]map[string]struct{})
	for _, col := range models.FilterColumns {
		allowed := sel[col]
		if len(allowed) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(allowed))
		for _, v := range allowed {
			set[v] = struct{}{}
		}
		sets[col] = set
	}

	if len(sets) == 0 {
		return View(ds.Records)
	}

	out := make(View, 0, len(ds.Records))
	for _, r := range ds.Records {
		if matches(r, sets) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r models.Record, sets map[models.Column]map[string]struct{}) bool {
	for col, set := range sets {
		if _, ok := set[r.Value(col)]; !ok {
			return false
		}
	}
	return true
}
