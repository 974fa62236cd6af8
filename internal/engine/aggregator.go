package engine

import (
	"cmp"
	"math"
	"slices"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"salarydash/internal/models"
)

// OthersLabel names the synthetic group collecting everything outside a top N.
const OthersLabel = "Others"

// SortOrder controls the order of ranked groups.
type SortOrder int

const (
	Descending SortOrder = iota
	Ascending
)

// All aggregations tolerate an empty view and return zero values.

func salaries(v View) []float64 {
	out := make([]float64, len(v))
	for i, r := range v {
		out[i] = r.SalaryUSD
	}
	return out
}

// MeanSalary is the arithmetic mean of SalaryUSD, 0 for an empty view.
func MeanSalary(v View) float64 {
	if len(v) == 0 {
		return 0
	}
	m, err := stats.Mean(salaries(v))
	if err != nil {
		return 0
	}
	return m
}

// MaxSalary is the largest SalaryUSD, 0 for an empty view.
func MaxSalary(v View) float64 {
	if len(v) == 0 {
		return 0
	}
	m, err := stats.Max(salaries(v))
	if err != nil {
		return 0
	}
	return m
}

func Count(v View) int { return len(v) }

// MostFrequentRole returns the mode of Role. When counts tie, the role seen
// first wins.
func MostFrequentRole(v View) string {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, r := range v {
		if _, seen := counts[r.Role]; !seen {
			order = append(order, r.Role)
		}
		counts[r.Role]++
	}

	best, bestN := "", 0
	for _, role := range order {
		if counts[role] > bestN {
			best, bestN = role, counts[role]
		}
	}
	return best
}

// --- GROUPING ---

// GroupMeans groups v by col and returns the mean salary per group in
// first-seen order.
func GroupMeans(v View, col models.Column) []models.GroupMean {
	grouped := make(map[string][]float64)
	order := make([]string, 0)
	for _, r := range v {
		key := r.Value(col)
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], r.SalaryUSD)
	}

	out := make([]models.GroupMean, 0, len(order))
	for _, key := range order {
		vals := grouped[key]
		m, _ := stats.Mean(vals)
		out = append(out, models.GroupMean{Key: key, Mean: m, Count: len(vals)})
	}
	return out
}

// sortByMean sorts groups in place. Equal means keep their relative order.
func sortByMean(groups []models.GroupMean, order SortOrder) {
	slices.SortStableFunc(groups, func(a, b models.GroupMean) int {
		if order == Ascending {
			return cmp.Compare(a.Mean, b.Mean)
		}
		return cmp.Compare(b.Mean, a.Mean)
	})
}

// TopNByGroupMean returns the n groups of col with the highest mean salary,
// ordered as requested. n <= 0 keeps every group.
func TopNByGroupMean(v View, col models.Column, n int, order SortOrder) []models.GroupMean {
	groups := GroupMeans(v, col)
	sortByMean(groups, Descending)
	if n > 0 && len(groups) > n {
		groups = groups[:n]
	}
	if order == Ascending {
		sortByMean(groups, Ascending)
	}
	return groups
}

// TopNPlusOthers returns the top n groups by mean salary, descending,
// followed by an Others entry whose Mean is the mean of the remaining group
// means and whose Count is their total record count. Others is omitted when
// no group falls outside the top n.
func TopNPlusOthers(v View, col models.Column, n int) []models.GroupMean {
	groups := GroupMeans(v, col)
	sortByMean(groups, Descending)
	if n < 0 {
		n = 0
	}
	if len(groups) <= n {
		return groups
	}

	rest := groups[n:]
	means := make([]float64, len(rest))
	total := 0
	for i, g := range rest {
		means[i] = g.Mean
		total += g.Count
	}
	othersMean, err := stats.Mean(means)
	if err != nil {
		othersMean = 0
	}

	out := make([]models.GroupMean, 0, n+1)
	out = append(out, groups[:n]...)
	return append(out, models.GroupMean{Key: OthersLabel, Mean: othersMean, Count: total})
}

// Distribution counts records per value of col, most frequent first.
// Ties keep first-seen order. Share is the fraction of all records in v.
func Distribution(v View, col models.Column) []models.CategoryCount {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, r := range v {
		key := r.Value(col)
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	out := make([]models.CategoryCount, 0, len(order))
	for _, key := range order {
		out = append(out, models.CategoryCount{
			Value: key,
			Count: counts[key],
			Share: float64(counts[key]) / float64(len(v)),
		})
	}
	slices.SortStableFunc(out, func(a, b models.CategoryCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	return out
}

// RoleRecords restricts v to records whose Role equals role.
func RoleRecords(v View, role string) View {
	out := make(View, 0)
	for _, r := range v {
		if r.Role == role {
			out = append(out, r)
		}
	}
	return out
}

// RoleCountryMean returns the mean salary per value of col among records of
// the given role, highest first.
func RoleCountryMean(v View, role string, col models.Column) []models.GroupMean {
	groups := GroupMeans(RoleRecords(v, role), col)
	sortByMean(groups, Descending)
	return groups
}

// --- HISTOGRAM ---

// Histogram splits the salary range of v into equal-width bins. The last bin
// is closed so the maximum salary is counted. An empty view has no bins.
func Histogram(v View, bins int) []models.HistogramBin {
	if len(v) == 0 {
		return nil
	}
	if bins < 1 {
		bins = 1
	}

	x := salaries(v)
	slices.Sort(x)
	lo, hi := x[0], x[len(x)-1]
	if lo == hi {
		hi = lo + 1
	}

	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	// stat.Histogram needs every x strictly below the last divider.
	upper := dividers[bins]
	dividers[bins] = math.Nextafter(upper, math.Inf(1))

	counts := stat.Histogram(nil, dividers, x, nil)

	out := make([]models.HistogramBin, bins)
	for i := range out {
		out[i] = models.HistogramBin{
			Lower: dividers[i],
			Upper: dividers[i+1],
			Count: int(counts[i]),
		}
	}
	out[bins-1].Upper = upper
	return out
}
