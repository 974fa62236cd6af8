package engine

import (
	"slices"
	"time"

	"salarydash/internal/models"
)

// Dataset holds the loaded records plus the distinct values of every
// filter column. It is built once and never mutated; share it by pointer.
type Dataset struct {
	Records []models.Record

	// Dictionaries (sorted distinct values)
	Options models.FilterOptions

	Source      string
	LoadedAt    time.Time
	Fingerprint uint64 // xxh3 of the raw source bytes
}

// NewDataset builds a Dataset and its option dictionaries from records.
func NewDataset(records []models.Record) *Dataset {
	ds := &Dataset{Records: records}
	ds.Options = buildOptions(records)
	return ds
}

// Len returns the number of records.
func (ds *Dataset) Len() int {
	if ds == nil {
		return 0
	}
	return len(ds.Records)
}

func buildOptions(records []models.Record) models.FilterOptions {
	years := make(map[int]struct{})
	sen := make(map[string]struct{})
	con := make(map[string]struct{})
	size := make(map[string]struct{})

	for _, r := range records {
		years[r.Year] = struct{}{}
		sen[r.Seniority] = struct{}{}
		con[r.ContractType] = struct{}{}
		size[r.CompanySize] = struct{}{}
	}

	opts := models.FilterOptions{
		Years:        make([]int, 0, len(years)),
		Seniorities:  sortedKeys(sen),
		Contracts:    sortedKeys(con),
		CompanySizes: sortedKeys(size),
	}
	for y := range years {
		opts.Years = append(opts.Years, y)
	}
	slices.Sort(opts.Years)
	return opts
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
