package models

import "strconv"

// Column names as they appear in the CSV header.
type Column string

const (
	ColYear           Column = "ano"
	ColSeniority      Column = "senioridade"
	ColContract       Column = "contrato"
	ColCompanySize    Column = "tamanho_empresa"
	ColRole           Column = "cargo"
	ColSalaryUSD      Column = "usd"
	ColRemote         Column = "remoto"
	ColResidenceISO3  Column = "residencia_iso3"
	ColCompanyCountry Column = "empresa"
)

// RequiredColumns must all be present in the source CSV.
var RequiredColumns = []Column{
	ColYear, ColSeniority, ColContract, ColCompanySize, ColRole,
	ColSalaryUSD, ColRemote, ColResidenceISO3, ColCompanyCountry,
}

// FilterColumns are the columns a FilterSelection may restrict, in display order.
var FilterColumns = []Column{ColYear, ColSeniority, ColContract, ColCompanySize}

// ParseFilterColumn reports whether name is a filterable column.
func ParseFilterColumn(name string) (Column, bool) {
	for _, c := range FilterColumns {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

// Record is one salary observation.
type Record struct {
	Year           int     `json:"ano"`
	Seniority      string  `json:"senioridade"`
	ContractType   string  `json:"contrato"`
	CompanySize    string  `json:"tamanho_empresa"`
	Role           string  `json:"cargo"`
	SalaryUSD      float64 `json:"usd"`
	RemoteType     string  `json:"remoto"`
	ResidenceISO3  string  `json:"residencia_iso3"`
	CompanyCountry string  `json:"empresa"`
}

// Value returns the categorical value of col, or "" for the salary column
// and unknown names.
func (r Record) Value(col Column) string {
	switch col {
	case ColYear:
		return strconv.Itoa(r.Year)
	case ColSeniority:
		return r.Seniority
	case ColContract:
		return r.ContractType
	case ColCompanySize:
		return r.CompanySize
	case ColRole:
		return r.Role
	case ColRemote:
		return r.RemoteType
	case ColResidenceISO3:
		return r.ResidenceISO3
	case ColCompanyCountry:
		return r.CompanyCountry
	}
	return ""
}

// FilterSelection maps a filter column to its accepted values.
// An absent or empty set accepts everything.
type FilterSelection map[Column][]string

// IsEmpty returns true if no column is restricted.
func (s FilterSelection) IsEmpty() bool {
	for _, vals := range s {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// FilterOptions holds the multi-select choices, sorted ascending.
type FilterOptions struct {
	Years        []int    `json:"ano"`
	Seniorities  []string `json:"senioridade"`
	Contracts    []string `json:"contrato"`
	CompanySizes []string `json:"tamanho_empresa"`
}

// --- VIEW MODEL ---

type DashboardData struct {
	Filters FilterSelection `json:"filters"`
	Metrics Metrics         `json:"metrics"`

	TopRoles        Chart `json:"top_roles"`
	SalaryHistogram Chart `json:"salary_histogram"`
	RemoteShare     Chart `json:"remote_share"`
	CountryMap      Chart `json:"country_map"`
	CountryBar      Chart `json:"country_bar"`
	CountryTop      Chart `json:"country_top"`

	Table TablePage `json:"table"`
}

type Metrics struct {
	MeanSalary       float64 `json:"mean_salary"`
	MaxSalary        float64 `json:"max_salary"`
	RecordCount      int     `json:"record_count"`
	MostFrequentRole string  `json:"most_frequent_role"`

	MeanSalaryText  string `json:"mean_salary_text"`
	MaxSalaryText   string `json:"max_salary_text"`
	RecordCountText string `json:"record_count_text"`
}

// Chart kinds understood by the frontend.
const (
	ChartBarH       = "bar_horizontal"
	ChartBar        = "bar"
	ChartHistogram  = "histogram"
	ChartDonut      = "donut"
	ChartChoropleth = "choropleth"
)

// Chart is a render-ready chart. Exactly one of Groups, Slices or Bins is
// populated depending on Kind; Empty charts carry a Placeholder instead.
type Chart struct {
	Kind        string          `json:"kind"`
	Title       string          `json:"title"`
	XLabel      string          `json:"x_label,omitempty"`
	YLabel      string          `json:"y_label,omitempty"`
	Groups      []GroupMean     `json:"groups,omitempty"`
	Slices      []CategoryCount `json:"slices,omitempty"`
	Bins        []HistogramBin  `json:"bins,omitempty"`
	Empty       bool            `json:"empty"`
	Placeholder string          `json:"placeholder,omitempty"`
}

// GroupMean is the mean salary of one group.
type GroupMean struct {
	Key   string  `json:"key"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// CategoryCount is a value-count entry with its share of the total.
type CategoryCount struct {
	Value string  `json:"value"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

// HistogramBin covers [Lower, Upper).
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

type TablePage struct {
	Total  int      `json:"total"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
	Rows   []Record `json:"rows"`
}
