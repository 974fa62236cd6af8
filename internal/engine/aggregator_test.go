package engine

import (
	"testing"

	"salarydash/internal/models"
)

// scenarioRecords is the three-row dataset used across the engine tests.
func scenarioRecords() []models.Record {
	return []models.Record{
		{Year: 2023, Role: "Data Scientist", SalaryUSD: 100000, CompanyCountry: "US", ResidenceISO3: "USA", RemoteType: "remoto", Seniority: "senior", ContractType: "integral", CompanySize: "grande"},
		{Year: 2023, Role: "Data Scientist", SalaryUSD: 120000, CompanyCountry: "US", ResidenceISO3: "USA", RemoteType: "presencial", Seniority: "pleno", ContractType: "integral", CompanySize: "media"},
		{Year: 2022, Role: "Analyst", SalaryUSD: 60000, CompanyCountry: "BR", ResidenceISO3: "BRA", RemoteType: "remoto", Seniority: "junior", ContractType: "freelancer", CompanySize: "pequena"},
	}
}

func TestMetrics(t *testing.T) {
	// Scenario A: year 2023 keeps the two Data Scientist rows
	ds := NewDataset(scenarioRecords())
	view := Apply(ds, models.FilterSelection{models.ColYear: {"2023"}})

	if Count(view) != 2 {
		t.Fatalf("Expected 2 rows, got %d", Count(view))
	}
	if MeanSalary(view) != 110000 {
		t.Errorf("Expected mean 110000, got %f", MeanSalary(view))
	}
	if MaxSalary(view) != 120000 {
		t.Errorf("Expected max 120000, got %f", MaxSalary(view))
	}
	if role := MostFrequentRole(view); role != "Data Scientist" {
		t.Errorf("Expected Data Scientist, got %q", role)
	}
}

func TestMetricsEmptyView(t *testing.T) {
	// Scenario B: no matching year
	ds := NewDataset(scenarioRecords())
	view := Apply(ds, models.FilterSelection{models.ColYear: {"2099"}})

	if len(view) != 0 {
		t.Fatalf("Expected empty view, got %d rows", len(view))
	}
	if MeanSalary(view) != 0 || MaxSalary(view) != 0 || Count(view) != 0 || MostFrequentRole(view) != "" {
		t.Errorf("Expected zero metrics, got mean=%f max=%f count=%d role=%q",
			MeanSalary(view), MaxSalary(view), Count(view), MostFrequentRole(view))
	}
	if TopNPlusOthers(view, models.ColRole, 10) == nil {
		// an empty, non-nil slice keeps JSON output as []
		t.Error("Expected empty slice, got nil")
	}
	if len(Distribution(view, models.ColRemote)) != 0 {
		t.Error("Expected no distribution entries")
	}
	if Histogram(view, 30) != nil {
		t.Error("Expected no histogram bins")
	}
}

func TestMostFrequentRoleTieKeepsFirstSeen(t *testing.T) {
	view := View{
		{Role: "Zeta Engineer"},
		{Role: "Analyst"},
		{Role: "Analyst"},
		{Role: "Zeta Engineer"},
	}
	if role := MostFrequentRole(view); role != "Zeta Engineer" {
		t.Errorf("Expected first-seen role to win the tie, got %q", role)
	}
}

func TestTopNPlusOthers(t *testing.T) {
	// Scenario C: N=1 over the full dataset
	view := View(scenarioRecords())
	groups := TopNPlusOthers(view, models.ColRole, 1)

	if len(groups) != 2 {
		t.Fatalf("Expected top group plus Others, got %d entries", len(groups))
	}
	if groups[0].Key != "Data Scientist" || groups[0].Mean != 110000 {
		t.Errorf("Top group: expected Data Scientist/110000, got %s/%f", groups[0].Key, groups[0].Mean)
	}
	if groups[1].Key != OthersLabel || groups[1].Mean != 60000 {
		t.Errorf("Others: expected 60000, got %s/%f", groups[1].Key, groups[1].Mean)
	}
	if groups[1].Count != 1 {
		t.Errorf("Others count: expected 1, got %d", groups[1].Count)
	}
}

func TestTopNPlusOthersMeanOfGroupMeans(t *testing.T) {
	view := View{
		{Role: "A", SalaryUSD: 300},
		{Role: "B", SalaryUSD: 200},
		{Role: "B", SalaryUSD: 200},
		{Role: "B", SalaryUSD: 200},
		{Role: "C", SalaryUSD: 100},
	}
	groups := TopNPlusOthers(view, models.ColRole, 1)
	others := groups[len(groups)-1]

	// mean of the group means (200, 100), not of the four rows
	if others.Mean != 150 {
		t.Errorf("Expected Others mean 150, got %f", others.Mean)
	}
	if others.Count != 4 {
		t.Errorf("Expected Others count 4, got %d", others.Count)
	}
}

func TestTopNPlusOthersOmittedWhenNothingLeft(t *testing.T) {
	groups := TopNPlusOthers(View(scenarioRecords()), models.ColRole, 10)
	if len(groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(groups))
	}
	for _, g := range groups {
		if g.Key == OthersLabel {
			t.Error("Others should be omitted when every group is in the top N")
		}
	}
}

func TestTopNByGroupMeanOrder(t *testing.T) {
	view := View{
		{Role: "A", SalaryUSD: 10},
		{Role: "B", SalaryUSD: 30},
		{Role: "C", SalaryUSD: 20},
		{Role: "D", SalaryUSD: 40},
	}

	desc := TopNByGroupMean(view, models.ColRole, 3, Descending)
	if len(desc) != 3 || desc[0].Key != "D" || desc[1].Key != "B" || desc[2].Key != "C" {
		t.Errorf("Descending top 3 incorrect: %+v", desc)
	}

	asc := TopNByGroupMean(view, models.ColRole, 3, Ascending)
	if len(asc) != 3 || asc[0].Key != "C" || asc[2].Key != "D" {
		t.Errorf("Ascending top 3 incorrect: %+v", asc)
	}

	all := TopNByGroupMean(view, models.ColRole, 0, Descending)
	if len(all) != 4 {
		t.Errorf("Expected all 4 groups for n=0, got %d", len(all))
	}
}

func TestDistribution(t *testing.T) {
	dist := Distribution(View(scenarioRecords()), models.ColRemote)

	if len(dist) != 2 {
		t.Fatalf("Expected 2 remote types, got %d", len(dist))
	}
	if dist[0].Value != "remoto" || dist[0].Count != 2 {
		t.Errorf("Expected remoto x2 first, got %+v", dist[0])
	}
	total := 0.0
	for _, d := range dist {
		total += d.Share
	}
	if total < 0.999 || total > 1.001 {
		t.Errorf("Shares should sum to 1, got %f", total)
	}
}

func TestRoleCountryMean(t *testing.T) {
	view := append(View(scenarioRecords()), models.Record{
		Role: "Data Scientist", SalaryUSD: 50000, CompanyCountry: "DE", ResidenceISO3: "DEU",
	})

	byCompany := RoleCountryMean(view, "Data Scientist", models.ColCompanyCountry)
	if len(byCompany) != 2 {
		t.Fatalf("Expected 2 countries, got %d", len(byCompany))
	}
	if byCompany[0].Key != "US" || byCompany[0].Mean != 110000 {
		t.Errorf("Expected US/110000 first, got %+v", byCompany[0])
	}

	byISO := RoleCountryMean(view, "Data Scientist", models.ColResidenceISO3)
	if byISO[1].Key != "DEU" {
		t.Errorf("Expected DEU second, got %+v", byISO[1])
	}

	if len(RoleCountryMean(view, "Astronaut", models.ColCompanyCountry)) != 0 {
		t.Error("Expected no groups for an absent role")
	}
}

func TestHistogram(t *testing.T) {
	view := View{{SalaryUSD: 0}, {SalaryUSD: 50}, {SalaryUSD: 100}, {SalaryUSD: 100}}
	bins := Histogram(view, 2)

	if len(bins) != 2 {
		t.Fatalf("Expected 2 bins, got %d", len(bins))
	}
	if bins[0].Count != 1 || bins[1].Count != 3 {
		t.Errorf("Expected counts [1 3], got [%d %d]", bins[0].Count, bins[1].Count)
	}
	if bins[0].Lower != 0 || bins[1].Upper != 100 {
		t.Errorf("Unexpected bin edges: %+v", bins)
	}

	single := Histogram(View{{SalaryUSD: 42}}, 30)
	sum := 0
	for _, b := range single {
		sum += b.Count
	}
	if len(single) != 30 || sum != 1 {
		t.Errorf("Single value: expected 30 bins holding 1 row, got %d bins / %d rows", len(single), sum)
	}
}
