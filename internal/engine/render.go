package engine

import (
	"fmt"

	"salarydash/internal/models"
)

// RenderOptions tunes the derived charts and the table page.
type RenderOptions struct {
	FocusRole     string // role used by the three country charts
	TopN          int
	HistogramBins int
	Limit         int // table page size, <= 0 means all rows
	Offset        int
}

func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		FocusRole:     "Data Scientist",
		TopN:          10,
		HistogramBins: 30,
		Limit:         50,
	}
}

// Render filters ds by sel and derives every metric, chart and the table
// page. It is pure: the same inputs always produce the same output.
func Render(ds *Dataset, sel models.FilterSelection, opts RenderOptions) *models.DashboardData {
	view := Apply(ds, sel)
	if sel == nil {
		sel = models.FilterSelection{}
	}

	return &models.DashboardData{
		Filters:         sel,
		Metrics:         ComputeMetrics(view),
		TopRoles:        topRolesChart(view, opts),
		SalaryHistogram: histogramChart(view, opts),
		RemoteShare:     remoteShareChart(view),
		CountryMap:      countryMapChart(view, opts),
		CountryBar:      countryBarChart(view, opts),
		CountryTop:      countryTopChart(view, opts),
		Table:           Page(view, opts.Limit, opts.Offset),
	}
}

// ComputeMetrics returns the four headline metrics, zeroed for an empty view.
func ComputeMetrics(v View) models.Metrics {
	m := models.Metrics{
		MeanSalary:       MeanSalary(v),
		MaxSalary:        MaxSalary(v),
		RecordCount:      Count(v),
		MostFrequentRole: MostFrequentRole(v),
	}
	m.MeanSalaryText = FormatUSD(m.MeanSalary)
	m.MaxSalaryText = FormatUSD(m.MaxSalary)
	m.RecordCountText = FormatInt(m.RecordCount)
	return m
}

// Page slices v for the detail table. Out-of-range offsets yield no rows.
func Page(v View, limit, offset int) models.TablePage {
	total := len(v)
	if limit <= 0 {
		limit = total
	}
	if offset < 0 {
		offset = 0
	}

	page := models.TablePage{Total: total, Limit: limit, Offset: offset, Rows: []models.Record{}}
	if offset >= total {
		return page
	}
	end := total
	if limit < total-offset {
		end = offset + limit
	}
	page.Rows = v[offset:end]
	return page
}

// --- CHARTS ---

func emptyChart(c models.Chart, placeholder string) models.Chart {
	c.Empty = true
	c.Placeholder = placeholder
	return c
}

func topRolesChart(v View, opts RenderOptions) models.Chart {
	c := models.Chart{
		Kind:   models.ChartBarH,
		Title:  fmt.Sprintf("Top %d cargos por salário médio", opts.TopN),
		XLabel: "Média salarial anual (USD)",
	}
	if len(v) == 0 {
		return emptyChart(c, "Nenhum dado para exibir no gráfico de cargos.")
	}
	c.Groups = TopNByGroupMean(v, models.ColRole, opts.TopN, Ascending)
	return c
}

func histogramChart(v View, opts RenderOptions) models.Chart {
	c := models.Chart{
		Kind:   models.ChartHistogram,
		Title:  "Distribuição de salários anuais",
		XLabel: "Faixa salarial (USD)",
	}
	if len(v) == 0 {
		return emptyChart(c, "Nenhum dado para exibir no gráfico de distribuição.")
	}
	c.Bins = Histogram(v, opts.HistogramBins)
	return c
}

func remoteShareChart(v View) models.Chart {
	c := models.Chart{
		Kind:  models.ChartDonut,
		Title: "Proporção dos tipos de trabalho",
	}
	if len(v) == 0 {
		return emptyChart(c, "Nenhum dado para exibir no gráfico dos tipos de trabalho.")
	}
	c.Slices = Distribution(v, models.ColRemote)
	return c
}

func countryMapChart(v View, opts RenderOptions) models.Chart {
	c := models.Chart{
		Kind:   models.ChartChoropleth,
		Title:  fmt.Sprintf("Salário médio de %s por país", opts.FocusRole),
		XLabel: "País",
		YLabel: "Salário médio (USD)",
	}
	c.Groups = RoleCountryMean(v, opts.FocusRole, models.ColResidenceISO3)
	if len(c.Groups) == 0 {
		return emptyChart(c, "Nenhum dado para exibir no gráfico de países.")
	}
	return c
}

func countryBarChart(v View, opts RenderOptions) models.Chart {
	c := models.Chart{
		Kind:   models.ChartBar,
		Title:  fmt.Sprintf("Média salarial para %s por país", opts.FocusRole),
		XLabel: "País da empresa",
		YLabel: "Média salarial anual em USD",
	}
	c.Groups = RoleCountryMean(v, opts.FocusRole, models.ColCompanyCountry)
	if len(c.Groups) == 0 {
		return emptyChart(c, "Nenhum dado para exibir no gráfico de salário por país.")
	}
	return c
}

func countryTopChart(v View, opts RenderOptions) models.Chart {
	c := models.Chart{
		Kind:   models.ChartBarH,
		Title:  fmt.Sprintf("Top %d países com maior salário médio para %s", opts.TopN, opts.FocusRole),
		XLabel: "Média salarial anual em USD",
		YLabel: "País da empresa",
	}
	c.Groups = TopNPlusOthers(RoleRecords(v, opts.FocusRole), models.ColCompanyCountry, opts.TopN)
	if len(c.Groups) == 0 {
		return emptyChart(c, "Nenhum dado para exibir no gráfico de top países.")
	}
	return c
}
