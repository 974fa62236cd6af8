package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"salarydash/internal/engine"
	"salarydash/internal/models"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print metrics and rankings for a filter selection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		sel, err := selectionFromFlags()
		if err != nil {
			return err
		}
		ds, err := engine.NewLoader(cfg.HTTPTimeout(), cfg.NewLogger("salarydash")).Load(cmd.Context(), cfg.SourceURL)
		if err != nil {
			return err
		}

		opts := cfg.RenderOptions()
		opts.Limit = 1
		printSummary(cmd.OutOrStdout(), engine.Render(ds, sel, opts))
		return nil
	},
}

func init() {
	addFilterFlags(summaryCmd)
}

func printSummary(w io.Writer, data *models.DashboardData) {
	m := data.Metrics
	metrics := tablewriter.NewWriter(w)
	metrics.SetHeader([]string{"Metric", "Value"})
	metrics.Append([]string{"Salário médio", m.MeanSalaryText})
	metrics.Append([]string{"Salário máximo", m.MaxSalaryText})
	metrics.Append([]string{"Total de registros", m.RecordCountText})
	metrics.Append([]string{"Cargo mais frequente", m.MostFrequentRole})
	metrics.Render()

	printGroups(w, data.TopRoles)
	printGroups(w, data.CountryTop)

	if !data.RemoteShare.Empty {
		fmt.Fprintf(w, "\n%s\n", data.RemoteShare.Title)
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Tipo", "Quantidade", "Proporção"})
		for _, s := range data.RemoteShare.Slices {
			table.Append([]string{s.Value, engine.FormatInt(s.Count), strconv.FormatFloat(s.Share*100, 'f', 1, 64) + "%"})
		}
		table.Render()
	}
}

func printGroups(w io.Writer, c models.Chart) {
	fmt.Fprintf(w, "\n%s\n", c.Title)
	if c.Empty {
		fmt.Fprintln(w, c.Placeholder)
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Grupo", "Média (USD)", "Registros"})
	for _, g := range c.Groups {
		table.Append([]string{g.Key, engine.FormatUSD(g.Mean), engine.FormatInt(g.Count)})
	}
	table.Render()
}
