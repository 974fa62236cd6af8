package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"salarydash/internal/config"
	"salarydash/internal/models"
)

var (
	cfgFile      string
	flagSource   string
	flagLogLevel string

	// Filter flags shared by summary and export
	flagYears     []string
	flagSeniority []string
	flagContract  []string
	flagSize      []string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "salarydash",
	Short:         "Salary dashboard for data-industry roles",
	Long:          `salarydash loads the data-industry salary dataset once and serves filterable metrics, charts and the detail table.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		f := cmd.Flags()
		if f.Changed("source") {
			c.SourceURL = flagSource
		}
		if f.Changed("log-level") {
			c.LogLevel = flagLogLevel
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c
		return nil
	},
	// Serving is the default action.
	RunE: runServe,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./salarydash.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagSource, "source", "", "CSV URL or path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "debug, info, warn, error or off (overrides config)")

	rootCmd.AddCommand(serveCmd, summaryCmd, exportCmd)
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&flagYears, "ano", nil, "years to include (repeatable or comma-separated)")
	cmd.Flags().StringSliceVar(&flagSeniority, "senioridade", nil, "seniority levels to include")
	cmd.Flags().StringSliceVar(&flagContract, "contrato", nil, "contract types to include")
	cmd.Flags().StringSliceVar(&flagSize, "tamanho-empresa", nil, "company sizes to include")
}

// selectionFromFlags builds the FilterSelection for summary and export.
func selectionFromFlags() (models.FilterSelection, error) {
	sel := models.FilterSelection{}
	for _, y := range flagYears {
		n, err := strconv.Atoi(strings.TrimSpace(y))
		if err != nil {
			return nil, fmt.Errorf("invalid --ano %q", y)
		}
		sel[models.ColYear] = append(sel[models.ColYear], strconv.Itoa(n))
	}
	sel[models.ColSeniority] = flagSeniority
	sel[models.ColContract] = flagContract
	sel[models.ColCompanySize] = flagSize
	return sel, nil
}
