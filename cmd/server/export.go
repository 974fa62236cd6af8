package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"salarydash/internal/engine"
	"salarydash/internal/export"
)

var flagOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the filtered detail table to an xlsx file",
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

		view := engine.Apply(ds, sel)
		if err := export.SaveXLSX(flagOut, view); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s rows to %s\n", engine.FormatInt(len(view)), flagOut)
		return nil
	},
}

func init() {
	addFilterFlags(exportCmd)
	exportCmd.Flags().StringVarP(&flagOut, "out", "o", "dados.xlsx", "output file")
}
