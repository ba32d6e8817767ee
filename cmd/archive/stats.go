package main

import (
	"fmt"
	"os"

	"archive-viewer/internal/adapters/exporter"

	"github.com/spf13/cobra"
)

func statsCmd(configPath *string) *cobra.Command {
	var xlsxPath string
	var force bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show archive overview",
		Long:  `Loads every available day and prints totals with per-day activity. With --xlsx the overview is also written to an Excel workbook.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := setup(ctx, *configPath)
			if err != nil {
				return err
			}

			ov, err := e.archive.Overview(ctx)
			if err != nil {
				return err
			}

			exp := exporter.NewConsoleExporter(cmd.OutOrStdout(), exporter.WithColor(e.term.ColorOutput()))
			if err := exp.ExportOverview(ov); err != nil {
				return err
			}

			if xlsxPath == "" {
				return nil
			}
			if _, err := os.Stat(xlsxPath); err == nil && !force {
				ok, err := e.term.Confirm(ctx, fmt.Sprintf("%s exists. Overwrite?", xlsxPath))
				if err != nil {
					return fmt.Errorf("%s exists, use --force to overwrite: %w", xlsxPath, err)
				}
				if !ok {
					return nil
				}
			}

			f, err := os.Create(xlsxPath)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", xlsxPath, err)
			}
			if err := exporter.NewXLSXExporter(f).ExportOverview(ov); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to close %s: %w", xlsxPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Overview written to %s\n", xlsxPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Write overview to an Excel workbook")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing workbook without asking")

	return cmd
}
