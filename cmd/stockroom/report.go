package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"stockroom/internal/domain"
	"stockroom/internal/logger"
	"stockroom/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the period report as JSON",
	Long: `Build the summary report for one granularity from the configured
backend and print it to stdout as JSON.

Granularity is one of week, month, quarter, year or all.`,
	Example: `  stockroom report --granularity quarter`,
	RunE:    runReport,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the export rows of sales or purchases as JSON",
	Long: `Flatten the sales or purchases dated in the current window of the
given granularity into export rows and print them to stdout as JSON.`,
	Example: `  stockroom export --kind purchase --granularity year --query office`,
	RunE:    runExport,
}

func init() {
	reportCmd.Flags().StringP("granularity", "g", "month", "Report window: week, month, quarter, year or all")

	exportCmd.Flags().StringP("granularity", "g", "month", "Report window: week, month, quarter, year or all")
	exportCmd.Flags().String("kind", string(domain.KindSale), "Documents to export: sale or purchase")
	exportCmd.Flags().StringP("query", "q", "", "Only rows whose reference or counterparty contains this text")
}

func runReport(cmd *cobra.Command, _ []string) error {
	log := logger.WithComponent("report")
	cfg, err := configFrom(cmd.Context())
	if err != nil {
		return err
	}
	raw, _ := cmd.Flags().GetString("granularity")
	g, err := report.ParseGranularity(raw)
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	rep, err := a.service.Report(cmd.Context(), g)
	if err != nil {
		return err
	}
	log.Debug().Str("granularity", string(g)).Msg("report built")
	return writeJSONTo(cmd.OutOrStdout(), rep)
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, err := configFrom(cmd.Context())
	if err != nil {
		return err
	}
	raw, _ := cmd.Flags().GetString("granularity")
	kindRaw, _ := cmd.Flags().GetString("kind")
	query, _ := cmd.Flags().GetString("query")

	g, err := report.ParseGranularity(raw)
	if err != nil {
		return err
	}
	kind := domain.DocumentKind(kindRaw)
	if kind != domain.KindSale && kind != domain.KindPurchase {
		return fmt.Errorf("--kind must be sale or purchase, got %q", kindRaw)
	}

	a, err := openApp(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	rows, err := a.service.Export(cmd.Context(), kind, g, query)
	if err != nil {
		return err
	}
	return writeJSONTo(cmd.OutOrStdout(), rows)
}

func writeJSONTo(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
