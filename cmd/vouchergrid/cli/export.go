package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/vouchergrid/internal/app"
	"github.com/odyssey-erp/vouchergrid/internal/bulkio"
	"github.com/odyssey-erp/vouchergrid/internal/documents"
	"github.com/odyssey-erp/vouchergrid/internal/platform/db"
	"github.com/odyssey-erp/vouchergrid/internal/schema"
)

var exportCmd = &cobra.Command{
	Use:   "export DOCUMENT_ID",
	Short: "Export a stored voucher's grid to CSV or XLSX",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringP("format", "f", "csv", "Output format: csv or xlsx")
	exportCmd.Flags().StringP("output", "o", "", "Output file (default stdout for csv)")
}

func runExport(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid document id %q: %w", args[0], err)
	}
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	format = strings.ToLower(format)
	if format != "csv" && format != "xlsx" {
		return fmt.Errorf("unsupported format %q", format)
	}
	if format == "xlsx" && output == "" {
		return fmt.Errorf("xlsx export requires --output")
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	doc, err := documents.NewPostgresRepository(pool).Get(ctx, id)
	if err != nil {
		return err
	}

	overrides, err := schema.LoadOverrides(cfg.SchemaOverrides)
	if err != nil {
		return err
	}
	colOverrides, extra := overrides.For(doc.Type)
	cols, err := schema.Build(schema.BuildInput{
		VoucherType:  doc.Type,
		Overrides:    colOverrides,
		ExtraColumns: extra,
	})
	if err != nil {
		return err
	}

	out := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if format == "xlsx" {
		return bulkio.ExportXLSX(out, "Voucher", cols, doc.Rows)
	}
	return bulkio.ExportCSV(out, cols, doc.Rows)
}
