package cli

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/vouchergrid/internal/app"
	"github.com/odyssey-erp/vouchergrid/internal/bulkio"
	"github.com/odyssey-erp/vouchergrid/internal/documents"
	"github.com/odyssey-erp/vouchergrid/internal/platform/db"
	"github.com/odyssey-erp/vouchergrid/internal/schema"
	"github.com/odyssey-erp/vouchergrid/internal/voucher"
	"github.com/odyssey-erp/vouchergrid/internal/workflow"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import a CSV file as a new draft voucher",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	importCmd.Flags().StringP("type", "t", "journal", "Voucher type: journal or item")
}

func runImport(cmd *cobra.Command, args []string) error {
	typeFlag, _ := cmd.Flags().GetString("type")
	vt := voucher.VoucherType(typeFlag)
	if vt != voucher.TypeJournal && vt != voucher.TypeItem {
		return fmt.Errorf("unsupported voucher type %q", typeFlag)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}

	overrides, err := schema.LoadOverrides(cfg.SchemaOverrides)
	if err != nil {
		return err
	}
	colOverrides, extra := overrides.For(vt)
	cols, err := schema.Build(schema.BuildInput{
		VoucherType:  vt,
		Overrides:    colOverrides,
		ExtraColumns: extra,
	})
	if err != nil {
		return err
	}

	rows, err := bulkio.ImportCSV(f, cols, nil)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no rows found in %s", args[0])
	}

	ctx := cmd.Context()
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc := documents.NewService(documents.NewPostgresRepository(pool), nil, nil)
	doc, err := svc.Do(ctx, workflow.ActionSave, workflow.Payload{
		DocumentID:  uuid.New(),
		VoucherType: vt,
		Rows:        rows,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created draft %s with %d rows\n", doc.ID, len(doc.Rows))
	return nil
}
