package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/frahmantamala/budget-tracker/internal/export"
	"github.com/frahmantamala/budget-tracker/internal/storage"
	"github.com/frahmantamala/budget-tracker/internal/transaction"
	"github.com/frahmantamala/budget-tracker/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	exportUser     string
	exportFormat   string
	exportOut      string
	exportCategory string
	exportSearch   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a user's transactions to CSV or XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportUser == "" {
			return fmt.Errorf("--user is required")
		}

		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		format, err := export.ParseFormat(exportFormat, export.Format(cfg.Export.DefaultFormat))
		if err != nil {
			return err
		}
		if format == "" {
			format = export.FormatCSV
		}

		db, err := storage.Open(cfg.Database, logger.L())
		if err != nil {
			return err
		}
		defer db.Close()

		items, err := export.NewReader(db.SQL).Transactions(context.Background(), exportUser)
		if err != nil {
			return fmt.Errorf("failed to read transactions: %w", err)
		}
		q := transaction.ListQuery{Search: exportSearch, Category: exportCategory}
		items = q.Select(items)

		out := exportOut
		if out == "" {
			out = format.FileName(time.Now())
		}
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		if err := export.Write(f, format, items); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to write export: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}

		logger.L().Info("export written", "user_id", exportUser, "rows", len(items), "file", out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportUser, "user", "", "user id (the session subject) to export")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "csv or xlsx (defaults to export.default_format)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (defaults to transactions_<date>.<format>)")
	exportCmd.Flags().StringVar(&exportCategory, "category", "", "only this category label")
	exportCmd.Flags().StringVar(&exportSearch, "search", "", "description or amount substring")
}
