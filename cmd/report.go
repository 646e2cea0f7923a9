package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"fuel-dashboard/internal/audit"
	fuel "fuel-dashboard/internal/fuel/domain"
	masterdata "fuel-dashboard/internal/masterdata/domain"
	"fuel-dashboard/internal/platform/logging"
	reporting "fuel-dashboard/internal/reporting/domain"
	"fuel-dashboard/internal/reporting/export"
)

type reportOptions struct {
	in     string
	pool   string
	refs   string
	format string
	out    string
	title  string
}

var reportOpts reportOptions

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compute a detail report from exported transactions",
	Long: `report reads one user's transactions as a JSON array and writes the detail
rows with odometer deltas and hours per liter. --pool supplies the plaza
history used when the user has no earlier reading for a generator; without it
the user's own transactions are the pool. --refs is an optional JSON snapshot
of plazas, generators and profiles used for labels.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := logging.NewLogger("info", "stderr")
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		return runReport(cmd.Context(), reportOpts, cmd.OutOrStdout(), audit.NewZapLogger(logger))
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportOpts.in, "in", "", "user transactions JSON file (required)")
	reportCmd.Flags().StringVar(&reportOpts.pool, "pool", "", "plaza transactions JSON file")
	reportCmd.Flags().StringVar(&reportOpts.refs, "refs", "", "reference data JSON file")
	reportCmd.Flags().StringVar(&reportOpts.format, "format", "csv", "output format: csv, xlsx or pdf")
	reportCmd.Flags().StringVar(&reportOpts.out, "out", "-", "output file, - for stdout")
	reportCmd.Flags().StringVar(&reportOpts.title, "title", "User Detail", "report title")
	_ = reportCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(reportCmd)
}

func runReport(ctx context.Context, opts reportOptions, stdout io.Writer, auditLog audit.Logger) error {
	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	userTxs, err := readTransactions(opts.in)
	if err != nil {
		return err
	}
	pool := userTxs
	if opts.pool != "" {
		if pool, err = readTransactions(opts.pool); err != nil {
			return err
		}
	}
	var refs *masterdata.Snapshot
	if opts.refs != "" {
		if refs, err = readSnapshot(opts.refs); err != nil {
			return err
		}
	}

	rows := reporting.ComputeDetailRows(userTxs, pool, refs)
	data, err := export.Render(export.DetailRowsTable(opts.title, rows), format)
	if err != nil {
		return err
	}

	if opts.out == "" || opts.out == "-" {
		if format != export.FormatCSV {
			return errors.New("report: binary formats need --out")
		}
		if _, err := stdout.Write(data); err != nil {
			return err
		}
	} else if err := os.WriteFile(opts.out, data, 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", opts.out, err)
	}

	if auditLog != nil {
		meta := audit.Metadata(map[string]any{"input": opts.in, "format": string(format), "rows": len(rows)})
		entry := audit.Entry{
			ID:            audit.NewID(),
			Actor:         "cli",
			Action:        audit.ActionReportExported,
			ResourceType:  "detail_report",
			ResourceID:    opts.out,
			Metadata:      meta,
			PayloadDigest: audit.DigestJSON(meta),
		}
		if err := auditLog.Log(ctx, entry); err != nil {
			return fmt.Errorf("report: audit: %w", err)
		}
	}
	return nil
}

func readTransactions(path string) ([]fuel.Transaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("report: read %s: %w", path, err)
	}
	var txs []fuel.Transaction
	if err := json.Unmarshal(data, &txs); err != nil {
		return nil, fmt.Errorf("report: decode %s: %w", path, err)
	}
	return txs, nil
}

func readSnapshot(path string) (*masterdata.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("report: read %s: %w", path, err)
	}
	var snap masterdata.SnapshotData
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("report: decode %s: %w", path, err)
	}
	return masterdata.SnapshotFromData(snap), nil
}
