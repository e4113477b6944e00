package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/mashr/internal/stats"
	"github.com/verte-zerg/mashr/internal/store"
)

var exportOut string

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export results as CSV",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if exportOut == "" {
		_, err := exportCSV(context.Background(), st, cmd.OutOrStdout())
		return err
	}
	f, err := os.Create(exportOut)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", exportOut, err)
	}
	n, err := exportCSV(context.Background(), st, f)
	if cerr := f.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("failed to close %s: %w", exportOut, cerr)
	}
	if err != nil {
		return err
	}
	logErrf("Exported %d results to %s\n", n, exportOut)
	return nil
}

func exportCSV(ctx context.Context, src stats.Source, w io.Writer) (int, error) {
	records, err := src.ReadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read results: %w", err)
	}
	if err := store.WriteCSV(w, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import results from CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
}

func runImportCmd(_ *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close of a read-only file.
			_ = cerr
		}
	}()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	n, err := importCSV(context.Background(), st, f)
	if err != nil {
		return err
	}
	logErrf("Imported %d results\n", n)
	return nil
}

// importCSV validates every row before appending any of them.
func importCSV(ctx context.Context, st *store.Store, r io.Reader) (int, error) {
	records, err := store.ReadCSV(r)
	if err != nil {
		return 0, err
	}
	results, err := stats.DecodeRecords(records)
	if err != nil {
		return 0, fmt.Errorf("failed to validate import: %w", err)
	}
	if err := st.AppendAll(ctx, results); err != nil {
		return 0, fmt.Errorf("failed to import results: %w", err)
	}
	return len(results), nil
}
