package main

import (
	"fmt"

	"github.com/nutriscan/backend/internal/infrastructure/persistence"
	"github.com/nutriscan/backend/internal/usecase"
	"github.com/spf13/cobra"
)

type repairOptions struct {
	dbPath string
	debug  bool
}

// newRootCommand creates the repair command. It re-applies analysis
// defaulting to every stored record and prints how many were rewritten.
func newRootCommand() *cobra.Command {
	var opts repairOptions

	cmd := &cobra.Command{
		Use:          "repair",
		Short:        "Repair stored product analyses",
		Long:         "Re-applies analysis defaulting to every stored product record and persists the records that changed.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepair(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.dbPath, "db", "nutriscan.db", "Path to the SQLite database")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Log SQL statements")

	return cmd
}

func runRepair(cmd *cobra.Command, opts repairOptions) error {
	db, err := persistence.Open(opts.dbPath, opts.debug)
	if err != nil {
		return err
	}
	defer persistence.Close(db)

	store := usecase.NewProductStore(persistence.NewProductRepository(db), nil)
	repaired, err := store.RepairAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("repair failed after %d records: %w", repaired, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Repaired %d records\n", repaired)
	return nil
}
