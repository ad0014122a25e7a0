package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/linknav/pkg/linkstore"
	"github.com/mesh-intelligence/linknav/pkg/types"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write every link of every tenant to a JSON Lines file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPorter(cmd, func(p linkstore.Porter) error {
				n, err := p.ExportJSONL(cmd.Context(), args[0])
				if err != nil {
					return sysError("export: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d links to %s\n", n, args[0])
				return nil
			})
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load links from a JSON Lines file, replacing links with the same ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPorter(cmd, func(p linkstore.Porter) error {
				n, err := p.ImportJSONL(cmd.Context(), args[0])
				if err != nil {
					return sysError("import: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d links from %s\n", n, args[0])
				return nil
			})
		},
	}
}

// withPorter opens the store and runs fn if the backend supports JSONL.
func (a *app) withPorter(cmd *cobra.Command, fn func(linkstore.Porter) error) error {
	store, err := a.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	p, ok := store.(linkstore.Porter)
	if !ok {
		return userError("backend %q does not support JSONL export/import (use %s or %s)",
			a.backend(), types.BackendSQLite, types.BackendPostgres)
	}
	return fn(p)
}
