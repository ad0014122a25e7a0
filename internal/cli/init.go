package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/linknav/internal/paths"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and storage",
		Long: "Create the configuration directory with config.yaml and an empty\n" +
			"links.yaml, then open the configured backend once so its schema exists.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			linksPath := paths.LinksFile(a.configDir, a.v.GetString(cfgKeyLinksConfig))
			if err := writeIfMissing(linksPath, defaultLinksYAML); err != nil {
				return sysError("write links config: %w", err)
			}

			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.Close(); err != nil {
				return sysError("close store: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "linknav initialized in %s\n", a.configDir)
			return nil
		},
	}
}
