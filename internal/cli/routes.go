package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/linknav/internal/chain"
	"github.com/mesh-intelligence/linknav/internal/routes"
)

func newRoutesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "routes <entity>",
		Short: "List the routes registered for an entity type",
		Long:  "The entity may be given by its singular or plural name.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadLinks()
			if err != nil {
				return err
			}
			table := routes.Build(cfg)
			entityType, ok := table.EntityType(args[0])
			if !ok {
				return userError("unknown entity type %q", args[0])
			}

			infos := table.ListRoutesForEntity(entityType)
			return a.print(cmd.OutOrStdout(), infos, func(w io.Writer) {
				for _, r := range infos {
					fmt.Fprintf(w, "%-24s %-8s %-16s -> %s\n", r.RouteName, r.Direction, r.LinkType, r.ConnectedType)
				}
			})
		},
	}
}

func newResolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <path>",
		Short: "Resolve a navigation path into its chain",
		Example: "  linknav resolve users/0190a0b2-.../cars-owned\n" +
			"  linknav resolve cars/0190a0b3-.../users-owners/0190a0b2-...",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadLinks()
			if err != nil {
				return err
			}
			ch, err := chain.ResolvePath(routes.Build(cfg), args[0])
			if err != nil {
				return userError("%w", err)
			}
			return a.print(cmd.OutOrStdout(), ch, func(w io.Writer) {
				writeChain(w, ch)
			})
		},
	}
}

func writeChain(w io.Writer, ch *chain.Chain) {
	kind := "item"
	if ch.IsList {
		kind = "list"
	}
	fmt.Fprintf(w, "%s of %d segments\n", kind, ch.Len())
	for i, seg := range ch.Segments {
		id := "*"
		if seg.HasID() {
			id = seg.ID().String()
		}
		fmt.Fprintf(w, "%d. %s %s", i+1, seg.EntityType, id)
		if seg.RouteName != "" {
			fmt.Fprintf(w, " --%s (%s, %s)-->", seg.RouteName, seg.Definition.LinkType, seg.Direction)
		}
		fmt.Fprintln(w)
	}
}
