package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/linknav/internal/chain"
	"github.com/mesh-intelligence/linknav/internal/navigate"
	"github.com/mesh-intelligence/linknav/internal/routes"
	"github.com/mesh-intelligence/linknav/pkg/types"
)

// linkCmd holds the flags shared by the link subcommands.
type linkCmd struct {
	app      *app
	tenant   string
	metadata string
}

func newLinkCmd(a *app) *cobra.Command {
	lc := &linkCmd{app: a}
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Create, inspect, and delete links",
		Long: "Link commands act on one tenant, given by --tenant or the tenant\n" +
			"key in config.yaml (LINKNAV_TENANT).",
	}
	cmd.PersistentFlags().StringVar(&lc.tenant, "tenant", "", "tenant UUID")

	create := &cobra.Command{
		Use:   "create <path>",
		Short: "Create the link an item path names",
		Example: "  linknav link create users/{user-id}/cars-owned/{car-id} --metadata '{\"since\":2020}'\n" +
			"  linknav link create cars/{car-id}/users-owners/{user-id}",
		Args: cobra.ExactArgs(1),
		RunE: lc.runCreate,
	}
	create.Flags().StringVar(&lc.metadata, "metadata", "", "link metadata as JSON")

	update := &cobra.Command{
		Use:   "update <link-id>",
		Short: "Replace a link's metadata",
		Long:  "Replace a link's metadata. Omitting --metadata clears it.",
		Args:  cobra.ExactArgs(1),
		RunE:  lc.runUpdate,
	}
	update.Flags().StringVar(&lc.metadata, "metadata", "", "link metadata as JSON")

	cmd.AddCommand(
		create,
		&cobra.Command{
			Use:   "get <link-id>",
			Short: "Show one link",
			Args:  cobra.ExactArgs(1),
			RunE:  lc.runGet,
		},
		&cobra.Command{
			Use:   "list",
			Short: "List every link of the tenant",
			Args:  cobra.NoArgs,
			RunE:  lc.runList,
		},
		&cobra.Command{
			Use:   "find <path>",
			Short: "List the links a path denotes",
			Long: "A path ending on a route lists that route's links; a path naming\n" +
				"two entities shows the link between them; a bare entity lists\n" +
				"every link it takes part in.",
			Args: cobra.ExactArgs(1),
			RunE: lc.runFind,
		},
		update,
		&cobra.Command{
			Use:   "delete <link-id>",
			Short: "Delete one link",
			Args:  cobra.ExactArgs(1),
			RunE:  lc.runDelete,
		},
		&cobra.Command{
			Use:   "delete-entity <entity> <entity-id>",
			Short: "Delete every link an entity takes part in",
			Long:  "Run this when the owning module deletes the entity.",
			Args:  cobra.ExactArgs(2),
			RunE:  lc.runDeleteEntity,
		},
	)
	return cmd
}

// session opens the store and parses the tenant for one command.
func (lc *linkCmd) session(ctx context.Context, fn func(types.LinkStore, uuid.UUID) error) error {
	raw := lc.tenant
	if raw == "" {
		raw = lc.app.v.GetString(cfgKeyTenant)
	}
	if raw == "" {
		return userError("no tenant: pass --tenant or set %s_TENANT", envPrefix)
	}
	tenant, err := uuid.Parse(raw)
	if err != nil {
		return userError("invalid tenant %q: %w", raw, err)
	}

	store, err := lc.app.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store, tenant)
}

func (lc *linkCmd) resolve(path string) (*chain.Chain, *types.LinksConfig, error) {
	cfg, err := lc.app.loadLinks()
	if err != nil {
		return nil, nil, err
	}
	ch, err := chain.ResolvePath(routes.Build(cfg), path)
	if err != nil {
		return nil, nil, userError("%w", err)
	}
	return ch, &cfg, nil
}

func (lc *linkCmd) parseMetadata() (json.RawMessage, error) {
	if lc.metadata == "" {
		return nil, nil
	}
	if !json.Valid([]byte(lc.metadata)) {
		return nil, userError("--metadata is not valid JSON")
	}
	return types.CloneMetadata(json.RawMessage(lc.metadata)), nil
}

func (lc *linkCmd) runCreate(cmd *cobra.Command, args []string) error {
	ch, cfg, err := lc.resolve(args[0])
	if err != nil {
		return err
	}
	e, ok := ch.FinalEdge()
	if !ok {
		return userError("%q must name two entities joined by a route", args[0])
	}
	metadata, err := lc.parseMetadata()
	if err != nil {
		return err
	}

	return lc.session(cmd.Context(), func(store types.LinkStore, tenant uuid.UUID) error {
		l, err := navigate.Create(cmd.Context(), store, cfg, tenant, e, metadata)
		if err != nil {
			return storeError(err)
		}
		return lc.printLink(cmd.OutOrStdout(), l)
	})
}

func (lc *linkCmd) runGet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return lc.session(cmd.Context(), func(store types.LinkStore, tenant uuid.UUID) error {
		l, err := store.Get(cmd.Context(), tenant, id)
		if err != nil {
			return storeError(err)
		}
		return lc.printLink(cmd.OutOrStdout(), l)
	})
}

func (lc *linkCmd) runList(cmd *cobra.Command, _ []string) error {
	return lc.session(cmd.Context(), func(store types.LinkStore, tenant uuid.UUID) error {
		links, err := store.List(cmd.Context(), tenant)
		if err != nil {
			return storeError(err)
		}
		return lc.printLinks(cmd.OutOrStdout(), links)
	})
}

func (lc *linkCmd) runFind(cmd *cobra.Command, args []string) error {
	ch, _, err := lc.resolve(args[0])
	if err != nil {
		return err
	}
	return lc.session(cmd.Context(), func(store types.LinkStore, tenant uuid.UUID) error {
		if e, ok := ch.FinalEdge(); ok {
			l, err := navigate.Find(cmd.Context(), store, tenant, e)
			if err != nil {
				return storeError(err)
			}
			return lc.printLink(cmd.OutOrStdout(), l)
		}
		links, err := navigate.List(cmd.Context(), store, tenant, ch)
		if err != nil {
			return storeError(err)
		}
		return lc.printLinks(cmd.OutOrStdout(), links)
	})
}

func (lc *linkCmd) runUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	metadata, err := lc.parseMetadata()
	if err != nil {
		return err
	}
	return lc.session(cmd.Context(), func(store types.LinkStore, tenant uuid.UUID) error {
		l, err := store.Update(cmd.Context(), tenant, id, metadata)
		if err != nil {
			return storeError(err)
		}
		return lc.printLink(cmd.OutOrStdout(), l)
	})
}

func (lc *linkCmd) runDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return lc.session(cmd.Context(), func(store types.LinkStore, tenant uuid.UUID) error {
		if err := store.Delete(cmd.Context(), tenant, id); err != nil {
			return storeError(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
		return nil
	})
}

func (lc *linkCmd) runDeleteEntity(cmd *cobra.Command, args []string) error {
	cfg, err := lc.app.loadLinks()
	if err != nil {
		return err
	}
	entityType, ok := routes.Build(cfg).EntityType(args[0])
	if !ok {
		return userError("unknown entity type %q", args[0])
	}
	id, err := parseID(args[1])
	if err != nil {
		return err
	}
	return lc.session(cmd.Context(), func(store types.LinkStore, tenant uuid.UUID) error {
		if err := store.DeleteByEntity(cmd.Context(), tenant, id, entityType); err != nil {
			return storeError(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted links of %s %s\n", entityType, id)
		return nil
	})
}

func (lc *linkCmd) printLink(w io.Writer, l *types.Link) error {
	return lc.app.print(w, l, func(w io.Writer) { writeLink(w, l) })
}

func (lc *linkCmd) printLinks(w io.Writer, links []*types.Link) error {
	return lc.app.print(w, links, func(w io.Writer) {
		for _, l := range links {
			writeLink(w, l)
		}
	})
}

func writeLink(w io.Writer, l *types.Link) {
	fmt.Fprintf(w, "%s  %s:%s -[%s]-> %s:%s", l.ID,
		l.Source.EntityType, l.Source.ID, l.LinkType, l.Target.EntityType, l.Target.ID)
	if len(l.Metadata) > 0 {
		fmt.Fprintf(w, "  %s", l.Metadata)
	}
	fmt.Fprintln(w)
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, userError("%w: %q", types.ErrInvalidEntityID, s)
	}
	return id, nil
}

// storeError classifies a LinkService error: absence and rule violations
// are the user's, anything else is the system's.
func storeError(err error) error {
	switch {
	case errors.Is(err, types.ErrLinkNotFound),
		errors.Is(err, types.ErrNotFoundOrDenied),
		errors.Is(err, types.ErrLinkNotAllowed):
		return userError("%w", err)
	default:
		return sysError("%w", err)
	}
}
