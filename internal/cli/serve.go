package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/linknav/internal/chain"
	"github.com/mesh-intelligence/linknav/internal/httpapi"
	"github.com/mesh-intelligence/linknav/internal/routes"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API",
		Long: "Serve the REST API until interrupted. SIGHUP reloads the links\n" +
			"configuration without dropping requests.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.v.GetString(cfgKeyHTTPAddr)
			}
			links, err := a.loadLinks()
			if err != nil {
				return err
			}
			resolver, err := chain.NewCachedResolver(a.v.GetInt(cfgKeyCacheSize))
			if err != nil {
				return userError("resolver cache: %w", err)
			}
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			registry := routes.NewRegistry(links)
			a.log.Info("links loaded",
				zap.Int("definitions", len(links.Links)),
				zap.Int("routes", registry.Load().Len()),
			)

			srv, err := httpapi.NewServer(httpapi.Options{
				Registry: registry,
				Store:    store,
				Links:    links,
				Resolver: resolver,
				Logger:   a.log,
			})
			if err != nil {
				return sysError("%w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go a.reloadOnHangup(ctx, srv)

			if err := srv.Run(ctx, addr); err != nil {
				return sysError("serve: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from http.addr)")
	return cmd
}
