//go:build !windows

package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/linknav/internal/httpapi"
)

// reloadOnHangup reloads the links configuration on each SIGHUP until ctx
// ends. A configuration that fails to load leaves the current one in place.
func (a *app) reloadOnHangup(ctx context.Context, srv *httpapi.Server) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			links, err := a.loadLinks()
			if err != nil {
				a.log.Warn("links reload failed", zap.Error(err))
				continue
			}
			srv.Reload(links)
			a.log.Info("links reloaded", zap.Int("definitions", len(links.Links)))
		}
	}
}
