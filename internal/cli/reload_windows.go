package cli

import (
	"context"

	"github.com/mesh-intelligence/linknav/internal/httpapi"
)

func (a *app) reloadOnHangup(context.Context, *httpapi.Server) {}
