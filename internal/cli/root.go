// Package cli implements the linknav command-line interface.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/linknav/internal/linkconfig"
	"github.com/mesh-intelligence/linknav/internal/logging"
	"github.com/mesh-intelligence/linknav/internal/paths"
	"github.com/mesh-intelligence/linknav/pkg/linkstore"
	"github.com/mesh-intelligence/linknav/pkg/types"
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	backend   string
	jsonMode  bool
}

// app is the state shared by one invocation's commands.
type app struct {
	flags     rootFlags
	configDir string
	v         *viper.Viper
	log       *zap.Logger
}

// NewRootCmd creates the top-level "linknav" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "linknav",
		Short: "Typed, bidirectional links between entities",
		Long: "linknav stores named relationships between entities owned by\n" +
			"independent modules and resolves nested paths such as\n" +
			"users/{id}/cars-owned into the links they denote.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "SQLite data directory (default: platform data dir)")
	pf.StringVar(&a.flags.backend, "backend", "", "storage backend, overrides config.yaml")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newRoutesCmd(a),
		newResolveCmd(a),
		newLinkCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newServeCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "linknav:", err)
		os.Exit(exitCode(err))
	}
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	dir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError("resolve config dir: %w", err)
	}
	v, err := loadConfig(dir)
	if err != nil {
		return sysError("%w", err)
	}
	log, err := logging.New(v.GetString(cfgKeyLogLevel), v.GetString(cfgKeyLogFormat))
	if err != nil {
		return userError("%w", err)
	}

	a.configDir, a.v, a.log = dir, v, log
	return nil
}

// openStore opens the configured backend. The caller must Close it.
func (a *app) openStore(ctx context.Context) (types.LinkStore, error) {
	cfg, err := storeConfig(a.v, a.flags.backend, a.flags.dataDir)
	if err != nil {
		return nil, sysError("%w", err)
	}
	store, err := linkstore.Open(ctx, cfg, a.log)
	if err != nil {
		if isConfigError(err) {
			return nil, userError("%w", err)
		}
		return nil, sysError("%w", err)
	}
	return store, nil
}

// backend names the backend openStore uses: --backend wins over config.
func (a *app) backend() string {
	if a.flags.backend != "" {
		return a.flags.backend
	}
	return a.v.GetString(cfgKeyBackend)
}

// loadLinks reads the links configuration named by links_config.
func (a *app) loadLinks() (types.LinksConfig, error) {
	path := paths.LinksFile(a.configDir, a.v.GetString(cfgKeyLinksConfig))
	cfg, err := linkconfig.Load(path)
	if err != nil {
		return types.LinksConfig{}, userError("%w", err)
	}
	return cfg, nil
}

func isConfigError(err error) bool {
	for _, target := range []error{
		types.ErrBackendEmpty, types.ErrBackendUnknown,
		types.ErrMissingDSN, types.ErrMissingURI, types.ErrMissingAddr,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// print writes v as indented JSON in --json mode, or calls text otherwise.
func (a *app) print(w io.Writer, v any, text func(io.Writer)) error {
	if a.flags.jsonMode {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return sysError("encode output: %w", err)
		}
		return nil
	}
	text(w)
	return nil
}
