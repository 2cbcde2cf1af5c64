// cmd/storefront/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	appcfg "storefront/internal/infra/config"
	"storefront/internal/infra/logging"
	"storefront/internal/platform/di"
)

var version = "0.1.0"

// app holds what every subcommand shares after PersistentPreRunE.
type app struct {
	cfg     *appcfg.Config
	log     *zap.Logger
	offline bool
	jsonOut bool
	cfgPath string
	dbPath  string
}

func main() {
	a := &app{}
	root := newRootCmd(a)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()

	if a.log != nil {
		_ = a.log.Sync()
	}
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "storefront",
		Short: "Storefront cart-sync client",
		Long: `Storefront keeps a shopping cart in step between this device and the
signed-in user's cloud cart, and places orders from it.

Examples:
  storefront products --categories electronics --max-price 100
  storefront cart add 3
  storefront login "$ID_TOKEN"
  storefront checkout --first-name Ada --last-name Lovelace ...
  storefront serve`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.cfgPath != "" {
				if err := os.Setenv("STOREFRONT_CONFIG", a.cfgPath); err != nil {
					return err
				}
			}
			cfg, err := appcfg.Load()
			if err != nil {
				return err
			}
			if a.offline {
				cfg.Offline = true
			}
			if a.dbPath != "" {
				cfg.LocalDBPath = a.dbPath
			}
			logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logger
			return nil
		},
	}

	root.PersistentFlags().BoolVar(&a.offline, "offline", false, "Use in-memory remote stores and unsigned dev tokens")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "Output as JSON")
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "YAML config file (overrides STOREFRONT_CONFIG)")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "Local database path (overrides LOCAL_DB_PATH)")

	root.AddCommand(
		serveCmd(a),
		loginCmd(a),
		logoutCmd(a),
		whoamiCmd(a),
		cartCmd(a),
		checkoutCmd(a),
		ordersCmd(a),
		productsCmd(a),
		contactCmd(a),
	)
	return root
}

// withContainer builds the container, restores the remembered session and
// runs fn. The container is closed (flushing cart writes) afterwards.
func (a *app) withContainer(ctx context.Context, restore bool, fn func(*di.Container) error) error {
	c, err := di.Build(ctx, a.cfg, a.log)
	if err != nil {
		return err
	}
	if restore {
		c.Restore(ctx)
	}
	runErr := fn(c)
	if err := c.Close(); err != nil {
		a.log.Warn("close", zap.Error(err))
	}
	return runErr
}

// print writes v as JSON when --json is set, otherwise calls text.
func (a *app) print(cmd *cobra.Command, v any, text func()) error {
	if a.jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text()
	return nil
}

func (a *app) printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
