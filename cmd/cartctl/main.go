package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/storage"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// app holds the services every command runs against.
type app struct {
	cfg     *config.Config
	catalog catalog.Service
	carts   cart.Service
	close   func() error
}

type appBuilder func(ctx context.Context) (*app, error)

func main() {
	_ = godotenv.Load()

	rootCmd, closeApp := newRootCmd(buildApp)
	if err := execute(rootCmd, closeApp); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(exitCode(err))
	}
}

// execute runs the command tree and always releases the app, including when a
// command fails.
func execute(rootCmd *cobra.Command, closeApp func() error) (err error) {
	defer func() {
		err = multierr.Append(err, closeApp())
	}()
	return rootCmd.Execute()
}

// exitCode is 2 for rejected input and 1 for everything else.
func exitCode(err error) int {
	if pkgerrors.HasCode(err, pkgerrors.CodeValidation) || pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		return 2
	}
	return 1
}

func newRootCmd(build appBuilder) (*cobra.Command, func() error) {
	var (
		current *app
		session string
	)

	rootCmd := &cobra.Command{
		Use:   "cartctl",
		Short: "Inspect and edit storefront carts from the terminal",
		Long: `cartctl drives the same cart service the HTTP API uses.

Carts are addressed by session id. Point STOREFRONT_STORAGE_BACKEND at
redis, postgres or sqlite to share carts with a running API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(cmd.Context())
			if err != nil {
				return err
			}
			current = a
			if a.cfg != nil && a.cfg.Storage.NormalizedBackend() == config.StorageBackendMemory && usesCart(cmd) {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: memory storage backend, carts are not kept between invocations")
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&session, "session", "s", "", "session id the cart is stored under")

	deps := func() *app { return current }
	scope := func() (string, error) {
		if session == "" {
			return "", fmt.Errorf("--session is required")
		}
		return session, nil
	}

	rootCmd.AddCommand(
		productsCmd(deps),
		listCmd(deps, scope),
		addCmd(deps, scope),
		removeCmd(deps, scope),
		clearCmd(deps, scope),
		totalCmd(deps, scope),
		sessionCmd(deps),
	)

	closeApp := func() error {
		if current == nil || current.close == nil {
			return nil
		}
		a := current
		current = nil
		return a.close()
	}
	return rootCmd, closeApp
}

func usesCart(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "products", "session":
		return false
	}
	return true
}

func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logg := logger.New(logger.Options{
		ServiceName: "cartctl",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		Output:      os.Stderr,
	})

	stack, err := storage.Open(ctx, cfg, logg)
	if err != nil {
		return nil, err
	}

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Lister: catalog.NewClient(
			catalog.WithBaseURL(cfg.Catalog.BaseURL),
			catalog.WithTimeout(cfg.Catalog.Timeout),
			catalog.WithBreaker(cfg.Catalog.BreakerMaxFailures, cfg.Catalog.BreakerOpenTimeout),
		),
		CacheTTL: cfg.Catalog.CacheTTL,
		PageSize: cfg.Catalog.PageSize,
		Logger:   logg.Named("catalog"),
	})
	if err != nil {
		_ = stack.Close()
		return nil, err
	}

	carts, err := cart.NewService(cart.ServiceParams{
		Backend: stack.Backend,
		Catalog: catalogService,
		Logger:  logg.Named("cart"),
	})
	if err != nil {
		_ = stack.Close()
		return nil, err
	}

	return &app{cfg: cfg, catalog: catalogService, carts: carts, close: stack.Close}, nil
}
