package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	_ "packd/docs" // This is required for swagger
	"packd/internal/apperr"
	"packd/internal/auth"
	"packd/internal/config"
	"packd/internal/handlers"
	"packd/internal/repository"
	"packd/internal/repository/memory"
	"packd/internal/routes"
	"packd/internal/service"
	"packd/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp() *cli.App {
	return &cli.App{
		Name:    "packd",
		Usage:   "Packing lists built from reusable categories",
		Version: Version,
		Commands: []*cli.Command{
			serveCmd(),
			migrateCmd(),
			importCmd(),
			createUserCmd(),
		},
	}
}

// openStore connects to the configured store. Postgres schemas are migrated first.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Printf("Warning: using the in-memory store; data is lost on exit")
		return memory.New(), nil
	}
	store, err := repository.Connect(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(ctx, store.Pool()); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

func accountsConfig(cfg *config.Config) service.AccountsConfig {
	return service.AccountsConfig{
		AdminGroup:  cfg.Auth.OIDCAdminGroup,
		StaffGroup:  cfg.Auth.OIDCStaffGroup,
		CreateUsers: cfg.Auth.OIDCCreateUser,
	}
}

// serveCmd runs the HTTP server until SIGINT or SIGTERM.
func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP server",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			store, err := openStore(c.Context, cfg)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer store.Close()

			return serve(cfg, newRouter(cfg, store))
		},
	}
}

// newRouter wires services and handlers over store.
func newRouter(cfg *config.Config, store repository.Store) http.Handler {
	categories := service.NewCategories(store)
	trips := service.NewTrips(store)
	importer := service.NewImporter(store)
	accounts := service.NewAccounts(store, accountsConfig(cfg))
	renderer := web.NewRenderer()

	return routes.SetupRoutes(routes.Handlers{
		Auth:       handlers.NewAuthHandler(accounts, cfg),
		Accounts:   handlers.NewAccountsHandler(accounts, auth.NewOIDC(cfg), cfg, renderer),
		Categories: handlers.NewCategoriesHandler(categories, importer),
		Trips:      handlers.NewTripsHandler(trips),
		Pages:      handlers.NewPagesHandler(categories, trips, cfg, renderer),
		Health:     handlers.NewHealthHandler(store),
	}, cfg)
}

func serve(cfg *config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-quit:
	}
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
		return err
	}
	log.Println("Server stopped.")
	return nil
}

// migrateCmd creates or upgrades the PostgreSQL schema.
func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or upgrade the database schema",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			if cfg.Database.Driver != config.DriverPostgres {
				return cli.Exit("migrate requires DB_DRIVER=postgres", 1)
			}
			store, err := openStore(c.Context, cfg)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			store.Close()
			log.Println("Schema is up to date.")
			return nil
		},
	}
}

// importCmd bulk-imports a packing list file for one user.
func importCmd() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import categories and items from a CSV or YAML file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Required: true, Usage: "Username that owns the imported categories"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "csv|yaml (defaults to the file extension)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("exactly one file is required", 1)
			}
			path := c.Args().First()
			rows, err := readImportFile(path, c.String("format"))
			if err != nil {
				return outputError(err)
			}

			cfg, err := config.Load()
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			store, err := openStore(c.Context, cfg)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer store.Close()

			user, err := store.GetUserByUsername(c.Context, c.String("user"))
			if err != nil {
				return outputError(err)
			}
			result, err := service.NewImporter(store).Import(c.Context, user.ID, rows)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(result)
		},
	}
}

// createUserCmd adds a local account.
func createUserCmd() *cli.Command {
	return &cli.Command{
		Name:  "createuser",
		Usage: "Create a local user (reads the password from PACKD_PASSWORD when --password is omitted)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true, Usage: "Login name"},
			&cli.StringFlag{Name: "email", Usage: "Email address"},
			&cli.StringFlag{Name: "password", EnvVars: []string{"PACKD_PASSWORD"}, Usage: "Password (min 8 characters)"},
			&cli.BoolFlag{Name: "staff", Usage: "Grant staff status"},
			&cli.BoolFlag{Name: "superuser", Usage: "Grant superuser and staff status"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			store, err := openStore(c.Context, cfg)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer store.Close()

			user, err := service.NewAccounts(store, accountsConfig(cfg)).Register(c.Context, service.NewUser{
				Username:    c.String("username"),
				Email:       c.String("email"),
				Password:    c.String("password"),
				IsStaff:     c.Bool("staff"),
				IsSuperuser: c.Bool("superuser"),
			})
			if err != nil {
				return outputError(err)
			}
			log.Printf("Created user %s (%s)", user.Username, user.ID)
			return nil
		},
	}
}

// outputJSON writes JSON output to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var aErr *apperr.Error
	if errors.As(err, &aErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", aErr.Code, aErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
