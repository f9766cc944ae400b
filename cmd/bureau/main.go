package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/freedmens-bureau/bureau/db"
	"github.com/freedmens-bureau/bureau/internal/auth"
	"github.com/freedmens-bureau/bureau/internal/cache"
	"github.com/freedmens-bureau/bureau/internal/config"
	"github.com/freedmens-bureau/bureau/internal/handlers"
	"github.com/freedmens-bureau/bureau/internal/importer"
	"github.com/freedmens-bureau/bureau/internal/logger"
	"github.com/freedmens-bureau/bureau/internal/models"
	"github.com/freedmens-bureau/bureau/internal/router"
	"github.com/freedmens-bureau/bureau/internal/scheduler"
	"github.com/freedmens-bureau/bureau/internal/services"
	"github.com/freedmens-bureau/bureau/internal/settings"
	"github.com/freedmens-bureau/bureau/internal/stats"
	"github.com/freedmens-bureau/bureau/internal/types"
)

const serviceName = "bureau"

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Freedmen's Bureau personnel records service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(
		serveCommand(),
		migrateCommand(),
		setNeedsBackfillingCommand(),
		createAdminCommand(),
		importCommand("import-countries", "Import countries from a GeoNames countryInfo.txt dump", (*importer.Importer).ImportCountries),
		importCommand("import-regions", "Import regions from a GeoNames admin1CodesASCII.txt dump", (*importer.Importer).ImportRegions),
		importCommand("import-cities", "Import cities from a GeoNames cities dump", (*importer.Importer).ImportCities),
	)

	return root
}

// env holds the configuration and logger of a command that has connected to the database.
type env struct {
	cfg *config.Config
	log *zap.Logger
}

func setup(server bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if server {
		err = cfg.ValidateServer()
	} else {
		err = cfg.ValidateDatabase()
	}
	if err != nil {
		return nil, err
	}

	log, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat, serviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	if cfg.SettingsFile != "" {
		s, err := settings.Load(cfg.SettingsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load settings: %w", err)
		}
		settings.Set(s)
	}

	if err := db.ConnectDatabase(cfg.DatabaseURL, log); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &env{cfg: cfg, log: log}, nil
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Migrate the database and run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(true)
			if err != nil {
				return err
			}
			defer e.log.Sync()

			return serve(cmd.Context(), e)
		},
	}
}

func serve(ctx context.Context, e *env) error {
	cfg, log := e.cfg, e.log

	if err := db.MigrateDatabase(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := auth.InitJWTSecret(cfg.JWTSecret); err != nil {
		return err
	}

	var snapshots cache.Cache
	if cfg.RedisURL != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rdb.Close()
		snapshots = cache.NewRedisCache(rdb)
		log.Info("Using redis for stats snapshots")
	} else {
		snapshots = cache.NewMemoryCache(nil)
		log.Info("REDIS_URL not set, keeping stats snapshots in memory")
	}

	store := stats.NewStore(db.DB, snapshots, cfg.StatsCacheTTL, log.Named("stats"))

	var geoNames *services.GeoNamesClient
	if cfg.GeoNamesUsername != "" {
		geoNames = services.NewGeoNamesClient(services.GeoNamesConfig{
			BaseURL:       cfg.GeoNamesBaseURL,
			Username:      cfg.GeoNamesUsername,
			RatePerSecond: cfg.GeoNamesRatePerSecond,
		}, log.Named("geonames"))
	} else {
		log.Warn("GEONAMES_USERNAME not set, GeoNames lookups are disabled")
	}

	handlers.Configure(handlers.Dependencies{
		Logger:       log,
		Stats:        store,
		GeoNames:     geoNames,
		CookieDomain: cfg.CookieDomain,
	})

	if err := scheduler.Initialize(store, cfg.StatsRefreshInterval, log.Named("scheduler")); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer scheduler.Shutdown()

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.NewRouter(types.AllowedOrigins(cfg.AllowedOrigins), log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-quit:
		log.Info("Shutting down server", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server exited")
	return nil
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the tables that do not exist yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(false)
			if err != nil {
				return err
			}
			defer e.log.Sync()

			if err := db.MigrateDatabase(); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
			e.log.Info("Database migrated")
			return nil
		},
	}
}

func setNeedsBackfillingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-needs-backfilling <true|false>",
		Short: "Set needs_backfilling on every employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseBool(args[0])
			if err != nil {
				return fmt.Errorf("expected true or false, got %q", args[0])
			}

			e, err := setup(false)
			if err != nil {
				return err
			}
			defer e.log.Sync()

			result := db.DB.WithContext(cmd.Context()).
				Model(&models.Employee{}).
				Where("1 = 1").
				Update("needs_backfilling", value)
			if result.Error != nil {
				return result.Error
			}

			e.log.Info("Updated employees", zap.Bool("needs_backfilling", value), zap.Int64("count", result.RowsAffected))
			return nil
		},
	}
}

func createAdminCommand() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a user who can sign in to the admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(false)
			if err != nil {
				return err
			}
			defer e.log.Sync()

			if err := db.MigrateDatabase(); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}

			user, err := handlers.CreateAdmin(db.DB.WithContext(cmd.Context()), name, email, password)
			if err != nil {
				return err
			}

			e.log.Info("Admin created", zap.String("id", user.ID.String()), zap.String("email", user.Email))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "sign-in email")
	cmd.Flags().StringVar(&password, "password", "", "password, at least 8 characters")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

type importFunc func(i *importer.Importer, ctx context.Context, r io.Reader) (importer.Result, error)

func importCommand(use, short string, run importFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <file>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(false)
			if err != nil {
				return err
			}
			defer e.log.Sync()

			if err := db.MigrateDatabase(); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			imp := importer.New(db.DB, settings.Get(), e.log)
			result, err := run(imp, cmd.Context(), f)
			if err != nil {
				return fmt.Errorf("%s: %w", use, err)
			}

			e.log.Info("Import finished", zap.String("command", use), zap.String("result", result.String()))
			return nil
		},
	}
}
