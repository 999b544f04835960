package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/chartseed/internal/config"
	"github.com/ehr/chartseed/internal/platform/auth"
	"github.com/ehr/chartseed/internal/platform/db"
	"github.com/ehr/chartseed/internal/platform/memstore"
	"github.com/ehr/chartseed/internal/platform/middleware"
	"github.com/ehr/chartseed/internal/platform/sandbox"
	"github.com/ehr/chartseed/migrations"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "chart-seeder",
		Short:        "Seed a development EHR database with synthetic clinical history",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(bootstrapCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds the zerolog logger: JSON by default, console output in
// development. Logs go to w (stderr) so stdout stays free for progress and
// exports.
func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	logger := zerolog.New(w).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.LogLevel)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return logger.Level(lvl)
}

// resolveCatalog picks the vocabulary: --catalog wins over CATALOG_FILE, and
// neither means the built-in catalog.
func resolveCatalog(flagPath, envPath string) (*sandbox.Catalog, error) {
	path := flagPath
	if path == "" {
		path = envPath
	}
	if path == "" {
		return sandbox.DefaultCatalog(), nil
	}
	return sandbox.LoadCatalog(path)
}

// migrationsFS returns the embedded migrations unless a directory is given.
func migrationsFS(dir string) fs.FS {
	if dir == "" {
		return migrations.FS
	}
	return os.DirFS(dir)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func connect(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return db.NewPool(ctx, cfg.DatabaseURL, cfg.DBSchema, cfg.DBMaxConns, cfg.DBMinConns)
}

// ---------------------------------------------------------------------------
// seed
// ---------------------------------------------------------------------------

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create consultations, exams, prescriptions and consents for every patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			if dryRun {
				return runDrySeed(cmd)
			}
			return runSeed(cmd)
		},
	}
	cmd.Flags().Int64("seed", 0, "Random seed (0 = SEED env or time-based)")
	cmd.Flags().Bool("skip-seeded", false, "Skip patients that already have consultations")
	cmd.Flags().String("catalog", "", "YAML file overriding the vocabulary catalog")
	cmd.Flags().Bool("dry-run", false, "Generate against an in-memory store and print NDJSON instead of writing")
	cmd.Flags().Int("patients", 5, "Patients to fake for --dry-run")
	cmd.Flags().Int("physicians", 3, "Physicians to fake for --dry-run")
	cmd.Flags().String("out", "", "NDJSON output file for --dry-run (default stdout)")
	cmd.Flags().String("kind", "", "Only export this record kind (consultation, exam, prescription, consent)")
	return cmd
}

func seedConfig(cmd *cobra.Command, cfg *config.Config) (sandbox.SeedConfig, error) {
	seed, _ := cmd.Flags().GetInt64("seed")
	if seed == 0 {
		seed = cfg.Seed
	}
	skip, _ := cmd.Flags().GetBool("skip-seeded")
	catalogPath, _ := cmd.Flags().GetString("catalog")

	catalog, err := resolveCatalog(catalogPath, cfg.CatalogFile)
	if err != nil {
		return sandbox.SeedConfig{}, err
	}
	return sandbox.SeedConfig{Seed: seed, SkipSeeded: skip, Catalog: catalog}, nil
}

func runSeed(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stderr)

	seedCfg, err := seedConfig(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	pool, err := connect(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer pool.Close()
	logger.Info().Str("schema", cfg.DBSchema).Msg("connected to database")

	seeder := sandbox.NewSeeder(sandbox.NewPGRepositories(pool), seedCfg, cmd.OutOrStdout(), logger)
	result, err := seeder.Run(ctx)
	if err != nil {
		logger.Error().Err(err).
			Int("patients", result.Patients).
			Int("records", result.TotalRecords).
			Msg("seeding aborted")
		return err
	}
	return nil
}

func runDrySeed(cmd *cobra.Command) error {
	cfg, err := config.LoadOffline()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stderr)

	seedCfg, err := seedConfig(cmd, cfg)
	if err != nil {
		return err
	}
	patients, _ := cmd.Flags().GetInt("patients")
	physicians, _ := cmd.Flags().GetInt("physicians")
	outPath, _ := cmd.Flags().GetString("out")
	kind, _ := cmd.Flags().GetString("kind")
	if kind != "" && !sandbox.IsRecordKind(kind) {
		return fmt.Errorf("unknown record kind %q (want one of %s)", kind, strings.Join(sandbox.RecordKinds, ", "))
	}

	ctx, stop := signalContext()
	defer stop()

	store := memstore.New()
	repos := sandbox.NewMemoryRepositories(store)

	bootCfg := sandbox.DefaultBootstrapConfig()
	bootCfg.Patients = patients
	bootCfg.Physicians = physicians
	bootCfg.Seed = seedCfg.Seed
	if _, err := sandbox.Bootstrap(ctx, repos, bootCfg); err != nil {
		return fmt.Errorf("bootstrap in-memory registries: %w", err)
	}

	if outPath == "" {
		return dryRunExport(ctx, repos, store, seedCfg, kind, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	err = dryRunExport(ctx, repos, store, seedCfg, kind, f, cmd.OutOrStdout(), logger)
	if cerr := f.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close %s: %w", outPath, cerr)
	}
	if err != nil {
		return err
	}
	logger.Info().Str("out", outPath).Msg("dry run exported")
	return nil
}

// dryRunExport seeds the in-memory store, printing progress to progress, and
// writes the generated rows to out as NDJSON.
func dryRunExport(ctx context.Context, repos sandbox.Repositories, store *memstore.Store, seedCfg sandbox.SeedConfig,
	kind string, out, progress io.Writer, logger zerolog.Logger) error {
	if _, err := sandbox.NewSeeder(repos, seedCfg, progress, logger).Run(ctx); err != nil {
		return err
	}

	snap := store.Snapshot()
	if kind != "" {
		return sandbox.ExportNDJSON(out, snap, kind)
	}
	return sandbox.ExportAll(out, snap)
}

// ---------------------------------------------------------------------------
// bootstrap
// ---------------------------------------------------------------------------

func bootstrapCmd() *cobra.Command {
	defaults := sandbox.DefaultBootstrapConfig()
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create fake patients, physicians and specialties",
		RunE: func(cmd *cobra.Command, args []string) error {
			bootCfg := sandbox.BootstrapConfig{}
			bootCfg.Patients, _ = cmd.Flags().GetInt("patients")
			bootCfg.Physicians, _ = cmd.Flags().GetInt("physicians")
			bootCfg.SpecialtiesPerPhysician, _ = cmd.Flags().GetInt("specialties")
			bootCfg.Seed, _ = cmd.Flags().GetInt64("seed")
			if err := bootCfg.Validate(); err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg, os.Stderr)

			ctx, stop := signalContext()
			defer stop()

			pool, err := connect(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			txCtx, tx, err := db.WithTx(ctx, pool)
			if err != nil {
				return err
			}
			defer tx.Rollback(ctx) //nolint:errcheck

			result, err := sandbox.Bootstrap(txCtx, sandbox.NewPGRepositories(pool), bootCfg)
			if err != nil {
				logger.Error().Err(err).Msg("bootstrap failed, rolling back")
				return err
			}
			if err := tx.Commit(ctx); err != nil {
				return fmt.Errorf("commit bootstrap: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %d patients, %d physicians, %d specialties and %d pairings.\n",
				result.Patients, result.Physicians, result.Specialties, result.Pairings)
			return nil
		},
	}
	cmd.Flags().Int("patients", defaults.Patients, "Patients to create")
	cmd.Flags().Int("physicians", defaults.Physicians, "Physicians to create")
	cmd.Flags().Int("specialties", defaults.SpecialtiesPerPhysician, "Specialties per physician")
	cmd.Flags().Int64("seed", 0, "Faker seed (0 = random)")
	return cmd
}

// ---------------------------------------------------------------------------
// migrate
// ---------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the clinical history tables",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, schema, dir, err := migrateArgs(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			pool, err := connect(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := db.EnsureSchema(ctx, pool, schema); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Running migrations on schema: %s\n", schema)
			count, err := db.NewMigrator(pool, migrationsFS(dir)).Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(out, "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, schema, dir, err := migrateArgs(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			pool, err := connect(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, migrationsFS(dir)).Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printMigrationStatus(cmd.OutOrStdout(), schema, statuses)
			return nil
		},
	}

	for _, c := range []*cobra.Command{upCmd, statusCmd} {
		c.Flags().String("schema", "", "Target schema (default DB_SCHEMA)")
		c.Flags().String("dir", "", "Migrations directory (default: embedded migrations)")
		cmd.AddCommand(c)
	}
	return cmd
}

func migrateArgs(cmd *cobra.Command) (*config.Config, string, string, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, "", "", err
	}
	schema, _ := cmd.Flags().GetString("schema")
	if schema == "" {
		schema = cfg.DBSchema
	}
	if !db.ValidSchema(schema) {
		return nil, "", "", fmt.Errorf("invalid schema name %q", schema)
	}
	dir, _ := cmd.Flags().GetString("dir")
	return cfg, schema, dir, nil
}

func printMigrationStatus(w io.Writer, schema string, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "Migration status for schema: %s\n", schema)
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

// ---------------------------------------------------------------------------
// serve
// ---------------------------------------------------------------------------

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Expose the seeder over HTTP for sandbox environments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stderr)

	catalog, err := resolveCatalog("", cfg.CatalogFile)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	pool, err := connect(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer pool.Close()
	logger.Info().Str("schema", cfg.DBSchema).Msg("connected to database")

	e, err := newServer(cfg, sandbox.NewPGRepositories(pool), catalog, logger)
	if err != nil {
		return err
	}
	e.GET("/health", db.HealthHandler(pool, cfg.DBSchema))

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newServer builds the echo instance with the sandbox routes mounted. Outside
// development the sandbox group requires an HS256 bearer token signed with
// JWT_SECRET.
func newServer(cfg *config.Config, repos sandbox.Repositories, catalog *sandbox.Catalog, logger zerolog.Logger) (*echo.Echo, error) {
	authMW := auth.DevAuthMiddleware()
	if !cfg.IsDev() {
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required when ENV is %q", cfg.Env)
		}
		authMW = auth.JWTMiddleware(auth.JWTConfig{
			SigningKey: []byte(cfg.JWTSecret),
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
		})
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))

	sandbox.NewSeedHandler(repos, catalog, logger).RegisterRoutes(e.Group("/sandbox", authMW))
	return e, nil
}
