package main

import (
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"tenant-portal-backend/internal/config"
	"tenant-portal-backend/internal/jobs"
	"tenant-portal-backend/internal/logger"
	"tenant-portal-backend/internal/repository/postgres"
	"tenant-portal-backend/internal/scheduler"
	"tenant-portal-backend/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "cronjob",
		Short:         "Tenant Portal background jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.dev.yaml", "Path to configuration file")

	rootCmd.AddCommand(
		runCmd(&configPath),
		onceCmd(&configPath),
		listCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the cron scheduler until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			jobRunner, closeDB, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer closeDB()

			cronScheduler, err := scheduler.NewScheduler(jobRunner)
			if err != nil {
				return err
			}
			cronScheduler.Start()
			logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			<-sigChan

			logger.Info("Shutting down cronjob scheduler...")
			cronScheduler.Stop()
			logger.Info("Cronjob scheduler stopped. Goodbye!")
			return nil
		},
	}
}

func onceCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:       "once <job>",
		Short:     "Run a single job once and exit",
		Args:      cobra.ExactArgs(1),
		ValidArgs: jobs.NewJobRunner(nil, nil).Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobRunner, closeDB, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer closeDB()

			logger.Info("Running job once", "job", args[0])
			if err := jobRunner.Run(args[0]); err != nil {
				return fmt.Errorf("%w (see 'cronjob list')", err)
			}
			logger.Info("Job execution completed", "job", args[0])
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the jobs accepted by once",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Available jobs:")
			for _, name := range jobs.NewJobRunner(nil, nil).Names() {
				fmt.Printf("  - %s\n", name)
			}
		},
	}
}

// setup loads configuration, connects to the database and builds the job
// runner. The returned func closes the database.
func setup(configPath string) (*jobs.JobRunner, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Tenant Portal Cronjob Runner...", "log_level", cfg.Log.Level)

	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db, cfg.QueryTimeout())
	billingSvc := service.NewBillingService(store.RentalRepository, nil, cfg.Location())

	return jobs.NewJobRunner(billingSvc, cfg), func() { db.Close() }, nil
}
