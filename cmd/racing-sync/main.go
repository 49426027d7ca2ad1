// racing-sync mirrors a credentialed racing API into a PostgreSQL
// warehouse and maintains its derived-statistics tables.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/racing-sync/internal/checkpoint"
	"github.com/yourusername/racing-sync/internal/config"
	"github.com/yourusername/racing-sync/internal/controller"
	"github.com/yourusername/racing-sync/internal/database"
	"github.com/yourusername/racing-sync/internal/extractor"
	"github.com/yourusername/racing-sync/internal/fetcher"
	"github.com/yourusername/racing-sync/internal/health"
	"github.com/yourusername/racing-sync/internal/logger"
	"github.com/yourusername/racing-sync/internal/metrics"
	"github.com/yourusername/racing-sync/internal/racingapi"
	"github.com/yourusername/racing-sync/internal/repository"
	"github.com/yourusername/racing-sync/internal/scheduler"
	"github.com/yourusername/racing-sync/internal/stats"
)

// Exit codes.
const (
	exitOK      = 0
	exitPartial = 1
	exitConfig  = 2
	exitAuth    = 3
)

var errConfig = errors.New("configuration error")

var manualTables = []string{
	"bookmakers", "courses", "jockeys", "owners", "races",
	"results", "statistics", "trainers",
}

var (
	cfgFile   string
	testMode  bool
	tableFlag string
	startDate string
	endDate   string
	daysBack  int
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		var authErr *racingapi.AuthenticationError
		switch {
		case errors.Is(err, errConfig):
			os.Exit(exitConfig)
		case errors.As(err, &authErr):
			os.Exit(exitAuth)
		default:
			// Partial runs and runtime errors alike leave the window
			// incomplete; both mean "run it again".
			os.Exit(exitPartial)
		}
	}
	os.Exit(exitOK)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "racing-sync",
		Short:         "Sync the racing API into the PostgreSQL warehouse",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default config/config.yaml)")
	root.PersistentFlags().BoolVar(&testMode, "test", false, "cap page walks for a quick smoke run")

	manual := &cobra.Command{
		Use:   "manual",
		Short: "Fetch one table family over an explicit date window",
		RunE:  runManual,
	}
	manual.Flags().StringVar(&tableFlag, "table", "", "table to fetch (see 'racing-sync list')")
	manual.Flags().StringVar(&startDate, "start-date", "", "window start (YYYY-MM-DD)")
	manual.Flags().StringVar(&endDate, "end-date", "", "window end (YYYY-MM-DD)")
	manual.Flags().IntVar(&daysBack, "days-back", 0, "window of the last N days (instead of --start-date)")
	manual.MarkFlagsMutuallyExclusive("start-date", "days-back")
	_ = manual.MarkFlagRequired("table")

	root.AddCommand(
		&cobra.Command{
			Use:   "backfill",
			Short: "Run the checkpointed historical backfill",
			RunE:  runBackfill,
		},
		&cobra.Command{
			Use:   "daily",
			Short: "Run the incremental daily sync",
			RunE:  runDaily,
		},
		manual,
		&cobra.Command{
			Use:   "scheduled",
			Short: "Run continuously on the standard cadence",
			RunE:  runScheduled,
		},
		&cobra.Command{
			Use:   "list",
			Short: "List the tables 'manual' can fetch",
			Run: func(cmd *cobra.Command, args []string) {
				for _, t := range manualTables {
					fmt.Println(t)
				}
			},
		},
		&cobra.Command{
			Use:   "show-schedule",
			Short: "Show the scheduled job cadence",
			RunE:  runShowSchedule,
		},
		&cobra.Command{
			Use:   "check",
			Short: "Verify configuration, database and API connectivity",
			RunE:  runCheck,
		},
	)

	return root
}

// app holds the wired service graph for one command invocation.
type app struct {
	cfg    *config.Config
	log    *logrus.Logger
	db     *database.DB
	client racingapi.Client
	ctrl   *controller.Controller
	sched  *scheduler.Scheduler
	health *health.Server
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadWithDefaults(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errConfig, err)
	}

	if secretName := os.Getenv("RACING_SYNC_AWS_SECRET_NAME"); secretName != "" {
		region := os.Getenv("AWS_REGION")
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			return nil, fmt.Errorf("%w: %v", errConfig, err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", errConfig, err)
	}

	if testMode {
		// A smoke run should finish in minutes: a week of backfill and
		// capped page walks instead of the full history.
		cfg.Sync.BackfillStartDate = time.Now().UTC().AddDate(0, 0, -7).Format("2006-01-02")
	}

	log := logger.NewLogger(cfg.App.LogLevel)
	metrics.InitRegistry()

	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	repos, err := repository.NewRepositories(db, repository.Settings{
		BatchSize:        cfg.Sync.BatchSize,
		WriteConcurrency: cfg.Sync.WriteConcurrency,
	}, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	limiter := racingapi.NewRateLimiter(&cfg.RacingAPI)
	client := racingapi.NewHTTPClient(&cfg.RacingAPI, limiter, log)

	ext := extractor.New(client, repos.Horse, log)
	regions := cfg.RacingAPI.Regions

	store, err := checkpoint.NewStore(cfg.Sync.CheckpointDir)
	if err != nil {
		db.Close()
		return nil, err
	}

	statsService := stats.NewService(repos.Statistics, &cfg.Statistics, log)
	runLog := logger.NewRunLogger(cfg.App.LogDir, log)

	ctrl := controller.New(
		cfg,
		fetcher.NewReferenceFetcher(client, repos, regions, log),
		fetcher.NewPeopleFetcher(client, repos, regions, log, testMode),
		fetcher.NewRaceFetcher(client, repos, ext, regions, log),
		fetcher.NewResultsFetcher(client, repos, regions, log),
		statsService,
		store,
		runLog,
		log,
	)

	a := &app{
		cfg:    cfg,
		log:    log,
		db:     db,
		client: client,
		ctrl:   ctrl,
		sched:  scheduler.New(ctrl, log),
	}
	if cfg.Metrics.Enabled {
		a.health = health.NewServer(cfg.App.Name, &cfg.Metrics, db, log)
	}
	return a, nil
}

func (a *app) close() {
	a.db.Close()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runBackfill(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	return a.ctrl.Backfill(ctx)
}

func runDaily(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	return a.ctrl.Daily(ctx)
}

func runManual(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	from, to, err := manualWindow()
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	return a.ctrl.Manual(ctx, tableFlag, from, to)
}

// manualWindow resolves the date flags; window-less tables get a
// trailing week by default. Test mode caps the window at a week no
// matter what the flags say.
func manualWindow() (time.Time, time.Time, error) {
	now := time.Now().UTC().Truncate(24 * time.Hour)
	from := now.AddDate(0, 0, -7)
	to := now

	if endDate != "" {
		t, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid --end-date %q", errConfig, endDate)
		}
		to = t
		from = to.AddDate(0, 0, -7)
	}
	switch {
	case daysBack > 0:
		from = to.AddDate(0, 0, -daysBack)
	case startDate != "":
		t, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid --start-date %q", errConfig, startDate)
		}
		from = t
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: --end-date before --start-date", errConfig)
	}
	if testMode {
		if capped := to.AddDate(0, 0, -7); from.Before(capped) {
			from = capped
		}
	}
	return from, to, nil
}

func runScheduled(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if a.health != nil {
		if err := a.health.Start(ctx); err != nil {
			return err
		}
		a.health.SetReady(true)
	}

	if err := a.sched.Start(); err != nil {
		return err
	}
	a.log.Info("Running on schedule, press Ctrl+C to stop")

	<-ctx.Done()
	a.sched.Stop()
	return nil
}

func runShowSchedule(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		// The schedule itself needs no database; still report config
		// problems the same way as every other command.
		return err
	}
	defer a.close()

	jobs := a.sched.Jobs()
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })
	for _, job := range jobs {
		fmt.Printf("%-20s %s\n", job.Name, job.Spec)
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.db.Ping(ctx); err != nil {
		return fmt.Errorf("database check failed: %w", err)
	}
	fmt.Println("database: ok")

	if _, err := a.client.Bookmakers(ctx); err != nil {
		return fmt.Errorf("racing API check failed: %w", err)
	}
	fmt.Println("racing API: ok")

	return nil
}
