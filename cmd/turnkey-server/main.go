package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"

	server "github.com/hostelops/turnkey/internal"
	"github.com/hostelops/turnkey/internal/booking"
	bookingrepo "github.com/hostelops/turnkey/internal/booking/repositoryimpl"
	"github.com/hostelops/turnkey/internal/config"
	"github.com/hostelops/turnkey/internal/driver"
	"github.com/hostelops/turnkey/internal/eventbus"
	"github.com/hostelops/turnkey/internal/history"
	historyrepo "github.com/hostelops/turnkey/internal/history/repositoryimpl"
	"github.com/hostelops/turnkey/internal/hook"
	"github.com/hostelops/turnkey/internal/notification"
	"github.com/hostelops/turnkey/internal/operator"
	operatorrepo "github.com/hostelops/turnkey/internal/operator/repositoryimpl"
	"github.com/hostelops/turnkey/internal/pushsubscription"
	pushsubrepo "github.com/hostelops/turnkey/internal/pushsubscription/repositoryimpl"
	"github.com/hostelops/turnkey/internal/schedule"
	"github.com/hostelops/turnkey/internal/task"
	taskrepo "github.com/hostelops/turnkey/internal/task/repositoryimpl"
	"github.com/hostelops/turnkey/internal/task/status"
	"github.com/hostelops/turnkey/pkg/clog"
	"github.com/hostelops/turnkey/pkg/storage"
)

var (
	app = kingpin.New("turnkey-server", "Housekeeping task scheduling and audit history service.")

	runCmd      = app.Command("run", "Run the HTTP server.").Default()
	sentinelCmd = app.Command("sentinel", "Run the server under the sentinel supervisor.")

	sweepCmd     = app.Command("sweep", "Reconcile stored bookings with their derived tasks.")
	sweepWorkers = sweepCmd.Flag("workers", "Concurrent bookings to sweep.").Default("4").Int()
)

func main() {
	switch kingpin.MustParse(app.Parse(os.Args[1:])) {
	case runCmd.FullCommand():
		runServer()
	case sentinelCmd.FullCommand():
		runSentinel()
	case sweepCmd.FullCommand():
		runSweep(*sweepWorkers)
	}
}

// wiring is the assembled object graph shared by the run and sweep commands.
type wiring struct {
	env       *config.Env
	store     storage.Storage
	bus       *eventbus.Bus
	tasks     task.Repository
	bookings  booking.Repository
	history   history.Repository
	operators operator.Repository
	pushSubs  pushsubscription.Repository
	tracker   *history.Tracker
	drivers   []*driver.Driver
	sender    *notification.Sender
}

func buildWiring() (*wiring, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}
	setupLogger(env)

	store, err := setupStorage(env)
	if err != nil {
		return nil, err
	}

	bus := eventbus.New()

	taskRepo := taskrepo.NewYAMLRepository(store)
	bookingRepo := bookingrepo.NewYAMLRepository(store)
	historyRepo := historyrepo.NewYAMLRepository(store)
	operatorRepo := operatorrepo.NewYAMLRepository(store)
	pushSubRepo := pushsubrepo.NewYAMLRepository(store)

	directory := operator.NewDirectory(operatorRepo)
	tracker := task.NewHistoryTracker(historyRepo, directory, status.Label, history.WithBus(bus))

	hooks, err := hook.NewRunner(map[string]string{
		hook.EventTaskCreated:   env.HookEnv.TaskCreated,
		hook.EventTaskCancelled: env.HookEnv.TaskCancelled,
	}, time.Duration(env.HookEnv.TimeoutSeconds)*time.Second)
	if err != nil {
		return nil, err
	}

	deps := driver.Deps{
		Tasks:   taskRepo,
		Tracker: tracker,
		Bus:     bus,
		Hooks:   hooks,
	}
	drivers, err := buildDrivers(env, deps)
	if err != nil {
		return nil, err
	}

	vapidEnv := config.VAPIDEnvFromEnv(env)
	sender := notification.NewSender(vapidEnv, pushSubRepo)

	return &wiring{
		env:       env,
		store:     store,
		bus:       bus,
		tasks:     taskRepo,
		bookings:  bookingRepo,
		history:   historyRepo,
		operators: operatorRepo,
		pushSubs:  pushSubRepo,
		tracker:   tracker,
		drivers:   drivers,
		sender:    sender,
	}, nil
}

func runServer() {
	w, err := buildWiring()
	if err != nil {
		slog.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	directory := operator.NewDirectory(w.operators)
	machine := status.NewMachine(w.tasks, w.tracker, w.sender)

	taskServer := task.NewServer(w.tasks, machine, w.tracker, w.bus)
	historyServer := history.NewServer(
		w.history,
		func(repo history.Repository) *history.Tracker {
			return task.NewHistoryTracker(repo, directory, status.Label)
		},
		func() history.PreviewRepository { return historyrepo.NewMemoryRepository() },
	)
	driverServer := driver.NewServer(w.bookings, w.drivers, w.bus)
	operatorServer := operator.NewServer(w.operators)
	pushSubServer := pushsubscription.NewServer(w.pushSubs)

	srv := server.NewServer(w.env, taskServer, historyServer, driverServer, operatorServer, pushSubServer)

	dispatcher := notification.NewDispatcher(w.bus, w.tasks, w.sender)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	go dispatcher.Start(ctx)

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func runSweep(workers int) {
	w, err := buildWiring()
	if err != nil {
		slog.Error("failed to build sweeper", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	sweeper := driver.NewSweeper(w.bookings, w.tasks, w.drivers, workers)
	col, err := sweeper.Sweep(ctx)
	if err != nil {
		slog.Error("sweep failed", "error", err)
		os.Exit(1)
	}
	slog.Info("sweep complete", "created", len(col.Created))
}

func setupLogger(env *config.Env) {
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))
}

func setupStorage(env *config.Env) (storage.Storage, error) {
	switch env.StorageEnv.Type {
	case "s3":
		return storage.NewS3Storage(context.Background(), env.StorageEnv.S3Bucket, env.StorageEnv.S3Prefix, env.StorageEnv.S3Region)
	default:
		return storage.NewLocalStorage(env.StorageEnv.BaseDir)
	}
}

func buildDrivers(env *config.Env, deps driver.Deps) ([]*driver.Driver, error) {
	cleaning, err := driver.NewCleaning(driver.Config{
		Schedules:   parseSchedules(env.DriverEnv.CleaningSchedules),
		AutoAssign:  env.DriverEnv.CleaningAutoAssign,
		OperatorIDs: splitIDs(env.DriverEnv.CleaningOperators),
	}, deps)
	if err != nil {
		return nil, err
	}
	maintenance, err := driver.NewMaintenance(driver.Config{
		Schedules:   parseSchedules(env.DriverEnv.MaintenanceSchedules),
		AutoAssign:  env.DriverEnv.MaintenanceAutoAssign,
		OperatorIDs: splitIDs(env.DriverEnv.MaintenanceOperators),
	}, deps)
	if err != nil {
		return nil, err
	}
	sprint, err := driver.NewSprintboard(driver.Config{
		Schedules:   parseSchedules(env.DriverEnv.SprintSchedules),
		AutoAssign:  env.DriverEnv.SprintAutoAssign,
		OperatorIDs: splitIDs(env.DriverEnv.SprintOperators),
	}, deps)
	if err != nil {
		return nil, err
	}
	return []*driver.Driver{cleaning, maintenance, sprint}, nil
}

func parseSchedules(raw string) []schedule.Type {
	var out []schedule.Type
	for _, s := range splitIDs(raw) {
		t, err := schedule.Parse(s)
		if err != nil {
			slog.Warn("ignoring unknown schedule type", "type", s)
			continue
		}
		out = append(out, t)
	}
	return out
}

func splitIDs(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
