package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"todo-planner/internal/api"
	"todo-planner/internal/auth"
	"todo-planner/internal/bot"
	"todo-planner/internal/config"
	"todo-planner/internal/logging"
	"todo-planner/internal/repository"
	"todo-planner/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		logging.New(logging.Config{Service: "todoapi"}).Error("stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := logging.New(logging.Config{
		Level:   cfg.LogLevel,
		Format:  logging.Format(cfg.LogFormat),
		Service: "todoapi",
	})

	stores, err := repository.Open(ctx, cfg.DatabaseURL, cfg.DatabaseSQLDriver, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer stores.Close()
	logger.Info("database ready", "backend", stores.Backend)

	taskSvc := service.NewTaskService(stores.Tasks, logger)

	// Build the bot before anything starts serving.
	var telegramBot *bot.Bot
	if cfg.BotEnabled() && stores.Users != nil {
		telegramBot, err = bot.NewFromToken(cfg.TelegramToken, stores.Users, taskSvc, service.NewReminderService(taskSvc), logger)
		if err != nil {
			return fmt.Errorf("telegram bot: %w", err)
		}
		scheduler, err := scheduleReports(cfg, telegramBot, logger)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	serverCfg := api.DefaultServerConfig()
	serverCfg.Addr = cfg.HTTPAddr
	serverCfg.CORSOrigins = cfg.CORSOrigins
	server := api.NewServer(serverCfg, taskSvc, auth.NewJWTVerifier(cfg.AuthSecret), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if telegramBot != nil {
		g.Go(func() error {
			if err := telegramBot.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

// scheduleReports registers the digest job: daily at REPORT_AT when set,
// otherwise every REPORT_INTERVAL_HOURS.
func scheduleReports(cfg config.Config, telegramBot *bot.Bot, logger *slog.Logger) (*service.SchedulerService, error) {
	scheduler := service.NewSchedulerService(time.Local, logger)
	report := func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := telegramBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("send reports", "error", err)
		}
	}

	var err error
	if cfg.ReportAt != "" {
		_, err = scheduler.ScheduleDaily(cfg.ReportAt, report)
	} else {
		_, err = scheduler.ScheduleInterval(cfg.ReportInterval, report)
	}
	if err != nil {
		return nil, fmt.Errorf("schedule reports: %w", err)
	}
	return scheduler, nil
}
