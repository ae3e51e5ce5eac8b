package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"todo-calendar/internal/bot"
	"todo-calendar/internal/metrics"
	"todo-calendar/internal/service"
)

func newBotCmd() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot with scheduled reports",
		Long: `Poll Telegram for updates and answer commands until interrupted.

Reports are sent every REPORT_INTERVAL_HOURS and, when REPORT_AT is set,
once a day at that time. With a metrics address, Prometheus metrics are
served on /metrics next to a /healthz probe.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.cfg.RequireToken(); err != nil {
				return err
			}
			if cmd.Flags().Changed("metrics-addr") {
				a.cfg.MetricsAddr = metricsAddr
			}

			m := metrics.New()
			telegramBot, err := bot.New(a.cfg.TelegramToken, bot.Services{
				Users:      a.users,
				Categories: service.NewCategoryService(a.categories),
				Tasks:      a.taskService(),
				Calendar:   a.calendarService(),
				Reminders:  service.NewReminderService(a.tasks, a.categories, a.cfg.Location),
			}, &a.cfg, a.log, m)
			if err != nil {
				return err
			}

			scheduler := service.NewSchedulerService(a.cfg.Location, a.log)
			if err := telegramBot.ScheduleReports(ctx, scheduler); err != nil {
				return err
			}
			scheduler.Start()
			defer scheduler.Stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return telegramBot.Start(gctx)
			})
			if a.cfg.MetricsAddr != "" {
				g.Go(func() error {
					return m.Serve(gctx, a.cfg.MetricsAddr, a.log)
				})
			}

			a.log.Info("todo calendar bot started", "version", version)
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			a.log.Info("shutdown complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Address for the metrics server, overrides METRICS_ADDR (e.g. :9090)")

	return cmd
}
