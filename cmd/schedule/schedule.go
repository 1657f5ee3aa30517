package schedule

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/paularlott/cli"

	"github.com/ilee165/network-device-backup/internal/app"
	"github.com/ilee165/network-device-backup/internal/backup"
	"github.com/ilee165/network-device-backup/internal/log"
	"github.com/ilee165/network-device-backup/internal/notify"
	"github.com/ilee165/network-device-backup/internal/sched"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:        "schedule",
		Usage:       "Run scheduled backups",
		Description: "Run backups of all enabled devices on the configured cron schedule until interrupted",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:         "once",
				Usage:        "Run a single backup immediately and exit",
				DefaultValue: false,
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := app.LoadConfig(cmd)
			if err != nil {
				return err
			}

			engine, st, err := app.OpenEngine(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			notifier := notify.New(cfg.Notifications)

			runAll := func(runCtx context.Context) {
				result, err := engine.Run(runCtx, backup.Selection{})
				if err != nil {
					log.Error("Scheduled backup failed", "error", err)
					return
				}
				notifier.Send(result, backup.RenderReport(result))
			}

			scheduler, err := sched.New(cfg.Schedule.CronExpression, runAll)
			if err != nil {
				return err
			}

			if cmd.GetBool("once") {
				scheduler.RunNow(ctx)
				return nil
			}

			if !cfg.Schedule.Enabled {
				return fmt.Errorf("scheduling is disabled in settings.yaml (schedule.enabled: false)")
			}

			scheduler.Start()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			select {
			case <-sigChan:
			case <-ctx.Done():
			}

			log.Info("Shutting down scheduler...")
			scheduler.Stop()
			return nil
		},
	}
}
