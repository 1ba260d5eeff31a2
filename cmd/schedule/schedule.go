// Package schedule implements the schedule command: a daemon that runs a
// full scrape on a cron cadence.
package schedule

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/pricewatch/cmd/common"
)

// Command returns the schedule command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run periodic scrapes on the configured cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.Build()
			if err != nil {
				return err
			}
			defer deps.Close()

			log := deps.Logger.WithComponent("schedule")
			spec := deps.Config.Scheduler.Cron

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			scheduler := cron.New()
			_, addErr := scheduler.AddFunc(spec, func() {
				log.Info("scheduled scrape starting")
				if runErr := deps.Coordinator.RunAll(ctx); runErr != nil {
					log.Error("scheduled scrape finished with failures", "error", runErr)
					return
				}
				log.Info("scheduled scrape finished")
			})
			if addErr != nil {
				return fmt.Errorf("invalid cron spec %q: %w", spec, addErr)
			}

			scheduler.Start()
			log.Info("scheduler started", "cron", spec, "stores", deps.Coordinator.RegisteredAgents())

			// Block until interrupted.
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			log.Info("shutting down scheduler")
			cancel()
			<-scheduler.Stop().Done()

			return nil
		},
	}
}
