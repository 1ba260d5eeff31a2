// Package scrape implements the scrape command that runs one store's
// scrape job, or all registered stores concurrently.
package scrape

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/pricewatch/cmd/common"
	"github.com/jonesrussell/pricewatch/internal/config"
)

// Command returns the scrape command.
func Command() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "scrape [store]",
		Short: "Run a scrape job for one store, or all stores with --all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return errors.New("specify a store or pass --all")
			}

			deps, err := common.Build()
			if err != nil {
				return err
			}
			defer deps.Close()

			ctx := cmd.Context()

			if all {
				if runErr := deps.Coordinator.RunAll(ctx); runErr != nil {
					return fmt.Errorf("one or more stores failed: %w", runErr)
				}
			} else {
				if runErr := deps.Coordinator.RunScraping(ctx, args[0]); runErr != nil {
					return runErr
				}
			}

			return deps.Coordinator.WaitForIdle(ctx, config.DefaultWaitTimeout, config.DefaultPollInterval)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "scrape every registered store")

	return cmd
}
