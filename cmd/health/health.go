// Package health implements the health command that reports aggregate
// system health over recent operations.
package health

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/pricewatch/cmd/common"
)

// Command returns the health command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Report system health based on recent operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.Build()
			if err != nil {
				return err
			}
			defer deps.Close()

			health, err := deps.Coordinator.SystemHealth(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to compute system health: %w", err)
			}

			fmt.Printf("Status:       %s\n", health.Status)
			fmt.Printf("Window:       %s\n", health.Window)
			fmt.Printf("Operations:   %d\n", health.Operations)
			fmt.Printf("Completed:    %d\n", health.Completed)
			fmt.Printf("Failed:       %d\n", health.Failed)
			if health.Operations > 0 {
				fmt.Printf("Success rate: %.1f%%\n", health.SuccessRate*percent)
			}

			return nil
		},
	}
}

const percent = 100
