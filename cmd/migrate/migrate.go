// Package migrate implements the migrate command that applies the
// database schema.
package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/pricewatch/cmd/common"
	"github.com/jonesrussell/pricewatch/internal/database"
)

// Command returns the migrate command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.Build()
			if err != nil {
				return err
			}
			defer deps.Close()

			if err := database.EnsureSchema(cmd.Context(), deps.DB); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}

			deps.Logger.Info("database schema is up to date")
			return nil
		},
	}
}
