// Package ops implements the ops command that displays recent agent
// operations in a formatted table.
package ops

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/pricewatch/cmd/common"
	"github.com/jonesrussell/pricewatch/internal/domain"
)

const defaultLimit = 20

// Command returns the ops command.
func Command() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "ops",
		Short: "List recent scraping operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.Build()
			if err != nil {
				return err
			}
			defer deps.Close()

			return run(cmd.Context(), deps, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", defaultLimit, "maximum number of operations to show")

	return cmd
}

func run(ctx context.Context, deps *common.Deps, limit int) error {
	operations, err := deps.Coordinator.OperationStats(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list operations: %w", err)
	}

	if len(operations) == 0 {
		fmt.Println("No operations recorded yet.")
		return nil
	}

	renderTable(operations)
	return nil
}

// renderTable formats and displays the operations in a table format.
func renderTable(operations []*domain.Operation) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"ID", "Store", "Status", "Started", "Duration", "Processed", "Updated", "New", "Error"})

	for _, op := range operations {
		duration := "-"
		if op.EndTime != nil {
			duration = op.EndTime.Sub(op.StartTime).Round(timeResolution).String()
		}

		errMsg := ""
		if op.ErrorMessage != nil {
			errMsg = *op.ErrorMessage
		}

		t.AppendRow(table.Row{
			shortID(op.ID),
			op.TargetStore,
			op.Status,
			op.StartTime.Format(timeFormat),
			duration,
			op.ItemsProcessed,
			op.ItemsUpdated,
			op.ItemsNew,
			errMsg,
		})
	}

	t.Render()
}

const (
	timeFormat     = "2006-01-02 15:04:05"
	timeResolution = time.Second
	shortIDLen     = 8
)

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}
