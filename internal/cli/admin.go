package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete resolved incidents of this instance beyond retention",
	Run:   runCleanup,
}

var (
	resetConfirm bool

	resetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Delete every heartbeat, heartbeat group and incident of the BetterStack account",
		Run:   runReset,
	}
)

func init() {
	resetCmd.Flags().BoolVar(&resetConfirm, "yes", false, "confirm deletion")
	rootCmd.AddCommand(cleanupCmd, resetCmd)
}

func runCleanup(cmd *cobra.Command, args []string) {
	app := newWatcher()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	deleted, err := app.Cleanup(ctx)
	if err != nil {
		slog.Error("Failed to clean up incidents", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Deleted %d resolved incidents\n", deleted)
}

func runReset(cmd *cobra.Command, args []string) {
	if !resetConfirm {
		fmt.Println("Refusing to reset without --yes")
		os.Exit(1)
	}

	app := newWatcher()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := app.Reset(ctx); err != nil {
		slog.Error("Failed to reset BetterStack account", "error", err)
		os.Exit(1)
	}
	fmt.Println("Deleted every heartbeat, heartbeat group and incident")
}
