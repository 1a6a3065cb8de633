package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/pairlink/internal/session"
)

func disconnectCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "disconnect",
		Short: "End the current pairing session",
		Run: func(cmd *cobra.Command, args []string) {
			runDisconnect(yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func runDisconnect(yes bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.close()

	if err := a.controller.Restore(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	s := a.controller.Session()
	if s.Status == session.StatusNone {
		fmt.Println("No active session.")
		return
	}

	if !yes {
		ok, err := promptConfirm(fmt.Sprintf("Disconnect session %s?", s.Code))
		if err != nil || !ok {
			fmt.Println("Cancelled.")
			return
		}
	}

	a.controller.Disconnect(ctx)
	fmt.Printf("Disconnected session %s.\n", s.Code)
}
