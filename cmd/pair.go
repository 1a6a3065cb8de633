package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/pairlink/internal/session"
)

func pairCmd() *cobra.Command {
	var noWait bool
	var noQR bool

	cmd := &cobra.Command{
		Use:   "pair",
		Short: "Create a pairing session and display its code",
		Long: "Requests a fresh session code from the gateway. Any previous code is\n" +
			"abandoned; the gateway invalidates it.",
		Run: func(cmd *cobra.Command, args []string) {
			runPair(noWait, noQR)
		},
	}

	cmd.Flags().BoolVar(&noWait, "no-wait", false, "print the code and exit instead of waiting for the peer")
	cmd.Flags().BoolVar(&noQR, "no-qr", false, "skip the QR code")
	return cmd
}

func runPair(noWait, noQR bool) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.close()

	paired := make(chan struct{}, 1)
	a.onSessionCreated = func() {
		if a.controller.Status() == session.StatusPaired {
			select {
			case paired <- struct{}{}:
			default:
			}
		}
	}

	if err := a.controller.Create(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	code := a.controller.Code()
	fmt.Printf("Session code: %s\n", code)

	if !noQR {
		if qr, err := qrcode.New(code, qrcode.Medium); err == nil {
			fmt.Println()
			fmt.Print(qr.ToSmallString(false))
		}
	}
	fmt.Println("Enter this code on the remote device to pair.")

	if noWait {
		return
	}

	fmt.Println("Waiting for the peer to connect (Ctrl-C to stop waiting)...")
	select {
	case <-paired:
		fmt.Println("Paired.")
	case <-ctx.Done():
		fmt.Println()
		fmt.Println("Stopped waiting. The code stays valid; check back with 'pairlink status'.")
	}
}
