package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/pairlink/internal/bus"
	"github.com/nextlevelbuilder/pairlink/internal/config"
	"github.com/nextlevelbuilder/pairlink/pkg/protocol"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream pairing status transitions until interrupted",
		Run: func(cmd *cobra.Command, args []string) {
			runWatch()
		},
	}
}

func runWatch() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

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
	fmt.Printf("Connected to gateway %s:%d\n", a.cfg.Gateway.Host, a.cfg.Gateway.Port)
	fmt.Println(renderSession(a.controller.Session()))

	// Pick up log level changes made while watching.
	if w, err := config.NewWatcher(resolveConfigPath()); err == nil {
		w.OnChange(func(*config.Config) { setupLogging() })
		if err := w.Start(); err == nil {
			defer w.Stop()
		}
	}

	// Watch observes the connection's event stream directly; the
	// controller keeps its own single subscription independently.
	a.client.Bus().Subscribe("cli-watch", func(e bus.Event) {
		stamp := time.Now().Format(time.TimeOnly)
		switch e.Name {
		case protocol.EventSessionPaired:
			fmt.Printf("%s  %s\n", stamp, pairedStyle.Render("peer paired"))
		case protocol.EventSessionDisconnected:
			fmt.Printf("%s  %s\n", stamp, disconnectedStyle.Render("peer disconnected"))
			a.record("disconnected")
		}
	})
	defer a.client.Bus().Unsubscribe("cli-watch")

	<-ctx.Done()
	fmt.Println()
}
