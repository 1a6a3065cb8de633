package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/pairlink/internal/session"
)

var (
	pairedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	waitingStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	disconnectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	mutedStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	codeStyle         = lipgloss.NewStyle().Bold(true)
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current pairing session",
		Run: func(cmd *cobra.Command, args []string) {
			runStatus()
		},
	}
}

func runStatus() {
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

	fmt.Println(renderSession(a.controller.Session()))
}

func renderSession(s session.Session) string {
	switch s.Status {
	case session.StatusPaired:
		return fmt.Sprintf("%s  code %s", pairedStyle.Render("paired"), codeStyle.Render(s.Code))
	case session.StatusWaiting:
		return fmt.Sprintf("%s  code %s — peer has not connected yet", waitingStyle.Render("waiting"), codeStyle.Render(s.Code))
	case session.StatusDisconnected:
		return fmt.Sprintf("%s  code %s — run 'pairlink pair' to start over", disconnectedStyle.Render("disconnected"), codeStyle.Render(s.Code))
	default:
		return mutedStyle.Render("no session — run 'pairlink pair' to create one")
	}
}
