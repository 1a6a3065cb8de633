package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/pairlink/internal/gateway"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show configuration and manage the gateway token",
	}
	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configSetTokenCmd())
	cmd.AddCommand(configClearTokenCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (token redacted)",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := loadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			data, _ := json.MarshalIndent(cfg.Redacted(), "", "  ")
			fmt.Println(string(data))
		},
	}
}

func configSetTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-token [token]",
		Short: "Store the gateway auth token in the OS keyring (prompts if omitted)",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				var err error
				token, err = promptPassword("Gateway token", "Stored in the OS keyring, not in the config file.")
				if err != nil {
					fmt.Println("Cancelled.")
					return
				}
			}
			if token == "" {
				fmt.Fprintln(os.Stderr, "Error: empty token")
				os.Exit(1)
			}
			if err := gateway.StoreToken(token); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("Token stored.")
		},
	}
}

func configClearTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-token",
		Short: "Remove the gateway auth token from the OS keyring",
		Run: func(cmd *cobra.Command, args []string) {
			if err := gateway.DeleteToken(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("Token cleared.")
		},
	}
}
