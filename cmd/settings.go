package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jardani1x/openchat-cli/internal/config"
)

var (
	setBaseURL string
	setToken   string
	setModel   string
	setTimeout int
	setStream  bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the gateway connection settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		s := env.settings
		fmt.Printf("Gateway URL:  %s\n", valueOrUnset(s.BaseURL))
		fmt.Printf("Token:        %s\n", maskToken(s.Token))
		fmt.Printf("Model:        %s\n", valueOrUnset(s.Model))
		fmt.Printf("Timeout:      %ds\n", s.EffectiveTimeoutSeconds())
		fmt.Printf("Stream:       %t\n", s.StreamReplies)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update and persist connection settings",
	Example: `  openchat settings set --base-url https://gw.example.com --token sk-abc
  openchat settings set --stream=false --timeout 60`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		s := env.settings
		if cmd.Flags().Changed("base-url") {
			s.BaseURL = setBaseURL
		}
		if cmd.Flags().Changed("token") {
			s.Token = setToken
		}
		if cmd.Flags().Changed("model") {
			s.Model = setModel
		}
		if cmd.Flags().Changed("timeout") {
			s.TimeoutSeconds = setTimeout
		}
		if cmd.Flags().Changed("stream") {
			s.StreamReplies = setStream
		}

		if err := config.Save(env.kv, s, "http"); err != nil {
			return fmt.Errorf("settings error: %w", err)
		}
		fmt.Println("Settings saved.")
		return nil
	},
}

var settingsTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a single ping turn to verify the connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		if err := env.service.TestConnection(ctx); err != nil {
			return fmt.Errorf("connection test failed: %w", err)
		}
		fmt.Println("Connection test passed.")
		return nil
	},
}

func init() {
	settingsSetCmd.Flags().StringVar(&setBaseURL, "base-url", "", "Gateway base URL")
	settingsSetCmd.Flags().StringVar(&setToken, "token", "", "Bearer token")
	settingsSetCmd.Flags().StringVar(&setModel, "model", "", "Default model (empty lets the gateway choose)")
	settingsSetCmd.Flags().IntVar(&setTimeout, "timeout", config.DefaultTimeoutSeconds, "Request timeout in seconds (floor 10)")
	settingsSetCmd.Flags().BoolVar(&setStream, "stream", false, "Stream replies as they are generated")
	settingsCmd.AddCommand(settingsSetCmd, settingsTestCmd)
	rootCmd.AddCommand(settingsCmd)
}

func valueOrUnset(v string) string {
	if v == "" {
		return systemStyle.Render("(unset)")
	}
	return v
}

func maskToken(token string) string {
	if token == "" {
		return systemStyle.Render("(unset)")
	}
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", 4) + token[len(token)-4:]
}
