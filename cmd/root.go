package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jardani1x/openchat-cli/internal/api"
	"github.com/jardani1x/openchat-cli/internal/chat"
	"github.com/jardani1x/openchat-cli/internal/config"
	"github.com/jardani1x/openchat-cli/internal/storage"
	"github.com/jardani1x/openchat-cli/internal/store"
)

var (
	dbPath     string
	flagModel  string
	flagPrompt string
)

var rootCmd = &cobra.Command{
	Use:   "openchat",
	Short: "A terminal client for an OpenAI-compatible chat gateway",
	Long: `openchat keeps your conversation threads locally and talks to any
OpenAI-compatible chat-completions gateway, streaming replies as they
are generated.

Examples:
  openchat                                  # Interactive chat in the active thread
  openchat -p "Explain Go concurrency"      # Single-turn mode
  openchat chats                            # List threads
  openchat settings set --base-url https://gw.example.com --token sk-...`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		if flagPrompt != "" {
			return runPrompt(env, flagPrompt)
		}
		return runChat(env)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the local state database (default: user config dir)")
	rootCmd.PersistentFlags().StringVarP(&flagModel, "model", "m", "", "Model to use (overrides the configured default)")
	rootCmd.Flags().StringVarP(&flagPrompt, "prompt", "p", "", "Prompt for single-turn mode (omit for interactive chat)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetDataDir returns the platform-specific data directory for openchat.
// This is a variable to allow mocking in tests.
var GetDataDir = func() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "openchat"), nil
}

// appEnv bundles the wired application: the KV store, the settings,
// the conversation store, and the send pipeline.
type appEnv struct {
	kv       storage.KV
	settings *config.Settings
	store    *store.Store
	service  *chat.Service
}

func (e *appEnv) Close() {
	e.kv.Close()
}

// openEnv opens the local database and wires the application together.
func openEnv() (*appEnv, error) {
	kv, err := openKV()
	if err != nil {
		return nil, err
	}

	settings, err := config.Load(kv)
	if err != nil {
		kv.Close()
		return nil, err
	}
	if flagModel != "" {
		settings.Model = flagModel
	}

	st, err := store.Open(store.NewKVRepository(kv))
	if err != nil {
		kv.Close()
		return nil, err
	}

	retry := api.SingleRetry()
	client := api.NewClient(api.ClientConfig{
		BaseURL:        settings.BaseURL,
		Token:          settings.Token,
		TimeoutSeconds: settings.EffectiveTimeoutSeconds(),
		Retry:          &retry,
	})

	return &appEnv{
		kv:       kv,
		settings: settings,
		store:    st,
		service:  chat.NewService(st, client, settings),
	}, nil
}

func openKV() (storage.KV, error) {
	path := dbPath
	if path == "" {
		dir, err := GetDataDir()
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		path = filepath.Join(dir, "openchat.db")
	}
	return storage.NewSQLite(path)
}
