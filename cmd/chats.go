package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var chatsAll bool

var chatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "List conversation threads",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()
		printChatList(env)
		return nil
	},
}

var chatsNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new thread and make it active",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		c, err := env.store.NewChat("Chat " + timestampTitle())
		if err != nil {
			return err
		}
		fmt.Println("Started " + c.Title)
		return nil
	},
}

var chatsSelectCmd = &cobra.Command{
	Use:   "select <id>",
	Short: "Make a thread active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		if _, ok := env.store.Get(args[0]); !ok {
			return fmt.Errorf("no such chat: %s", args[0])
		}
		return env.store.SelectActive(args[0])
	},
}

var chatsArchiveCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Archive a thread (reversible)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()
		return env.store.Archive(args[0])
	},
}

var chatsRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Restore an archived thread",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()
		return env.store.Restore(args[0])
	},
}

var chatsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a thread permanently",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()
		return env.store.Delete(args[0])
	},
}

func init() {
	chatsCmd.Flags().BoolVarP(&chatsAll, "all", "a", false, "Include archived threads")
	chatsCmd.AddCommand(chatsNewCmd, chatsSelectCmd, chatsArchiveCmd, chatsRestoreCmd, chatsDeleteCmd)
	rootCmd.AddCommand(chatsCmd)
}

func printChatList(env *appEnv) {
	chats := env.store.Chats(chatsAll)
	if len(chats) == 0 {
		fmt.Println(systemStyle.Render("No threads yet."))
		return
	}
	for _, c := range chats {
		marker := "  "
		if c.ID == env.store.ActiveID() {
			marker = titleStyle.Render("* ")
		}
		line := fmt.Sprintf("%s%s  %s (%d messages)", marker, c.ID[:8], c.Title, len(c.Messages))
		if c.Archived {
			line += systemStyle.Render("  [archived]")
		}
		fmt.Println(line)
	}
}
