package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	systemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
)

// runPrompt sends one prompt into the active thread and exits.
func runPrompt(env *appEnv, prompt string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	return sendAndPrint(ctx, env, prompt)
}

// runChat is the interactive loop: one send in flight at a time, each
// line of input becoming a user turn in the active thread.
func runChat(env *appEnv) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if _, err := env.store.EnsureInitialChat(); err != nil {
		return err
	}

	active := env.store.Active()
	fmt.Println(titleStyle.Render(active.Title))
	for _, m := range active.Messages {
		printMessage(m.Role, m.Content)
	}
	if len(active.Messages) == 0 {
		fmt.Println(systemStyle.Render("Welcome to openchat. Run `openchat settings set` to connect your gateway."))
	}
	fmt.Println(systemStyle.Render("Type a message, or /new, /chats, /exit."))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(userStyle.Render("> "))
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/exit" || line == "/quit":
			return nil
		case line == "/new":
			c, err := env.store.NewChat("Chat " + timestampTitle())
			if err != nil {
				return err
			}
			fmt.Println(systemStyle.Render("Started " + c.Title))
			continue
		case line == "/chats":
			printChatList(env)
			continue
		case strings.HasPrefix(line, "/"):
			fmt.Println(systemStyle.Render("Unknown command: " + line))
			continue
		}

		if err := sendAndPrint(ctx, env, line); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Println(errorStyle.Render("Error: " + err.Error()))
		}
	}
}

func sendAndPrint(ctx context.Context, env *appEnv, prompt string) error {
	streamed := false
	reply, err := env.service.Send(ctx, prompt, func(delta string) {
		streamed = true
		fmt.Print(delta)
	})
	if err != nil {
		return err
	}
	if streamed {
		fmt.Println()
		return nil
	}
	printAssistant(reply)
	return nil
}

func printMessage(role, content string) {
	switch role {
	case "assistant":
		printAssistant(content)
	case "user":
		fmt.Println(userStyle.Render("> ") + content)
	default:
		fmt.Println(systemStyle.Render(content))
	}
}
