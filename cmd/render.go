package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/jardani1x/openchat-cli/internal/chunker"
)

const renderWidth = 100

// printAssistant renders a finished reply as markdown, split into
// display-sized paragraph buckets. Falls back to plain text when the
// renderer is unavailable.
func printAssistant(content string) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(renderWidth),
	)
	if err != nil {
		fmt.Println(content)
		return
	}

	for _, block := range chunker.Chunk(content) {
		out, err := renderer.Render(block)
		if err != nil {
			fmt.Println(block)
			continue
		}
		fmt.Print(out)
	}
}

func timestampTitle() string {
	return time.Now().Format("2006-01-02 15:04:05")
}
