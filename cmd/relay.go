package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jardani1x/openchat-cli/internal/relay"
)

var (
	relayListen      string
	relayUpstream    string
	relayToken       string
	relayAllowOrigin string
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run the CORS relay in front of a gateway",
	Long: `Serve a pass-through relay for /v1/chat/completions that injects
permissive CORS headers and a server-held bearer token, so a browser
surface can talk to a gateway that does not speak CORS itself.

The upstream URL and token fall back to the OPENCLAW_BASE_URL and
OPENCLAW_TOKEN environment variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		upstream := relayUpstream
		if upstream == "" {
			upstream = os.Getenv("OPENCLAW_BASE_URL")
		}
		token := relayToken
		if token == "" {
			token = os.Getenv("OPENCLAW_TOKEN")
		}
		allowOrigin := relayAllowOrigin
		if allowOrigin == "" {
			allowOrigin = os.Getenv("ALLOW_ORIGIN")
		}

		handler := relay.NewHandler(relay.Config{
			UpstreamBaseURL: upstream,
			Token:           token,
			AllowOrigin:     allowOrigin,
		})

		fmt.Printf("Relay listening on %s -> %s\n", relayListen, valueOrUnset(upstream))
		return http.ListenAndServe(relayListen, handler)
	},
}

func init() {
	relayCmd.Flags().StringVar(&relayListen, "listen", ":8787", "Address to listen on")
	relayCmd.Flags().StringVar(&relayUpstream, "upstream", "", "Upstream gateway base URL")
	relayCmd.Flags().StringVar(&relayToken, "token", "", "Bearer token injected on upstream requests")
	relayCmd.Flags().StringVar(&relayAllowOrigin, "allow-origin", "", "CORS allow-origin value (default *)")
	rootCmd.AddCommand(relayCmd)
}
