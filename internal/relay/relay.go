// Package relay implements the CORS relay in front of the gateway: a
// single pass-through route that injects permissive CORS headers and a
// server-side bearer token, so a browser-hosted surface can reach a
// gateway that does not speak CORS itself.
package relay

import (
	"io"
	"net/http"
	"strings"
)

const completionsPath = "/v1/chat/completions"

// Config holds the relay's own required configuration.
type Config struct {
	// UpstreamBaseURL is the gateway base URL requests are forwarded to.
	UpstreamBaseURL string

	// Token is the bearer token injected on every upstream request.
	Token string

	// AllowOrigin is the CORS allow-origin value; "*" when empty.
	AllowOrigin string

	// HTTPClient is an optional custom client for upstream calls.
	HTTPClient *http.Client
}

// Handler is the relay's http.Handler. It performs no retry, no
// timeout, and no body transformation.
type Handler struct {
	cfg    Config
	client *http.Client
}

// NewHandler creates a relay handler.
func NewHandler(cfg Config) *Handler {
	if cfg.AllowOrigin == "" {
		cfg.AllowOrigin = "*"
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &Handler{cfg: cfg, client: client}
}

func (h *Handler) setCORS(w http.ResponseWriter) {
	header := w.Header()
	header.Set("Access-Control-Allow-Origin", h.cfg.AllowOrigin)
	header.Set("Access-Control-Allow-Methods", "POST,OPTIONS")
	header.Set("Access-Control-Allow-Headers", "content-type,authorization")
	header.Set("Access-Control-Max-Age", "86400")
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.setCORS(w)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.URL.Path != completionsPath || r.Method != http.MethodPost {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	if h.cfg.UpstreamBaseURL == "" || h.cfg.Token == "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error": "Missing upstream base URL or token"}`)
		return
	}

	upstreamURL := strings.TrimSuffix(h.cfg.UpstreamBaseURL, "/") + completionsPath

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, upstreamURL, r.Body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error": "Bad upstream URL"}`)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.cfg.Token)

	resp, err := h.client.Do(req)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `{"error": "Upstream unreachable"}`)
		return
	}
	defer resp.Body.Close()

	// Copy upstream headers, then overlay CORS so the overlay wins.
	header := w.Header()
	for k, vv := range resp.Header {
		if strings.HasPrefix(k, "Access-Control-") {
			continue
		}
		for _, v := range vv {
			header.Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)

	// Stream the body through unbuffered so SSE frames flush promptly.
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if readErr != nil {
			return
		}
	}
}
