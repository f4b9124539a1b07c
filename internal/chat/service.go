// Package chat drives the send/receive sequence: it appends the user
// turn to the store, builds the wire payload from the thread history,
// dispatches it, reassembles the reply, and persists the assistant turn.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/jardani1x/openchat-cli/internal/api"
	"github.com/jardani1x/openchat-cli/internal/config"
	"github.com/jardani1x/openchat-cli/internal/store"
)

const (
	// NoResponse is the assistant content recorded when a completed
	// request produced no text at all.
	NoResponse = "(No response)"

	// titlePrefixLen is how much of the first prompt becomes the title
	// of a fresh chat.
	titlePrefixLen = 36

	// attachmentsOnlyPrompt substitutes for an empty prompt when the
	// user sends attachments without text.
	attachmentsOnlyPrompt = "Sent with attachments"
)

// AnnotateAttachments appends the attachment-names annotation to the
// prompt. The annotated string is what gets persisted and sent; the
// file bytes never travel.
func AnnotateAttachments(prompt string, attachments []store.Attachment) string {
	if len(attachments) == 0 {
		return prompt
	}
	names := make([]string, len(attachments))
	for i, a := range attachments {
		names[i] = a.Name
	}
	return prompt + "\n\n[Attachments selected: " + strings.Join(names, ", ") + "]"
}

// BuildRequest turns a thread's full message history into the wire
// payload. Pure: no store mutation, no I/O.
func BuildRequest(c *store.Chat, settings *config.Settings) *api.ChatRequest {
	messages := make([]api.Message, len(c.Messages))
	for i, m := range c.Messages {
		messages[i] = api.Message{Role: m.Role, Content: m.Content}
	}
	return &api.ChatRequest{
		Model:    settings.Model,
		Messages: messages,
		Stream:   settings.StreamReplies,
	}
}

// titlePrefix returns the first titlePrefixLen characters of prompt.
func titlePrefix(prompt string) string {
	runes := []rune(prompt)
	if len(runes) > titlePrefixLen {
		runes = runes[:titlePrefixLen]
	}
	return string(runes)
}

// Service wires the store, the gateway client, and the settings into
// the send pipeline. Callers must serialize Sends per chat; the
// service holds no cross-chat locks.
type Service struct {
	Store    *store.Store
	Client   api.Client
	Settings *config.Settings

	// PageScheme is the transport scheme of the surface issuing
	// requests, used for the mixed-content check.
	PageScheme string
}

// NewService creates a Service over a plain (non-HTTPS-hosted) surface.
func NewService(st *store.Store, client api.Client, settings *config.Settings) *Service {
	return &Service{Store: st, Client: client, Settings: settings, PageScheme: "http"}
}

// checkDispatchable blocks the send before any network call when the
// configuration is missing or invalid.
func (s *Service) checkDispatchable() error {
	if !s.Settings.Complete() {
		return config.ErrMissingConfig
	}
	return config.Validate(s.Settings.BaseURL, s.PageScheme)
}

// TestConnection sends a single non-streaming "ping" turn and reports
// whether the gateway answered.
func (s *Service) TestConnection(ctx context.Context) error {
	if err := s.checkDispatchable(); err != nil {
		return err
	}
	return s.Client.Ping(ctx, s.Settings.Model)
}

// Send appends the prompt as a user turn on the active chat, dispatches
// the thread, and appends the assistant reply. onDelta, if non-nil, is
// invoked for every streamed delta in decode order. On failure the user
// turn stays appended and no assistant turn is added, so the thread
// remains coherent and resendable.
func (s *Service) Send(ctx context.Context, prompt string, onDelta func(string)) (string, error) {
	chat := s.Store.Active()
	if chat == nil {
		var err error
		if chat, err = s.Store.EnsureInitialChat(); err != nil {
			return "", err
		}
	}

	if err := s.checkDispatchable(); err != nil {
		return "", err
	}

	attachments := s.Store.Attachments()
	if prompt == "" && len(attachments) > 0 {
		prompt = attachmentsOnlyPrompt
	}

	if len(chat.Messages) == 0 && chat.Title == store.DefaultTitle {
		if err := s.Store.Rename(chat.ID, titlePrefix(prompt)); err != nil {
			return "", err
		}
	}

	content := AnnotateAttachments(prompt, attachments)
	if err := s.Store.AppendMessage(chat.ID, store.Message{Role: api.RoleUser, Content: content}); err != nil {
		return "", err
	}
	s.Store.ClearAttachments()

	req := BuildRequest(chat, s.Settings)

	var reply string
	if s.Settings.StreamReplies {
		var err error
		if reply, err = s.stream(ctx, req, onDelta); err != nil {
			return "", err
		}
	} else {
		resp, err := s.Client.Chat(ctx, req)
		if err != nil {
			return "", err
		}
		reply = resp.Content()
	}

	if reply == "" {
		reply = NoResponse
	}
	if err := s.Store.AppendMessage(chat.ID, store.Message{Role: api.RoleAssistant, Content: reply}); err != nil {
		return "", err
	}
	return reply, nil
}

func (s *Service) stream(ctx context.Context, req *api.ChatRequest, onDelta func(string)) (string, error) {
	reader, err := s.Client.ChatStream(ctx, req)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	var acc strings.Builder
	for {
		chunk, err := reader.Next()
		if err != nil {
			return "", fmt.Errorf("reading reply: %w", err)
		}
		if chunk == nil || chunk.Done {
			break
		}
		acc.WriteString(chunk.Content)
		if onDelta != nil {
			onDelta(chunk.Content)
		}
	}
	return acc.String(), nil
}
