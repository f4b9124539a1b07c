package api

import (
	"context"
	"encoding/json"
	"io"
	"strings"
)

// MockClient is a mock implementation of the Client interface for testing.
type MockClient struct {
	// ChatFunc is called when Chat is invoked.
	ChatFunc func(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// ChatStreamFunc is called when ChatStream is invoked.
	ChatStreamFunc func(ctx context.Context, req *ChatRequest) (*StreamReader, error)

	// PingFunc is called when Ping is invoked.
	PingFunc func(ctx context.Context, model string) error

	// ChatCalls records all calls to Chat.
	ChatCalls []ChatCall

	// ChatStreamCalls records all calls to ChatStream.
	ChatStreamCalls []ChatCall

	// PingCalls records the models passed to Ping.
	PingCalls []string
}

// ChatCall records a call to Chat or ChatStream.
type ChatCall struct {
	Ctx context.Context
	Req *ChatRequest
}

// NewMockClient creates a MockClient with default implementations: Chat
// answers with a canned reply and ChatStream yields it as two frames
// followed by the terminal sentinel, matching the relay's pass-through
// wire format.
func NewMockClient() *MockClient {
	return &MockClient{
		ChatFunc: func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
			resp := &ChatResponse{Choices: []Choice{{}}}
			resp.Choices[0].Message.Content = "mock response"
			return resp, nil
		},
		ChatStreamFunc: func(ctx context.Context, req *ChatRequest) (*StreamReader, error) {
			return NewStreamFromFrames("mock ", "response"), nil
		},
		PingFunc: func(ctx context.Context, model string) error {
			return nil
		},
	}
}

// NewStreamFromFrames builds a StreamReader that yields the given
// deltas as SSE frames terminated by [DONE].
func NewStreamFromFrames(deltas ...string) *StreamReader {
	var b strings.Builder
	for _, d := range deltas {
		quoted, _ := json.Marshal(d)
		b.WriteString(`data: {"choices":[{"delta":{"content":` + string(quoted) + `}}]}` + "\n\n")
	}
	b.WriteString("data: [DONE]\n\n")
	return NewStreamReader(io.NopCloser(strings.NewReader(b.String())), nil)
}

// Chat implements Client.Chat.
func (m *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	m.ChatCalls = append(m.ChatCalls, ChatCall{Ctx: ctx, Req: req})
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}
	return nil, nil
}

// ChatStream implements Client.ChatStream.
func (m *MockClient) ChatStream(ctx context.Context, req *ChatRequest) (*StreamReader, error) {
	m.ChatStreamCalls = append(m.ChatStreamCalls, ChatCall{Ctx: ctx, Req: req})
	if m.ChatStreamFunc != nil {
		return m.ChatStreamFunc(ctx, req)
	}
	return nil, nil
}

// Ping implements Client.Ping.
func (m *MockClient) Ping(ctx context.Context, model string) error {
	m.PingCalls = append(m.PingCalls, model)
	if m.PingFunc != nil {
		return m.PingFunc(ctx, model)
	}
	return nil
}

// Reset clears all recorded calls.
func (m *MockClient) Reset() {
	m.ChatCalls = nil
	m.ChatStreamCalls = nil
	m.PingCalls = nil
}
