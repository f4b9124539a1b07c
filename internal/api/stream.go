package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	dataPrefix   = "data:"
	doneSentinel = "[DONE]"

	// maxEventSize bounds a single SSE event frame.
	maxEventSize = 1 << 20
)

// StreamReader decodes text deltas from an SSE response body. Deltas
// are yielded in decode order; the sequence is forward-only and ends
// when the [DONE] sentinel arrives or the body is exhausted.
type StreamReader struct {
	scanner *bufio.Scanner
	body    io.ReadCloser
	cancel  context.CancelFunc
	done    bool
}

// NewStreamReader creates a StreamReader over an open response body.
// cancel, if non-nil, is invoked on Close to release the request
// deadline along with the connection.
func NewStreamReader(body io.ReadCloser, cancel context.CancelFunc) *StreamReader {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 4096), maxEventSize)
	scanner.Split(scanEvents)
	return &StreamReader{
		scanner: scanner,
		body:    body,
		cancel:  cancel,
	}
}

// scanEvents is a bufio.SplitFunc yielding one SSE event per token.
// Events are separated by a blank line; a trailing partial event is
// held back until more bytes arrive, so a multi-byte rune or a frame
// split across chunk boundaries is never torn.
func scanEvents(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.Index(data, []byte("\n\n")); i >= 0 {
		return i + 2, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// eventData extracts the data field value from an event frame. Events
// without a data field are ignored by the caller.
func eventData(event string) (string, bool) {
	for _, line := range strings.Split(event, "\n") {
		if strings.HasPrefix(line, dataPrefix) {
			return strings.TrimSpace(line[len(dataPrefix):]), true
		}
	}
	return "", false
}

// StreamChunk represents one decoded delta, or the terminal signal.
type StreamChunk struct {
	Content      string
	Done         bool
	FinishReason *string
}

// Next returns the next non-empty delta from the stream. The terminal
// chunk has Done set; after that, Next returns nil, nil. Malformed
// frames and frames without content are skipped, never surfaced.
func (r *StreamReader) Next() (*StreamChunk, error) {
	if r.done {
		return nil, nil
	}

	for r.scanner.Scan() {
		data, ok := eventData(r.scanner.Text())
		if !ok {
			continue
		}

		if data == doneSentinel {
			r.done = true
			return &StreamChunk{Done: true}, nil
		}

		var frame ChatResponse
		if err := json.Unmarshal([]byte(data), &frame); err != nil {
			// Skip malformed frames
			continue
		}

		if frame.Error != nil {
			r.done = true
			return nil, &APIError{Message: frame.Error.Message}
		}

		if len(frame.Choices) == 0 {
			continue
		}
		choice := frame.Choices[0]
		if choice.Delta.Content == "" {
			continue
		}
		return &StreamChunk{
			Content:      choice.Delta.Content,
			FinishReason: choice.FinishReason,
		}, nil
	}

	if err := r.scanner.Err(); err != nil {
		r.done = true
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		case errors.Is(err, context.Canceled):
			return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		return nil, &StreamError{Message: "reading stream", Cause: err}
	}

	// Body ended without a [DONE] sentinel; treat as a clean stop.
	r.done = true
	return &StreamChunk{Done: true}, nil
}

// Close releases the underlying connection. No further deltas are
// emitted after Close.
func (r *StreamReader) Close() error {
	r.done = true
	if r.cancel != nil {
		defer r.cancel()
	}
	return r.body.Close()
}

// ReadAll drains the stream and returns the concatenated deltas.
func (r *StreamReader) ReadAll() (string, error) {
	var content strings.Builder

	for {
		chunk, err := r.Next()
		if err != nil {
			return content.String(), err
		}
		if chunk == nil || chunk.Done {
			break
		}
		content.WriteString(chunk.Content)
	}

	return content.String(), nil
}
