// Package config provides connection settings for the gateway:
// normalization, validation, and persistence through the key-value
// store.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jardani1x/openchat-cli/internal/storage"
)

// Default configuration values.
const (
	// DefaultTimeoutSeconds is the request timeout used when none is
	// configured.
	DefaultTimeoutSeconds = 120

	// MinTimeoutSeconds is the effective timeout floor.
	MinTimeoutSeconds = 10
)

// Storage keys. Kept stable so persisted state stays portable across
// versions.
const (
	KeyBaseURL        = "openchat.baseUrl"
	KeyToken          = "openchat.token"
	KeyModel          = "openchat.model"
	KeyTimeoutSeconds = "openchat.timeoutSeconds"
	KeyStreamReplies  = "openchat.streamReplies"
)

// Validation errors; both block dispatch.
var (
	// ErrMixedContent means the calling surface is served over HTTPS
	// but the gateway URL is plain HTTP. Fatal to the request, so it
	// is caught before any network call.
	ErrMixedContent = errors.New("mixed content blocked: page is HTTPS but gateway URL is HTTP")

	// ErrBadScheme means the gateway URL does not start with a
	// recognized HTTP scheme.
	ErrBadScheme = errors.New("gateway base URL must start with http:// or https://")
)

// ErrMissingConfig means the base URL or token has not been set yet.
var ErrMissingConfig = errors.New("gateway URL and token must be configured first")

// Settings holds the validated connection configuration. BaseURL is
// kept normalized: no trailing slash, no index page suffix, no
// completions path suffix.
type Settings struct {
	BaseURL        string `json:"base_url"`
	Token          string `json:"token"`
	Model          string `json:"model,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	StreamReplies  bool   `json:"stream_replies"`
}

var (
	schemeRe       = regexp.MustCompile(`(?i)^https?://`)
	insecureRe     = regexp.MustCompile(`(?i)^http://`)
	indexSuffixRe  = regexp.MustCompile(`(?i)/index\.html?$`)
	completionsSRe = regexp.MustCompile(`(?i)/v1/chat/completions$`)
)

// NormalizeBaseURL trims the input and strips trailing slashes, a
// trailing index.html/index.htm, and a trailing /v1/chat/completions.
// Stripping runs to a fixpoint, so applying the function repeatedly
// never changes the result further.
func NormalizeBaseURL(input string) string {
	url := strings.TrimSpace(input)
	for {
		next := strings.TrimRight(url, "/")
		next = indexSuffixRe.ReplaceAllString(next, "")
		next = completionsSRe.ReplaceAllString(next, "")
		if next == url {
			return url
		}
		url = next
	}
}

// Validate checks baseUrl against the scheme of the surface issuing
// requests ("https" for a secure page, "http" otherwise). It returns
// ErrMixedContent or ErrBadScheme, or nil when the URL is dispatchable.
func Validate(baseURL, pageScheme string) error {
	if pageScheme == "https" && insecureRe.MatchString(baseURL) {
		return ErrMixedContent
	}
	if !schemeRe.MatchString(baseURL) {
		return ErrBadScheme
	}
	return nil
}

// Complete reports whether the settings carry enough to dispatch.
func (s *Settings) Complete() bool {
	return s.BaseURL != "" && s.Token != ""
}

// EffectiveTimeoutSeconds returns the configured timeout with the
// defaults and the ten-second floor applied.
func (s *Settings) EffectiveTimeoutSeconds() int {
	t := s.TimeoutSeconds
	if t <= 0 {
		t = DefaultTimeoutSeconds
	}
	if t < MinTimeoutSeconds {
		t = MinTimeoutSeconds
	}
	return t
}

// Load reads settings from the store, applying defaults for absent
// fields. A fresh store yields zero-value settings with the default
// timeout.
func Load(kv storage.KV) (*Settings, error) {
	s := &Settings{TimeoutSeconds: DefaultTimeoutSeconds}

	get := func(key string) (string, error) {
		v, ok, err := kv.Get(key)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", key, err)
		}
		if !ok {
			return "", nil
		}
		return v, nil
	}

	var err error
	if s.BaseURL, err = get(KeyBaseURL); err != nil {
		return nil, err
	}
	if s.Token, err = get(KeyToken); err != nil {
		return nil, err
	}
	if s.Model, err = get(KeyModel); err != nil {
		return nil, err
	}

	raw, err := get(KeyTimeoutSeconds)
	if err != nil {
		return nil, err
	}
	if raw != "" {
		if n, convErr := strconv.Atoi(raw); convErr == nil && n >= 1 {
			s.TimeoutSeconds = n
		}
	}

	raw, err = get(KeyStreamReplies)
	if err != nil {
		return nil, err
	}
	s.StreamReplies = raw == "true"

	return s, nil
}

// Save normalizes and validates the settings, then persists every
// field. Nothing is written when validation fails.
func Save(kv storage.KV, s *Settings, pageScheme string) error {
	s.BaseURL = NormalizeBaseURL(s.BaseURL)
	s.Token = strings.TrimSpace(s.Token)
	s.Model = strings.TrimSpace(s.Model)
	if s.TimeoutSeconds < 1 {
		s.TimeoutSeconds = DefaultTimeoutSeconds
	}

	if err := Validate(s.BaseURL, pageScheme); err != nil {
		return err
	}

	fields := map[string]string{
		KeyBaseURL:        s.BaseURL,
		KeyToken:          s.Token,
		KeyModel:          s.Model,
		KeyTimeoutSeconds: strconv.Itoa(s.TimeoutSeconds),
		KeyStreamReplies:  strconv.FormatBool(s.StreamReplies),
	}
	for key, value := range fields {
		if err := kv.Set(key, value); err != nil {
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
	}
	return nil
}
