package config

import (
	"errors"
	"testing"

	"github.com/jardani1x/openchat-cli/internal/storage"
)

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "https://gw.example.com", "https://gw.example.com"},
		{"trailing slash", "https://gw.example.com/", "https://gw.example.com"},
		{"index.html", "https://gw.example.com/index.html", "https://gw.example.com"},
		{"index.htm uppercase", "https://gw.example.com/INDEX.HTM", "https://gw.example.com"},
		{"completions suffix", "https://gw.example.com/v1/chat/completions", "https://gw.example.com"},
		{"completions mixed case", "https://gw.example.com/V1/Chat/Completions", "https://gw.example.com"},
		{"surrounding whitespace", "  https://gw.example.com/  ", "https://gw.example.com"},
		{"empty", "", ""},
		{"index in middle untouched", "https://gw.example.com/index.html/v2", "https://gw.example.com/index.html/v2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeBaseURL(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeBaseURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
			// Normalization must be idempotent.
			if again := NormalizeBaseURL(got); again != got {
				t.Errorf("not idempotent: NormalizeBaseURL(%q) = %q", got, again)
			}
		})
	}
}

func TestNormalizeBaseURL_Idempotent(t *testing.T) {
	inputs := []string{
		"https://gw.example.com/v1/chat/completions/",
		"http://x/index.htm",
		"https://x//",
		"ftp://weird",
		"/v1/chat/completions",
	}
	for _, in := range inputs {
		once := NormalizeBaseURL(in)
		if twice := NormalizeBaseURL(once); twice != once {
			t.Errorf("NormalizeBaseURL not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		baseURL    string
		pageScheme string
		want       error
	}{
		{"https ok on secure page", "https://x", "https", nil},
		{"http blocked on secure page", "http://x", "https", ErrMixedContent},
		{"http ok on plain page", "http://x", "http", nil},
		{"bad scheme", "ftp://x", "http", ErrBadScheme},
		{"no scheme", "gw.example.com", "https", ErrBadScheme},
		{"empty", "", "http", ErrBadScheme},
		{"case-insensitive scheme", "HTTPS://x", "https", nil},
		{"case-insensitive insecure", "HTTP://x", "https", ErrMixedContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Validate(tt.baseURL, tt.pageScheme); !errors.Is(got, tt.want) {
				t.Errorf("Validate(%q, %q) = %v, want %v", tt.baseURL, tt.pageScheme, got, tt.want)
			}
		})
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	kv := storage.NewMemory()

	in := &Settings{
		BaseURL:        "https://gw.example.com/v1/chat/completions",
		Token:          " secret ",
		Model:          "gpt-4o",
		TimeoutSeconds: 60,
		StreamReplies:  true,
	}
	if err := Save(kv, in, "https"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	out, err := Load(kv)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if out.BaseURL != "https://gw.example.com" {
		t.Errorf("BaseURL = %q, want normalized", out.BaseURL)
	}
	if out.Token != "secret" {
		t.Errorf("Token = %q, want trimmed", out.Token)
	}
	if out.Model != "gpt-4o" || out.TimeoutSeconds != 60 || !out.StreamReplies {
		t.Errorf("round trip mismatch: %+v", out)
	}
}

func TestSave_ValidationBlocksWrite(t *testing.T) {
	kv := storage.NewMemory()

	err := Save(kv, &Settings{BaseURL: "ftp://x", Token: "t"}, "http")
	if !errors.Is(err, ErrBadScheme) {
		t.Fatalf("Save() error = %v, want ErrBadScheme", err)
	}

	if _, ok, _ := kv.Get(KeyBaseURL); ok {
		t.Error("Save must not persist anything when validation fails")
	}
}

func TestLoad_Defaults(t *testing.T) {
	out, err := Load(storage.NewMemory())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if out.BaseURL != "" || out.Token != "" {
		t.Errorf("fresh store should be empty: %+v", out)
	}
	if out.TimeoutSeconds != DefaultTimeoutSeconds {
		t.Errorf("TimeoutSeconds = %d, want default %d", out.TimeoutSeconds, DefaultTimeoutSeconds)
	}
	if out.StreamReplies {
		t.Error("StreamReplies should default to false")
	}
}

func TestLoad_IgnoresBadTimeout(t *testing.T) {
	kv := storage.NewMemory()
	kv.Set(KeyTimeoutSeconds, "not-a-number")

	out, err := Load(kv)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if out.TimeoutSeconds != DefaultTimeoutSeconds {
		t.Errorf("TimeoutSeconds = %d, want default", out.TimeoutSeconds)
	}
}

func TestEffectiveTimeoutSeconds(t *testing.T) {
	tests := []struct {
		configured int
		want       int
	}{
		{0, DefaultTimeoutSeconds},
		{5, MinTimeoutSeconds},
		{10, 10},
		{300, 300},
	}
	for _, tt := range tests {
		s := &Settings{TimeoutSeconds: tt.configured}
		if got := s.EffectiveTimeoutSeconds(); got != tt.want {
			t.Errorf("EffectiveTimeoutSeconds(%d) = %d, want %d", tt.configured, got, tt.want)
		}
	}
}
