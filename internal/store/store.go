// Package store owns the conversation state: chat threads, their
// messages, the active-chat pointer, and the transient pending
// attachments. All mutation goes through Store operations, and every
// mutation is persisted through the injected Repository before the
// operation returns.
package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jardani1x/openchat-cli/internal/storage"
)

// DefaultTitle is the title of a freshly created chat. It marks the
// chat as eligible for auto-titling from the first prompt.
const DefaultTitle = "New chat"

// ErrChatNotFound is returned when an operation targets an unknown chat ID.
var ErrChatNotFound = errors.New("chat not found")

// Message is one turn of a conversation. Immutable once appended; an
// assistant message always carries the full accumulated reply.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat is one conversation thread.
type Chat struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Archived bool      `json:"archived"`
	Messages []Message `json:"messages"`
}

// Attachment describes a user-selected file. Only the metadata travels;
// file bytes are never read or transmitted.
type Attachment struct {
	Name string
	Size int64
}

// Repository persists the full store state. Injected so tests can
// substitute an in-memory stub.
type Repository interface {
	Load() (chats []*Chat, activeID string, err error)
	Save(chats []*Chat, activeID string) error
}

// Store holds all chats, newest first, plus the active-chat pointer.
// Not safe for concurrent use; callers serialize access per the
// one-send-in-flight-per-chat rule.
type Store struct {
	chats       []*Chat
	activeID    string
	attachments []Attachment
	repo        Repository
}

// Open loads the persisted state through repo and returns a Store over it.
func Open(repo Repository) (*Store, error) {
	chats, activeID, err := repo.Load()
	if err != nil {
		return nil, fmt.Errorf("loading conversation state: %w", err)
	}
	return &Store{chats: chats, activeID: activeID, repo: repo}, nil
}

func (s *Store) find(id string) (*Chat, bool) {
	for _, c := range s.chats {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// heal re-establishes the active-chat invariant: the pointer resolves
// to a non-archived chat when one exists, to the first chat otherwise,
// and is empty only when the store is empty.
func (s *Store) heal() {
	if len(s.chats) == 0 {
		s.activeID = ""
		return
	}
	if cur, ok := s.find(s.activeID); ok && !cur.Archived {
		return
	}
	for _, c := range s.chats {
		if !c.Archived {
			s.activeID = c.ID
			return
		}
	}
	s.activeID = s.chats[0].ID
}

func (s *Store) persist() error {
	return s.repo.Save(s.chats, s.activeID)
}

// EnsureInitialChat guarantees the store invariant: at least one chat
// exists and the active pointer resolves. Idempotent.
func (s *Store) EnsureInitialChat() (*Chat, error) {
	if len(s.chats) == 0 {
		s.chats = append(s.chats, &Chat{ID: uuid.New().String(), Title: DefaultTitle})
	}
	s.heal()
	if err := s.persist(); err != nil {
		return nil, err
	}
	chat, _ := s.find(s.activeID)
	return chat, nil
}

// NewChat creates a chat at the front of the list (order is recency of
// creation) and makes it active. An empty title gets DefaultTitle.
func (s *Store) NewChat(title string) (*Chat, error) {
	if title == "" {
		title = DefaultTitle
	}
	c := &Chat{ID: uuid.New().String(), Title: title}
	s.chats = append([]*Chat{c}, s.chats...)
	s.activeID = c.ID
	if err := s.persist(); err != nil {
		return nil, err
	}
	return c, nil
}

// Active returns the active chat, or nil when the store is empty.
func (s *Store) Active() *Chat {
	c, _ := s.find(s.activeID)
	return c
}

// ActiveID returns the active chat ID, empty when the store is empty.
func (s *Store) ActiveID() string {
	return s.activeID
}

// Get returns the chat with the given ID.
func (s *Store) Get(id string) (*Chat, bool) {
	return s.find(id)
}

// Chats returns the chats in order, skipping archived ones unless
// includeArchived is set.
func (s *Store) Chats(includeArchived bool) []*Chat {
	if includeArchived {
		return s.chats
	}
	var out []*Chat
	for _, c := range s.chats {
		if !c.Archived {
			out = append(out, c)
		}
	}
	return out
}

// AppendMessage appends a message to the target chat.
func (s *Store) AppendMessage(chatID string, msg Message) error {
	c, ok := s.find(chatID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrChatNotFound, chatID)
	}
	c.Messages = append(c.Messages, msg)
	return s.persist()
}

// Rename sets the chat title.
func (s *Store) Rename(chatID, title string) error {
	c, ok := s.find(chatID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrChatNotFound, chatID)
	}
	c.Title = title
	return s.persist()
}

// Archive soft-hides the chat. Archiving the active chat reselects a
// new active chat before returning.
func (s *Store) Archive(chatID string) error {
	c, ok := s.find(chatID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrChatNotFound, chatID)
	}
	c.Archived = true
	s.heal()
	return s.persist()
}

// Restore reverses an Archive.
func (s *Store) Restore(chatID string) error {
	c, ok := s.find(chatID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrChatNotFound, chatID)
	}
	c.Archived = false
	s.heal()
	return s.persist()
}

// Delete removes the chat from the store entirely.
func (s *Store) Delete(chatID string) error {
	idx := -1
	for i, c := range s.chats {
		if c.ID == chatID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrChatNotFound, chatID)
	}
	s.chats = append(s.chats[:idx], s.chats[idx+1:]...)
	s.heal()
	return s.persist()
}

// SelectActive makes the chat active. Unknown IDs are a silent no-op.
func (s *Store) SelectActive(chatID string) error {
	if _, ok := s.find(chatID); !ok {
		return nil
	}
	s.activeID = chatID
	return s.persist()
}

// AddAttachment records a pending attachment for the next send.
func (s *Store) AddAttachment(a Attachment) {
	s.attachments = append(s.attachments, a)
}

// Attachments returns the pending attachments.
func (s *Store) Attachments() []Attachment {
	return s.attachments
}

// ClearAttachments drops the pending list; called after each send.
func (s *Store) ClearAttachments() {
	s.attachments = nil
}

// Storage keys for the KV-backed repository. Kept stable so existing
// state remains readable after upgrades.
const (
	KeyChats        = "openchat.chats"
	KeyActiveChatID = "openchat.activeChatId"
)

// KVRepository persists the store as JSON in the key-value collaborator.
type KVRepository struct {
	kv storage.KV
}

// NewKVRepository creates a Repository over the given KV store.
func NewKVRepository(kv storage.KV) *KVRepository {
	return &KVRepository{kv: kv}
}

// Load reads the persisted chats and active pointer. An absent or
// unparsable chats value yields an empty store rather than an error,
// so a corrupted local store never blocks startup.
func (r *KVRepository) Load() ([]*Chat, string, error) {
	var chats []*Chat
	if raw, ok, err := r.kv.Get(KeyChats); err != nil {
		return nil, "", fmt.Errorf("failed to read chats: %w", err)
	} else if ok {
		if err := json.Unmarshal([]byte(raw), &chats); err != nil {
			chats = nil
		}
	}

	activeID, _, err := r.kv.Get(KeyActiveChatID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read active chat: %w", err)
	}
	return chats, activeID, nil
}

// Save writes the full store state.
func (r *KVRepository) Save(chats []*Chat, activeID string) error {
	data, err := json.Marshal(chats)
	if err != nil {
		return fmt.Errorf("failed to marshal chats: %w", err)
	}
	if err := r.kv.Set(KeyChats, string(data)); err != nil {
		return fmt.Errorf("failed to write chats: %w", err)
	}
	if err := r.kv.Set(KeyActiveChatID, activeID); err != nil {
		return fmt.Errorf("failed to write active chat: %w", err)
	}
	return nil
}
