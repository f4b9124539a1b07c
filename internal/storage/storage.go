// Package storage provides the local key-value store that settings and
// conversation state persist to.
package storage

// KV is a string-keyed, string-valued synchronous store. Writes are best
// effort: there are no transactions spanning keys and no size guarantees.
type KV interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error

	// Close releases any resources held by the store.
	Close() error
}
