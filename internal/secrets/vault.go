// Package secrets holds credentials that can be reloaded at runtime, such as
// the generator API key and integration webhook URLs.
package secrets

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Loader retrieves secrets from a source.
type Loader func() (map[string]string, error)

// Vault holds secret values in memory and supports atomic reloading.
type Vault struct {
	mu     sync.RWMutex
	values map[string]string
	loader Loader
}

// NewVault creates a Vault, calling the loader once to populate initial values.
func NewVault(loader Loader) (*Vault, error) {
	vals, err := loader()
	if err != nil {
		return nil, fmt.Errorf("initial secret load: %w", err)
	}
	return &Vault{values: vals, loader: loader}, nil
}

// Get returns the secret for key, or an empty string if not found.
func (v *Vault) Get(key string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.values[key]
}

// Source returns a getter bound to key that always sees the latest value.
func (v *Vault) Source(key string) func() string {
	return func() string { return v.Get(key) }
}

// Keys returns the names of all loaded secrets, sorted.
func (v *Vault) Keys() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	keys := make([]string, 0, len(v.values))
	for k := range v.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Reload calls the loader and swaps in the new values atomically.
// If the loader returns an error, existing values are preserved.
func (v *Vault) Reload() error {
	newVals, err := v.loader()
	if err != nil {
		return fmt.Errorf("reload secrets: %w", err)
	}
	v.mu.Lock()
	v.values = newVals
	v.mu.Unlock()
	return nil
}

// Redacted returns a masked form of the secret: the first two characters
// followed by "****", or just "****" for values of four characters or less.
func (v *Vault) Redacted(key string) string {
	return mask(v.Get(key))
}

// RedactString replaces every loaded secret longer than four characters
// that occurs in s with its masked form.
func (v *Vault) RedactString(s string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, val := range v.values {
		if len(val) > 4 {
			s = strings.ReplaceAll(s, val, mask(val))
		}
	}
	return s
}

func mask(val string) string {
	switch {
	case val == "":
		return ""
	case len(val) <= 4:
		return "****"
	default:
		return val[:2] + "****"
	}
}
