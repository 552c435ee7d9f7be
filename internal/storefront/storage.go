// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

/*
Package storefront is the client half of MotoWorld: it reconciles cached
local state, bearer tokens, and ambient session cookies into one
consistent identity/cart/catalog view, the way the browser storefront
scripts do.

# Architecture

  - Storage: a localStorage analog with pluggable persistence
  - Client: the HTTP JSON consumer of the MotoWorld API
  - Session: ordered identity resolution and two-phase logout
  - CartManager: server-authoritative cart state
  - CatalogController: filter/pagination state with debounced typeahead

All components are safe for use from a single goroutine per instance;
the storage implementations additionally guard concurrent access.
*/
package storefront

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// # Storage Keys

// Two generations of browser scripts persisted the same values under
// different names. Writes go to both spellings, reads accept either,
// and clears remove both.
const (
	KeyAuthToken    = "authToken"
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refreshToken"
	KeyRefreshAlt   = "refresh_token"
	KeyCurrentUser  = "currentUser"
	KeyUser         = "user"
	KeyCart         = "cart"
)

// allKeys lists every persisted key, used by Logout's full clear.
var allKeys = []string{
	KeyAuthToken, KeyAccessToken,
	KeyRefreshToken, KeyRefreshAlt,
	KeyCurrentUser, KeyUser,
	KeyCart,
}

// # Storage Interface

// Storage is the persistent key-value store backing the client's local
// state. Implementations must be safe for concurrent use.
type Storage interface {
	// Get returns the stored value and whether the key was present.
	Get(key string) (string, bool)
	// Set stores a value under key, overwriting any previous value.
	Set(key, value string) error
	// Delete removes a key. Deleting an absent key is not an error.
	Delete(key string) error
}

// setBoth writes a value under its modern and legacy spellings.
func setBoth(storage Storage, primary, alias, value string) error {
	if err := storage.Set(primary, value); err != nil {
		return err
	}
	return storage.Set(alias, value)
}

// getEither reads a value under whichever spelling is present.
func getEither(storage Storage, primary, alias string) (string, bool) {
	if value, ok := storage.Get(primary); ok && value != "" {
		return value, true
	}
	if value, ok := storage.Get(alias); ok && value != "" {
		return value, true
	}
	return "", false
}

// # In-Memory Storage

// MemoryStorage holds values in a map. It is the default for tests and
// for ephemeral sessions.
type MemoryStorage struct {
	mutex  sync.RWMutex
	values map[string]string
}

// NewMemoryStorage constructs an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: map[string]string{}}
}

func (storage *MemoryStorage) Get(key string) (string, bool) {
	storage.mutex.RLock()
	defer storage.mutex.RUnlock()
	value, ok := storage.values[key]
	return value, ok
}

func (storage *MemoryStorage) Set(key, value string) error {
	storage.mutex.Lock()
	defer storage.mutex.Unlock()
	storage.values[key] = value
	return nil
}

func (storage *MemoryStorage) Delete(key string) error {
	storage.mutex.Lock()
	defer storage.mutex.Unlock()
	delete(storage.values, key)
	return nil
}

// # File Storage

// FileStorage persists values as a JSON object on disk, giving CLI
// sessions the same durability browsers get from localStorage.
type FileStorage struct {
	mutex  sync.Mutex
	path   string
	values map[string]string
}

/*
NewFileStorage opens (or creates) a JSON state file.

Parameters:
  - path: string: Location of the state file; parent directories are created

Returns:
  - *FileStorage: Store hydrated from the existing file, if any
  - error: Unreadable or corrupt state files
*/
func NewFileStorage(path string) (*FileStorage, error) {
	storage := &FileStorage{
		path:   path,
		values: map[string]string{},
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Fresh state; written on first Set
	case err != nil:
		return nil, fmt.Errorf("storefront: failed to read state file: %w", err)
	default:
		if err := json.Unmarshal(data, &storage.values); err != nil {
			return nil, fmt.Errorf("storefront: corrupt state file %s: %w", path, err)
		}
	}

	return storage, nil
}

func (storage *FileStorage) Get(key string) (string, bool) {
	storage.mutex.Lock()
	defer storage.mutex.Unlock()
	value, ok := storage.values[key]
	return value, ok
}

func (storage *FileStorage) Set(key, value string) error {
	storage.mutex.Lock()
	defer storage.mutex.Unlock()
	storage.values[key] = value
	return storage.flush()
}

func (storage *FileStorage) Delete(key string) error {
	storage.mutex.Lock()
	defer storage.mutex.Unlock()
	delete(storage.values, key)
	return storage.flush()
}

// flush writes the full state map atomically. Callers hold the mutex.
func (storage *FileStorage) flush() error {
	data, err := json.MarshalIndent(storage.values, "", "  ")
	if err != nil {
		return fmt.Errorf("storefront: failed to encode state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(storage.path), 0o700); err != nil {
		return fmt.Errorf("storefront: failed to create state directory: %w", err)
	}

	temp := storage.path + ".tmp"
	if err := os.WriteFile(temp, data, 0o600); err != nil {
		return fmt.Errorf("storefront: failed to write state file: %w", err)
	}
	if err := os.Rename(temp, storage.path); err != nil {
		return fmt.Errorf("storefront: failed to replace state file: %w", err)
	}
	return nil
}
