// Package votestate remembers the viewer's vote on each review, keyed by class.
package votestate

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/patrickmn/go-cache"

	"fitbook/internal/models"
)

func init() {
	// go-cache persists items as gob-encoded interfaces.
	gob.Register(map[int64]models.VoteStatus{})
}

// Store is an in-memory vote ledger that can be persisted to disk.
type Store struct {
	cache *cache.Cache
}

// New returns an empty Store. Entries never expire.
func New() *Store {
	return &Store{cache: cache.New(cache.NoExpiration, 0)}
}

func key(classID int64) string {
	return strconv.FormatInt(classID, 10)
}

// Save replaces the votes recorded for classID.
func (s *Store) Save(classID int64, votes map[int64]models.VoteStatus) {
	copied := make(map[int64]models.VoteStatus, len(votes))
	for id, status := range votes {
		copied[id] = status
	}
	s.cache.Set(key(classID), copied, cache.NoExpiration)
}

// Load returns a copy of the votes recorded for classID.
func (s *Store) Load(classID int64) (map[int64]models.VoteStatus, bool) {
	raw, found := s.cache.Get(key(classID))
	if !found {
		return nil, false
	}
	votes, ok := raw.(map[int64]models.VoteStatus)
	if !ok {
		return nil, false
	}

	copied := make(map[int64]models.VoteStatus, len(votes))
	for id, status := range votes {
		copied[id] = status
	}
	return copied, true
}

// Vote returns the recorded vote for one review, VoteNone when unknown.
func (s *Store) Vote(classID, reviewID int64) models.VoteStatus {
	votes, ok := s.Load(classID)
	if !ok {
		return models.VoteNone
	}
	if status, ok := votes[reviewID]; ok {
		return status
	}
	return models.VoteNone
}

// SaveFile writes the ledger to path.
func (s *Store) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create vote state dir: %w", err)
	}
	if err := s.cache.SaveFile(path); err != nil {
		return fmt.Errorf("save vote state: %w", err)
	}
	return nil
}

// LoadFile merges a ledger previously written by SaveFile. A missing file is
// not an error.
func (s *Store) LoadFile(path string) error {
	if err := s.cache.LoadFile(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load vote state: %w", err)
	}
	return nil
}
