// Package moderation keeps the banned and moderator uuid sets, backed by a
// human-readable YAML file. The hub is the sole writer; the file is rewritten
// on every mutation.
package moderation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Store holds the ban and moderator sets for one server.
type Store struct {
	path       string
	banned     map[uuid.UUID]struct{}
	moderators map[uuid.UUID]struct{}
}

type storeFile struct {
	Banned     []string `yaml:"banned"`
	Moderators []string `yaml:"moderators"`
}

// Load reads the store at path. A missing file yields empty sets; a file that
// exists but cannot be read or parsed is an error.
func Load(path string) (*Store, error) {
	s := &Store{
		path:       path,
		banned:     make(map[uuid.UUID]struct{}),
		moderators: make(map[uuid.UUID]struct{}),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading moderation file %s: %w", path, err)
	}

	var f storeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing moderation file %s: %w", path, err)
	}
	for _, raw := range f.Banned {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("banned entry %q: %w", raw, err)
		}
		s.banned[id] = struct{}{}
	}
	for _, raw := range f.Moderators {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("moderator entry %q: %w", raw, err)
		}
		s.moderators[id] = struct{}{}
	}
	return s, nil
}

// IsBanned reports whether id is banned.
func (s *Store) IsBanned(id uuid.UUID) bool {
	_, ok := s.banned[id]
	return ok
}

// IsModerator reports whether id may use moderation packets.
func (s *Store) IsModerator(id uuid.UUID) bool {
	_, ok := s.moderators[id]
	return ok
}

// Ban adds id to the banned set and persists. Banning an already-banned id is
// a no-op that still succeeds.
func (s *Store) Ban(id uuid.UUID) error {
	if _, ok := s.banned[id]; ok {
		return nil
	}
	s.banned[id] = struct{}{}
	return s.save()
}

// Unban removes id from the banned set, reporting whether it was present.
// The set is only persisted when it changed.
func (s *Store) Unban(id uuid.UUID) (bool, error) {
	if _, ok := s.banned[id]; !ok {
		return false, nil
	}
	delete(s.banned, id)
	return true, s.save()
}

// save rewrites the file through a temp file and rename so a crash mid-write
// cannot truncate the previous contents.
func (s *Store) save() error {
	f := storeFile{
		Banned:     sortedIDs(s.banned),
		Moderators: sortedIDs(s.moderators),
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encoding moderation file: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp moderation file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing moderation file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing moderation file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing moderation file: %w", err)
	}
	return nil
}

func sortedIDs(set map[uuid.UUID]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id.String())
	}
	sort.Strings(ids)
	return ids
}
