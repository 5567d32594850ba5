package guideon

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Prompt names the store understands
const (
	PromptScriptwriter = "scriptwriter"
	PromptSimple       = "simple"
	PromptUserRules    = "user_rules"
)

// PromptStore loads prompt texts from a directory and caches them. A missing
// prompt caches as empty so callers fall back to their built-in default
// without re-hitting the filesystem.
type PromptStore struct {
	dir   string
	mu    sync.Mutex
	cache map[string]string
}

// NewPromptStore builds a store over dir; dir may be empty
func NewPromptStore(dir string) *PromptStore {
	return &PromptStore{dir: dir, cache: make(map[string]string)}
}

// Load returns the prompt text for name, or "" when absent. The bare file
// name is tried first, then name.txt.
func (s *PromptStore) Load(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if text, ok := s.cache[key]; ok {
		return text
	}

	var text string
	if s.dir != "" {
		for _, path := range []string{filepath.Join(s.dir, key), filepath.Join(s.dir, key+".txt")} {
			buf, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			text = strings.TrimSpace(string(buf))
			break
		}
	}
	s.cache[key] = text
	return text
}
