package templates

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/jonathan/coursecraft/internal/db"
)

// Backend is the persistence surface for stored template overrides. *db.DB
// satisfies it; tests substitute an in-memory implementation.
type Backend interface {
	GetActiveTemplate(ctx context.Context, category string) (*db.PromptTemplate, error)
	SaveTemplate(ctx context.Context, category, content string) (*db.PromptTemplate, error)
	DeactivateTemplates(ctx context.Context, category string) error
	DeactivateAllTemplates(ctx context.Context) error
	ListTemplates(ctx context.Context, category string) ([]db.PromptTemplate, error)
}

// cacheEntry records one resolved lookup. found=false caches the knowledge
// that no override exists, so repeated renders don't hit the store.
type cacheEntry struct {
	content string
	found   bool
}

// Store resolves the active template per category, caching lookups in memory
// until a write invalidates them. The cache is the only shared mutable state
// in the core: reads during invalidation see either the old or the new
// template, never a torn value.
type Store struct {
	backend Backend

	mu    sync.RWMutex
	cache map[Category]cacheEntry
}

// NewStore creates a template store over the given backend
func NewStore(backend Backend) *Store {
	return &Store{
		backend: backend,
		cache:   make(map[Category]cacheEntry),
	}
}

// Get returns the active stored template for a category, or compiledDefault
// when no override exists. It never fails: a backend error falls back to the
// default so the pipeline can always render.
func (s *Store) Get(ctx context.Context, category Category, compiledDefault string) string {
	s.mu.RLock()
	entry, cached := s.cache[category]
	s.mu.RUnlock()

	if cached {
		if entry.found {
			return entry.content
		}
		return compiledDefault
	}

	stored, err := s.backend.GetActiveTemplate(ctx, string(category))
	if err != nil {
		// Fail open: a broken store must not block rendering. Not cached, so
		// the next read retries the backend.
		log.Printf("[templates] lookup failed for %s, using default: %v", category, err)
		return compiledDefault
	}

	s.mu.Lock()
	if stored != nil {
		s.cache[category] = cacheEntry{content: stored.Content, found: true}
	} else {
		s.cache[category] = cacheEntry{found: false}
	}
	s.mu.Unlock()

	if stored != nil {
		return stored.Content
	}
	return compiledDefault
}

// Resolve returns the effective template for a category using its
// compiled-in default as the fallback
func (s *Store) Resolve(ctx context.Context, category Category) string {
	return s.Get(ctx, category, DefaultTemplate(category))
}

// RenderCategory resolves a category's template and renders it with vars
func (s *Store) RenderCategory(ctx context.Context, category Category, vars map[string]string) string {
	return Render(s.Resolve(ctx, category), vars)
}

// Save stores a new override for a category and makes it active. The cache
// entry is invalidated before returning so the next read reflects the change.
func (s *Store) Save(ctx context.Context, category Category, content string) error {
	if !ValidCategory(category) {
		return fmt.Errorf("unknown template category: %q", category)
	}
	if content == "" {
		return fmt.Errorf("template content is empty")
	}

	if _, err := s.backend.SaveTemplate(ctx, string(category), content); err != nil {
		return err
	}

	s.invalidate(category)
	return nil
}

// Reset deactivates every stored override for a category, restoring the
// compiled-in default
func (s *Store) Reset(ctx context.Context, category Category) error {
	if !ValidCategory(category) {
		return fmt.Errorf("unknown template category: %q", category)
	}

	if err := s.backend.DeactivateTemplates(ctx, string(category)); err != nil {
		return err
	}

	s.invalidate(category)
	return nil
}

// ResetAll deactivates every stored override across all categories
func (s *Store) ResetAll(ctx context.Context) error {
	if err := s.backend.DeactivateAllTemplates(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.cache = make(map[Category]cacheEntry)
	s.mu.Unlock()
	return nil
}

// List returns stored templates, optionally scoped to one category
func (s *Store) List(ctx context.Context, category string) ([]db.PromptTemplate, error) {
	return s.backend.ListTemplates(ctx, category)
}

// invalidate drops one category's cache entry
func (s *Store) invalidate(category Category) {
	s.mu.Lock()
	delete(s.cache, category)
	s.mu.Unlock()
}
