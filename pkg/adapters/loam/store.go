package loam

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/loam"
	"github.com/aretw0/nestflow/pkg/domain"
)

// Store adapts a Loam repository to ports.ModuleStore: one markdown document per module,
// metadata in the frontmatter and the graph in the body.
type Store struct {
	Repo *loam.TypedRepository[ModuleMetadata]
}

// New creates a new Loam module store.
func New(repo *loam.TypedRepository[ModuleMetadata]) *Store {
	return &Store{
		Repo: repo,
	}
}

// Open initializes a Loam repository at path without versioning and wraps it.
func Open(path string) (*Store, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath, loam.WithVersioning(false))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[ModuleMetadata](repo)), nil
}

// Load reads a module document.
func (s *Store) Load(ctx context.Context, moduleID string) (*domain.Module, error) {
	doc, err := s.Repo.Get(ctx, moduleID)
	if err != nil {
		// Loam does not expose a typed not-found error; fall back to the listing.
		ids, listErr := s.List(ctx)
		if listErr == nil && !slices.Contains(ids, moduleID) {
			return nil, domain.ErrModuleNotFound
		}
		return nil, fmt.Errorf("loam get failed for %s: %w", moduleID, err)
	}

	m := &domain.Module{
		ID:           moduleID,
		Title:        doc.Data.Title,
		Description:  doc.Data.Description,
		ThumbnailURL: doc.Data.ThumbnailURL,
		Visibility:   domain.Visibility(doc.Data.Visibility),
		Views:        doc.Data.Views,
		CreatedAt:    parseTime(doc.Data.CreatedAt),
		UpdatedAt:    parseTime(doc.Data.UpdatedAt),
	}

	// A document without a body is a module without content.
	if body := strings.TrimSpace(doc.Content); body != "" {
		if err := json.Unmarshal([]byte(body), &m.Content); err != nil {
			return nil, fmt.Errorf("failed to decode graph of %s: %w", moduleID, err)
		}
	}
	if m.Content.Nodes == nil {
		m.Content.Nodes = []domain.Node{}
	}
	return m, nil
}

// Save writes the whole module document.
func (s *Store) Save(ctx context.Context, module *domain.Module) error {
	body, err := json.MarshalIndent(module.Content, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}

	err = s.Repo.Save(ctx, &loam.DocumentModel[ModuleMetadata]{
		ID:      module.ID,
		Content: string(body),
		Data: ModuleMetadata{
			ID:           module.ID,
			Title:        module.Title,
			Description:  module.Description,
			ThumbnailURL: module.ThumbnailURL,
			Visibility:   string(module.Visibility),
			Views:        module.Views,
			CreatedAt:    module.CreatedAt.UTC().Format(time.RFC3339Nano),
			UpdatedAt:    module.UpdatedAt.UTC().Format(time.RFC3339Nano),
		},
	})
	if err != nil {
		return fmt.Errorf("loam save failed for %s: %w", module.ID, err)
	}
	return nil
}

// Delete removes a module document. Missing documents are ignored.
func (s *Store) Delete(ctx context.Context, moduleID string) error {
	ids, err := s.List(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(ids, moduleID) {
		return nil
	}
	if err := s.Repo.Delete(ctx, moduleID); err != nil {
		return fmt.Errorf("loam delete failed for %s: %w", moduleID, err)
	}
	return nil
}

// List returns the ids of every module document.
func (s *Store) List(ctx context.Context) ([]string, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		// Use the ID from metadata if available, otherwise filename ID
		id := doc.Data.ID
		if id == "" {
			id = trimExtension(doc.ID)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
