package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/nestflow/pkg/domain"
)

// SessionStore implements ports.SessionStore using the local filesystem.
// It stores sessions as JSON files in a configured directory.
type SessionStore struct {
	BasePath string
}

// NewSessionStore creates a SessionStore with the given base path.
// If basePath is empty, it defaults to ".nestflow/sessions".
func NewSessionStore(basePath string) *SessionStore {
	if basePath == "" {
		basePath = filepath.Join(".nestflow", "sessions")
	}
	return &SessionStore{BasePath: basePath}
}

// Save persists the session state to a JSON file atomically.
func (s *SessionStore) Save(ctx context.Context, sessionID string, state *domain.State) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := writeAtomic(s.BasePath, sessionID+".json", data); err != nil {
		return fmt.Errorf("failed to save session %s: %w", sessionID, err)
	}
	return nil
}

// Load retrieves the session state from a JSON file.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionID cannot be empty")
	}

	data, err := os.ReadFile(filepath.Join(s.BasePath, sessionID+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var state domain.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
	}
	if state.Responses == nil {
		state.Responses = make(map[string]domain.Response)
	}
	return &state, nil
}

// Delete removes the session file.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}
	if err := removeFile(filepath.Join(s.BasePath, sessionID+".json")); err != nil {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// List returns all active session IDs.
func (s *SessionStore) List(ctx context.Context) ([]string, error) {
	ids, err := listIDs(s.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}

// ModuleStore implements ports.ModuleStore as one JSON document per module.
type ModuleStore struct {
	BasePath string
}

// NewModuleStore creates a ModuleStore rooted at basePath (default ".nestflow/modules").
func NewModuleStore(basePath string) *ModuleStore {
	if basePath == "" {
		basePath = filepath.Join(".nestflow", "modules")
	}
	return &ModuleStore{BasePath: basePath}
}

// Load reads a module document.
func (s *ModuleStore) Load(ctx context.Context, moduleID string) (*domain.Module, error) {
	if moduleID == "" {
		return nil, domain.ErrModuleNotFound
	}
	data, err := os.ReadFile(filepath.Join(s.BasePath, moduleID+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to read module file: %w", err)
	}

	var m domain.Module
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode module %s: %w", moduleID, err)
	}
	return &m, nil
}

// Save writes a module document atomically.
func (s *ModuleStore) Save(ctx context.Context, module *domain.Module) error {
	if module.ID == "" {
		return fmt.Errorf("module id cannot be empty")
	}
	data, err := json.MarshalIndent(module, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal module: %w", err)
	}
	if err := writeAtomic(s.BasePath, module.ID+".json", data); err != nil {
		return fmt.Errorf("failed to save module %s: %w", module.ID, err)
	}
	return nil
}

// Delete removes a module document.
func (s *ModuleStore) Delete(ctx context.Context, moduleID string) error {
	if err := removeFile(filepath.Join(s.BasePath, moduleID+".json")); err != nil {
		return fmt.Errorf("failed to delete module file: %w", err)
	}
	return nil
}

// List returns the ids of every module document.
func (s *ModuleStore) List(ctx context.Context) ([]string, error) {
	ids, err := listIDs(s.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	return ids, nil
}
