// Package testutils holds fixtures shared by tests that need a real Loam repository.
package testutils

import (
	"context"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	loamstore "github.com/aretw0/nestflow/pkg/adapters/loam"
	"github.com/stretchr/testify/require"
)

// NewLoamStore initializes an unversioned Loam repository in a temp dir and returns
// a module store over it together with the raw repository.
func NewLoamStore(t *testing.T) (*loamstore.Store, core.Repository) {
	t.Helper()

	repo, err := loam.Init(t.TempDir(), loam.WithVersioning(false))
	require.NoError(t, err, "Failed to init loam repo")

	return loamstore.New(loam.NewTypedRepository[loamstore.ModuleMetadata](repo)), repo
}

// WriteDocument saves a hand-authored Markdown document, bypassing the module store.
func WriteDocument(t *testing.T, repo core.Repository, id, content string) {
	t.Helper()
	err := repo.Save(context.Background(), core.Document{ID: id, Content: content})
	require.NoError(t, err, "Failed to write %s", id)
}
