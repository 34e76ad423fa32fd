package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// FixtureNodes returns a graph exercising every node type and both connection shapes.
func FixtureNodes() []domain.Node {
	intro := domain.NewNode("node-intro", domain.NodeTypeMessage, domain.Position{X: 240, Y: 180})
	intro.Config.(*domain.MessageConfig).Content = "# Welcome"
	intro.Config.(domain.Linear).SetNext("node-video")

	video := domain.NewNode("node-video", domain.NodeTypeVideo, domain.Position{X: 290, Y: 230})
	video.Config.(*domain.VideoConfig).VideoURL = "intro.mp4"
	video.Config.(domain.Linear).SetNext("node-route")

	route := domain.NewNode("node-route", domain.NodeTypeRouter, domain.Position{X: 340, Y: 280})
	rc, _ := route.Router()
	rc.Question = "Continue?"
	rc.Overlay = true
	rc.Choices = []domain.Choice{
		{ID: "choice-yes", Text: "Yes", Connection: "node-name"},
		{ID: "choice-no", Text: "No"},
	}

	name := domain.NewNode("node-name", domain.NodeTypeTextInput, domain.Position{X: 390, Y: 330})
	name.Config.(*domain.TextInputConfig).Question = "Your name?"
	name.Config.(domain.Linear).SetNext("node-pick")

	pick := domain.NewNode("node-pick", domain.NodeTypeMultipleChoice, domain.Position{X: 440, Y: 380})
	mc := pick.Config.(*domain.MultipleChoiceConfig)
	mc.Choices = []domain.Option{{ID: "choice-a", Text: "A"}, {ID: "choice-b", Text: "B"}}
	mc.AllowMultiple = false
	mc.SetNext("node-rank")

	rank := domain.NewNode("node-rank", domain.NodeTypeRanking, domain.Position{X: 490, Y: 430})
	rank.Config.(*domain.RankingConfig).Items = []string{"first", "second"}

	return []domain.Node{intro, video, route, name, pick, rank}
}

// FixtureModule returns a module record holding FixtureNodes.
func FixtureModule(id string) *domain.Module {
	m := domain.NewModule(id, "Onboarding")
	m.Description = "First steps"
	m.Visibility = domain.VisibilityPrivate
	m.Content = domain.Content{Nodes: FixtureNodes()}
	m.CreatedAt = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m.UpdatedAt = m.CreatedAt
	return m
}

// ModuleStoreContractTest is a reusable test suite that verifies if an adapter complies with ports.ModuleStore.
func ModuleStoreContractTest(t *testing.T, store ports.ModuleStore) {
	t.Helper()
	ctx := context.Background()

	// 1. Round trip is lossless for every node field
	t.Run("Save_Load_RoundTrip", func(t *testing.T) {
		want := FixtureModule("module-contract")
		require.NoError(t, store.Save(ctx, want))

		got, err := store.Load(ctx, want.ID)
		require.NoError(t, err)
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Title, got.Title)
		assert.Equal(t, want.Description, got.Description)
		assert.Equal(t, want.Visibility, got.Visibility)
		assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "updated_at: want %v, got %v", want.UpdatedAt, got.UpdatedAt)
		assert.Equal(t, want.Content.Nodes, got.Content.Nodes)
	})

	// 2. Save replaces the record wholesale
	t.Run("Save_Overwrites", func(t *testing.T) {
		m := FixtureModule("module-overwrite")
		require.NoError(t, store.Save(ctx, m))

		m.Title = "Renamed"
		m.Content.Nodes = m.Content.Nodes[:1]
		require.NoError(t, store.Save(ctx, m))

		got, err := store.Load(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
		assert.Len(t, got.Content.Nodes, 1)
	})

	// 3. Missing modules are reported distinctly
	t.Run("Load_NotFound", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-module")
		assert.ErrorIs(t, err, domain.ErrModuleNotFound)
	})

	// 4. List and Delete
	t.Run("List_Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, FixtureModule("module-list-1")))
		require.NoError(t, store.Save(ctx, FixtureModule("module-list-2")))

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, "module-list-1")
		assert.Contains(t, ids, "module-list-2")

		require.NoError(t, store.Delete(ctx, "module-list-1"))
		require.NoError(t, store.Delete(ctx, "module-list-1"))
		_, err = store.Load(ctx, "module-list-1")
		assert.ErrorIs(t, err, domain.ErrModuleNotFound)
	})
}

// SessionStoreContractTest verifies that an adapter complies with ports.SessionStore.
func SessionStoreContractTest(t *testing.T, store ports.SessionStore) {
	t.Helper()
	ctx := context.Background()

	playing := func(id string) *domain.State {
		s := domain.NewState("module-contract", 2, "node-route")
		s.SessionID = id
		s.History = []string{"node-intro", "node-video", "node-route"}
		return s
	}

	t.Run("Save_Load_Responses", func(t *testing.T) {
		want := playing("session-roundtrip")
		want.Responses["node-name"] = domain.TextResponse("Ada")
		want.Responses["node-rank"] = domain.RankingResponse([]string{"item-b", "item-a"})
		require.NoError(t, store.Save(ctx, want.SessionID, want))

		got, err := store.Load(ctx, want.SessionID)
		require.NoError(t, err)
		assert.Equal(t, want.ModuleID, got.ModuleID)
		assert.Equal(t, want.Status, got.Status)
		assert.Equal(t, want.CurrentIndex, got.CurrentIndex)
		assert.Equal(t, want.History, got.History)
		assert.Equal(t, "Ada", got.Responses["node-name"].Text)
		assert.Equal(t, []string{"item-b", "item-a"}, got.Responses["node-rank"].Ranking)
	})

	t.Run("Load_NotFound", func(t *testing.T) {
		_, err := store.Load(ctx, "session-missing")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("List_Delete", func(t *testing.T) {
		for _, id := range []string{"session-list-1", "session-list-2"} {
			require.NoError(t, store.Save(ctx, id, playing(id)))
		}

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Subset(t, ids, []string{"session-list-1", "session-list-2"})

		require.NoError(t, store.Delete(ctx, "session-list-1"))
		_, err = store.Load(ctx, "session-list-1")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)

		ids, err = store.List(ctx)
		require.NoError(t, err)
		assert.NotContains(t, ids, "session-list-1")
	})
}
