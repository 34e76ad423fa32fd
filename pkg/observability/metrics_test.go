package observability_test

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/graph"
	"github.com/aretw0/nestflow/pkg/observability"
	"github.com/aretw0/nestflow/pkg/player"
	"github.com/aretw0/nestflow/pkg/ports/tests"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_GraphMutations(t *testing.T) {
	m := observability.NewMetrics()
	store := graph.NewStore()
	store.Subscribe(m.GraphListener())

	a := store.AddNode(domain.NodeTypeMessage)
	b := store.AddNode(domain.NodeTypeMessage)
	store.UpdateNodeConnection(a.ID, b.ID)
	store.DeleteNode("missing")

	expected := `
# HELP nestflow_graph_mutations_total Total number of applied graph store mutations
# TYPE nestflow_graph_mutations_total counter
nestflow_graph_mutations_total{op="add"} 2
nestflow_graph_mutations_total{op="connect"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "nestflow_graph_mutations_total"))
}

func TestMetrics_PlaybackHooks(t *testing.T) {
	ctx := context.Background()
	m := observability.NewMetrics()
	var entered int
	counting := domain.LifecycleHooks{
		OnNodeEnter: func(context.Context, *domain.NodeEvent) { entered++ },
	}
	engine := player.NewEngine(player.WithLifecycleHooks(observability.Combine(m.Hooks(), counting)))

	nodes := tests.FixtureNodes()
	state, err := engine.Start(ctx, "m1", nodes)
	require.NoError(t, err)
	state, err = engine.Continue(ctx, nodes, state)
	require.NoError(t, err)
	_, err = engine.Finish(ctx, nodes, state)
	require.NoError(t, err)

	assert.Equal(t, 2, entered)
	expected := `
# HELP nestflow_playback_transitions_total Total number of nodes entered during playback
# TYPE nestflow_playback_transitions_total counter
nestflow_playback_transitions_total{node_type="message"} 1
nestflow_playback_transitions_total{node_type="video"} 1
# HELP nestflow_playback_completions_total Total number of finished playbacks by reason
# TYPE nestflow_playback_completions_total counter
nestflow_playback_completions_total{reason="finished"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"nestflow_playback_transitions_total", "nestflow_playback_completions_total"))
}

func TestMetrics_HandlerAndSaves(t *testing.T) {
	m := observability.NewMetrics()
	m.ObserveSave(nil)
	m.ObserveSave(errors.New("boom"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	assert.Contains(t, string(body), `nestflow_module_saves_total{result="ok"} 1`)
	assert.Contains(t, string(body), `nestflow_module_saves_total{result="error"} 1`)
}
