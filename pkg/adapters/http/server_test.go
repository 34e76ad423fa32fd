package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/nestflow/pkg/adapters/memory"
	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/observability"
	"github.com/aretw0/nestflow/pkg/player"
	"github.com/aretw0/nestflow/pkg/ports/tests"
	"github.com/aretw0/nestflow/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	modules *memory.ModuleStore
	metrics *observability.Metrics
	server  *Server
	handler http.Handler
}

func newFixture(t *testing.T, seed ...*domain.Module) *fixture {
	t.Helper()
	modules := memory.NewModuleStore(seed...)
	metrics := observability.NewMetrics()
	engine := player.NewEngine(player.WithLifecycleHooks(metrics.Hooks()))
	sessions := session.NewManager(memory.NewSessionStore(), modules, session.WithEngine(engine))
	srv := NewServer(modules, sessions,
		WithMetrics(metrics),
		WithMediaStore(memory.NewMediaStore("https://cdn.example.com", "module-thumbnails")),
	)
	return &fixture{modules: modules, metrics: metrics, server: srv, handler: srv.Routes()}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "OPTIONS", "/modules/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestModuleLifecycle(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "POST", "/modules/", CreateModuleRequest{ID: "mod-1", Title: "Intro"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[domain.Module](t, w)
	assert.Equal(t, domain.VisibilityDraft, created.Visibility)

	title := "Renamed"
	w = f.do(t, "PATCH", "/modules/mod-1", UpdateModuleRequest{Title: &title})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Renamed", decode[domain.Module](t, w).Title)

	w = f.do(t, "GET", "/modules/", nil)
	assert.Equal(t, []string{"mod-1"}, decode[[]string](t, w))

	w = f.do(t, "DELETE", "/modules/mod-1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, "GET", "/modules/mod-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGraphEditing(t *testing.T) {
	f := newFixture(t, domain.NewModule("mod-1", "Intro"))

	w := f.do(t, "POST", "/modules/mod-1/nodes", AddNodeRequest{Type: domain.NodeTypeMessage})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[GraphResponse](t, w)
	require.NotNil(t, first.Node)
	assert.True(t, strings.HasPrefix(first.Node.ID, "node-"))
	assert.Equal(t, domain.Position{X: 240, Y: 180}, first.Node.Position)

	w = f.do(t, "POST", "/modules/mod-1/nodes", AddNodeRequest{Type: domain.NodeTypeTextInput})
	require.Equal(t, http.StatusCreated, w.Code)
	second := decode[GraphResponse](t, w)
	assert.Equal(t, domain.Position{X: 290, Y: 230}, second.Node.Position)

	src, dst := first.Node.ID, second.Node.ID

	t.Run("connect", func(t *testing.T) {
		w := f.do(t, "POST", "/modules/mod-1/edges", map[string]string{"sourceId": src, "targetId": dst})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		g := decode[GraphResponse](t, w)
		require.Len(t, g.Edges, 1)
		assert.Equal(t, dst, g.Edges[0].ID.TargetID)
	})

	t.Run("self connection rejected", func(t *testing.T) {
		w := f.do(t, "POST", "/modules/mod-1/edges", map[string]string{"sourceId": src, "targetId": src})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("config patch", func(t *testing.T) {
		w := f.do(t, "PATCH", "/modules/mod-1/nodes/"+src, map[string]any{"content": "Hello"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		n := decode[GraphResponse](t, w).Node
		require.NotNil(t, n)
		assert.Equal(t, "Hello", n.Config.(*domain.MessageConfig).Content)
		assert.Equal(t, dst, n.Connection(), "patch must not touch the connection")
	})

	t.Run("move rounds on save", func(t *testing.T) {
		w := f.do(t, "PUT", "/modules/mod-1/nodes/"+src+"/position", domain.Position{X: 10.6, Y: 20.4})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, domain.Position{X: 11, Y: 20}, decode[GraphResponse](t, w).Node.Position)
	})

	t.Run("disconnect", func(t *testing.T) {
		w := f.do(t, "DELETE", "/modules/mod-1/edges?source="+src+"&target="+dst, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[GraphResponse](t, w).Edges)
	})

	t.Run("delete node", func(t *testing.T) {
		w := f.do(t, "DELETE", "/modules/mod-1/nodes/"+dst, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[GraphResponse](t, w).Nodes, 1)

		w = f.do(t, "DELETE", "/modules/mod-1/nodes/"+dst, nil)
		assert.Equal(t, http.StatusOK, w.Code, "deleting an unknown node is a no-op")
	})

	stored, err := f.modules.Load(context.Background(), "mod-1")
	require.NoError(t, err)
	require.Len(t, stored.Content.Nodes, 1)
	assert.Equal(t, "Hello", stored.Content.Nodes[0].Config.(*domain.MessageConfig).Content)
}

func TestGraphEditing_Errors(t *testing.T) {
	f := newFixture(t, domain.NewModule("mod-1", "Intro"))

	w := f.do(t, "POST", "/modules/mod-1/nodes", AddNodeRequest{Type: "quiz"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, "POST", "/modules/missing/nodes", AddNodeRequest{Type: domain.NodeTypeMessage})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, "PATCH", "/modules/mod-1/nodes/node-ghost", map[string]any{"content": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, "DELETE", "/modules/mod-1/edges?source=a", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateAndMermaid(t *testing.T) {
	f := newFixture(t, tests.FixtureModule("mod-1"))

	w := f.do(t, "GET", "/modules/mod-1/validate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[map[string]any](t, w)
	assert.Equal(t, true, report["valid"])

	w = f.do(t, "GET", "/modules/mod-1/mermaid", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "graph TD"))
	assert.Contains(t, w.Body.String(), `-- "Yes" --> node_name`)
}

func TestPlayback(t *testing.T) {
	f := newFixture(t, tests.FixtureModule("mod-1"))

	w := f.do(t, "POST", "/modules/mod-1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	started := decode[SessionResponse](t, w)
	require.NotNil(t, started.View)
	assert.Equal(t, domain.NodeTypeMessage, started.View.Type)
	sid := started.State.SessionID
	require.NotEmpty(t, sid)

	w = f.do(t, "POST", "/sessions/"+sid+"/advance", domain.Continue(domain.NodeTypeMessage))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "node-video", decode[SessionResponse](t, w).View.NodeID)

	w = f.do(t, "POST", "/sessions/"+sid+"/advance", domain.Continue(domain.NodeTypeVideo))
	require.Equal(t, http.StatusOK, w.Code)
	routed := decode[SessionResponse](t, w).View
	require.NotNil(t, routed.Router)
	require.NotNil(t, routed.Overlay, "overlay router keeps the video underneath")
	assert.True(t, routed.Overlay.Background)

	w = f.do(t, "POST", "/sessions/"+sid+"/advance", domain.RouteResponse("choice-yes"))
	require.Equal(t, http.StatusOK, w.Code)
	w = f.do(t, "POST", "/sessions/"+sid+"/advance", domain.TextResponse("Ada"))
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, "POST", "/sessions/"+sid+"/finish", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.StatusCompleted, decode[SessionResponse](t, w).State.Status)

	w = f.do(t, "POST", "/sessions/"+sid+"/advance", domain.Continue(domain.NodeTypeMessage))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, "GET", "/sessions/"+sid+"/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	answers := decode[[]player.Answer](t, w)
	require.Len(t, answers, 2)
	assert.Equal(t, "Ada", answers[1].Response.Text)

	w = f.do(t, "DELETE", "/sessions/"+sid, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(t, "GET", "/sessions/"+sid, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlayback_EmptyModule(t *testing.T) {
	f := newFixture(t, domain.NewModule("mod-empty", "Nothing yet"))

	w := f.do(t, "POST", "/modules/mod-empty/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[SessionResponse](t, w)
	assert.Equal(t, domain.StatusEmpty, resp.State.Status)
	assert.Equal(t, domain.StatusEmpty, resp.View.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, domain.NewModule("mod-1", "Intro"))
	f.do(t, "POST", "/modules/mod-1/nodes", AddNodeRequest{Type: domain.NodeTypeRouter})

	w := f.do(t, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `nestflow_graph_mutations_total{op="add"} 1`)
	assert.Contains(t, w.Body.String(), `nestflow_module_saves_total{result="ok"} 1`)
}

func TestMedia(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest("PUT", "/media/cover.png", strings.NewReader("png-bytes"))
	req.Header.Set("Content-Type", "image/png")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "https://cdn.example.com/module-thumbnails/cover.png")

	w = f.do(t, "GET", "/media", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"image/png"`)

	w = f.do(t, "DELETE", "/media/cover.png", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestSubscribeEvents(t *testing.T) {
	f := newFixture(t, domain.NewModule("mod-1", "Intro"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wSub := httptest.NewRecorder()
	reqSub := httptest.NewRequest("GET", "/modules/mod-1/events", nil).WithContext(ctx)
	done := make(chan struct{})
	go func() {
		f.handler.ServeHTTP(wSub, reqSub)
		close(done)
	}()

	require.Eventually(t, func() bool {
		f.server.Streams.mu.RLock()
		defer f.server.Streams.mu.RUnlock()
		return len(f.server.Streams.subscribers["mod-1"]) == 1
	}, time.Second, 10*time.Millisecond)

	w := f.do(t, "POST", "/modules/mod-1/nodes", AddNodeRequest{Type: domain.NodeTypeMessage})
	require.Equal(t, http.StatusCreated, w.Code)

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	output := wSub.Body.String()
	assert.Contains(t, output, "event: ping")
	assert.Contains(t, output, `"op":"add"`)
}

func TestStreamManager_UnsubscribeTwice(t *testing.T) {
	sm := NewStreamManager()
	_, cancel := sm.Subscribe("mod-1")
	cancel()
	assert.NotPanics(t, cancel)
	assert.NotPanics(t, func() { sm.Broadcast("mod-1", "x") })
}

func TestRouterChoices(t *testing.T) {
	f := newFixture(t, domain.NewModule("mod-1", "Intro"))

	w := f.do(t, "POST", "/modules/mod-1/nodes", AddNodeRequest{Type: domain.NodeTypeRouter})
	require.Equal(t, http.StatusCreated, w.Code)
	router := decode[GraphResponse](t, w).Node.ID
	w = f.do(t, "POST", "/modules/mod-1/nodes", AddNodeRequest{Type: domain.NodeTypeMessage})
	require.Equal(t, http.StatusCreated, w.Code)
	msg := decode[GraphResponse](t, w).Node.ID

	w = f.do(t, "GET", "/modules/mod-1/nodes/"+router+"/targets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), router, "a node is never its own target")
	assert.Contains(t, w.Body.String(), msg)

	w = f.do(t, "POST", "/modules/mod-1/nodes/"+router+"/choices", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	choiceID := decode[GraphResponse](t, w).ChoiceID
	require.NotEmpty(t, choiceID)

	text := "Go on"
	w = f.do(t, "PATCH", "/modules/mod-1/nodes/"+router+"/choices/"+choiceID, ChoiceRequest{Text: &text, TargetID: &msg})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	g := decode[GraphResponse](t, w)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "Go on", g.Edges[0].Label)
	assert.Equal(t, choiceID, g.Edges[0].ID.ChoiceID)

	w = f.do(t, "PATCH", "/modules/mod-1/nodes/"+router+"/choices/"+choiceID, ChoiceRequest{TargetID: &router})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, "POST", "/modules/mod-1/nodes/"+msg+"/choices", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "messages take no choices")

	w = f.do(t, "DELETE", "/modules/mod-1/nodes/"+router+"/choices/"+choiceID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[GraphResponse](t, w).Edges)
}
