package canvas_test

import (
	"testing"

	"github.com/aretw0/nestflow/pkg/canvas"
	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func message(id, next string) domain.Node {
	n := domain.NewNode(id, domain.NodeTypeMessage, domain.Position{})
	n.Config.(domain.Linear).SetNext(next)
	return n
}

func router(id string, choices ...domain.Choice) domain.Node {
	n := domain.NewNode(id, domain.NodeTypeRouter, domain.Position{})
	rc, _ := n.Router()
	rc.Choices = choices
	return n
}

func fixture() *graph.Store {
	s := graph.NewStore()
	s.Load([]domain.Node{
		router("R",
			domain.Choice{ID: "c1", Text: "Yes", Connection: "X"},
			domain.Choice{ID: "c2", Text: "No"},
			domain.Choice{ID: "c3", Text: "Maybe", Connection: "X"},
		),
		message("X", "Y"),
		message("Y", ""),
	})
	return s
}

func TestEdges(t *testing.T) {
	edges := canvas.Edges(fixture().Nodes())

	require.Len(t, edges, 3)
	assert.Equal(t, canvas.EdgeID{SourceID: "R", ChoiceID: "c1", TargetID: "X"}, edges[0].ID)
	assert.Equal(t, "Yes", edges[0].Label)
	assert.Equal(t, "#8b5cf6", edges[0].Color)
	assert.Equal(t, canvas.EdgeID{SourceID: "R", ChoiceID: "c3", TargetID: "X"}, edges[1].ID)
	assert.Equal(t, canvas.EdgeID{SourceID: "X", TargetID: "Y"}, edges[2].ID)
	assert.Equal(t, "#3b82f6", edges[2].Color)
}

func TestEdges_SuccessorCounts(t *testing.T) {
	nodes := fixture().Nodes()
	out := map[string]int{}
	for _, e := range canvas.Edges(nodes) {
		out[e.ID.SourceID]++
	}
	for _, n := range nodes {
		if rc, ok := n.Router(); ok {
			connected := 0
			for _, c := range rc.Choices {
				if c.Connection != "" {
					connected++
				}
			}
			assert.Equal(t, connected, out[n.ID])
			continue
		}
		assert.LessOrEqual(t, out[n.ID], 1)
	}
}

func TestAnchors(t *testing.T) {
	nodes := fixture().Nodes()

	anchors := canvas.Anchors(nodes[0])
	require.Len(t, anchors, 3)
	assert.InDelta(t, 0.25, anchors[0].Offset, 1e-9)
	assert.InDelta(t, 0.5, anchors[1].Offset, 1e-9)
	assert.InDelta(t, 0.75, anchors[2].Offset, 1e-9)
	assert.Equal(t, "c2", anchors[1].ChoiceID)

	assert.Equal(t, []canvas.Anchor{{Offset: 0.5}}, canvas.Anchors(nodes[1]))
}

func TestSurface_Connect(t *testing.T) {
	t.Run("router anchor", func(t *testing.T) {
		s := fixture()
		ok, err := canvas.NewSurface(s).Connect(canvas.ConnectRequest{SourceID: "R", TargetID: "Y", ChoiceID: "c2"})
		require.NoError(t, err)
		assert.True(t, ok)

		n, _ := s.Node("R")
		rc, _ := n.Router()
		assert.Equal(t, []string{"X", "Y", "X"}, []string{rc.Choices[0].Connection, rc.Choices[1].Connection, rc.Choices[2].Connection})
	})

	t.Run("linear node", func(t *testing.T) {
		s := fixture()
		ok, err := canvas.NewSurface(s).Connect(canvas.ConnectRequest{SourceID: "Y", TargetID: "R"})
		require.NoError(t, err)
		assert.True(t, ok)
		n, _ := s.Node("Y")
		assert.Equal(t, "R", n.Connection())
	})

	t.Run("self connection rejected", func(t *testing.T) {
		s := fixture()
		ok, err := canvas.NewSurface(s).Connect(canvas.ConnectRequest{SourceID: "X", TargetID: "X"})
		assert.ErrorIs(t, err, domain.ErrSelfConnection)
		assert.False(t, ok)
		n, _ := s.Node("X")
		assert.Equal(t, "Y", n.Connection())
	})

	t.Run("router without anchor", func(t *testing.T) {
		_, err := canvas.NewSurface(fixture()).Connect(canvas.ConnectRequest{SourceID: "R", TargetID: "Y"})
		assert.ErrorIs(t, err, domain.ErrChoiceNotFound)
	})

	t.Run("vanished source", func(t *testing.T) {
		ok, err := canvas.NewSurface(fixture()).Connect(canvas.ConnectRequest{SourceID: "ghost", TargetID: "Y"})
		assert.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestSurface_DisconnectEdge(t *testing.T) {
	t.Run("only the named choice", func(t *testing.T) {
		s := fixture()
		assert.True(t, canvas.NewSurface(s).DisconnectEdge(canvas.EdgeID{SourceID: "R", ChoiceID: "c1", TargetID: "X"}))

		n, _ := s.Node("R")
		rc, _ := n.Router()
		assert.Equal(t, "", rc.Choices[0].Connection)
		assert.Equal(t, "X", rc.Choices[2].Connection)
	})

	t.Run("stale choice falls back to endpoints", func(t *testing.T) {
		s := fixture()
		surface := canvas.NewSurface(s)
		_, edges := surface.Snapshot()
		stale := edges[0].ID

		require.True(t, s.UpdateRouterConnection("R", "c1", "Y"))
		assert.True(t, surface.DisconnectEdge(stale))

		n, _ := s.Node("R")
		rc, _ := n.Router()
		assert.Equal(t, "Y", rc.Choices[0].Connection)
		assert.Equal(t, "", rc.Choices[2].Connection)
	})

	t.Run("linear edge", func(t *testing.T) {
		s := fixture()
		assert.True(t, canvas.NewSurface(s).DisconnectEdge(canvas.EdgeID{SourceID: "X", TargetID: "Y"}))
		n, _ := s.Node("X")
		assert.Equal(t, "", n.Connection())
	})
}

func TestSurface_DragKeepsConnections(t *testing.T) {
	s := fixture()
	surface := canvas.NewSurface(s)
	_, before := surface.Snapshot()

	assert.True(t, surface.Drag("X", domain.Position{X: 500, Y: 20}))

	nodes, after := surface.Snapshot()
	assert.Equal(t, before, after)
	assert.Equal(t, domain.Position{X: 500, Y: 20}, nodes[1].Position)
}

func TestSurface_DeleteNodeDropsEdges(t *testing.T) {
	s := fixture()
	surface := canvas.NewSurface(s)

	assert.True(t, surface.DeleteNode("X"))
	_, edges := surface.Snapshot()
	assert.Empty(t, edges)
}

func TestViewport(t *testing.T) {
	v := canvas.NewViewport()
	assert.Equal(t, 100, v.Percent())

	v.ZoomBy(1)
	assert.Equal(t, 110, v.Percent())

	for i := 0; i < 50; i++ {
		v.ZoomBy(1)
	}
	assert.Equal(t, canvas.MaxZoom, v.Zoom)

	for i := 0; i < 50; i++ {
		v.ZoomBy(-1)
	}
	assert.Equal(t, canvas.MinZoom, v.Zoom)

	v.Reset()
	assert.Equal(t, 1.0, v.Zoom)
}

func TestViewport_Wheel(t *testing.T) {
	v := canvas.NewViewport()

	assert.False(t, v.Wheel(120, false))
	assert.Equal(t, 1.0, v.Zoom)

	assert.True(t, v.Wheel(120, true))
	assert.Equal(t, 90, v.Percent())

	assert.True(t, v.Wheel(-120, true))
	assert.Equal(t, 100, v.Percent())
}

func TestViewport_Coordinates(t *testing.T) {
	v := canvas.NewViewport()
	v.SetZoom(2)
	v.PanBy(10, 20)

	screen := v.ToScreen(domain.Position{X: 5, Y: 5})
	assert.Equal(t, domain.Position{X: 20, Y: 30}, screen)
	assert.Equal(t, domain.Position{X: 5, Y: 5}, v.ToCanvas(screen))
}
