package nestflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/nestflow"
	"github.com/aretw0/nestflow/pkg/adapters/memory"
	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/editor"
)

func TestFacade_Integration(t *testing.T) {
	engine, err := nestflow.New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to initialize engine: %v", err)
	}
	ctx := context.Background()

	if _, err := engine.CreateModule(ctx, "onboarding", "Onboarding"); err != nil {
		t.Fatalf("CreateModule failed: %v", err)
	}

	// An empty module is not playable.
	if _, err := engine.Start(ctx, "onboarding"); !errors.Is(err, domain.ErrEmptyGraph) {
		t.Fatalf("Expected ErrEmptyGraph, got %v", err)
	}

	var first, second string
	_, err = engine.Edit(ctx, "onboarding", func(ws *editor.Workspace) error {
		first = ws.Graph.AddNode(domain.NodeTypeMessage).ID
		second = ws.Graph.AddNode(domain.NodeTypeTextInput).ID
		ws.Graph.UpdateNodeConnection(first, second)
		return nil
	})
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if err := engine.Validate(ctx, "onboarding"); err != nil {
		t.Errorf("Expected a valid graph, got %v", err)
	}

	state, err := engine.Start(ctx, "onboarding")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	view, err := engine.View(ctx, state.SessionID)
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	if view.NodeID != first {
		t.Errorf("Expected first node %s, got %s", first, view.NodeID)
	}

	state, err = engine.Advance(ctx, state.SessionID, domain.Continue(domain.NodeTypeMessage))
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	state, err = engine.Advance(ctx, state.SessionID, domain.TextResponse("Ada"))
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if state.Status != domain.StatusCompleted {
		t.Errorf("Expected completed, got %s", state.Status)
	}
	if got := state.Responses[second].Text; got != "Ada" {
		t.Errorf("Expected answer 'Ada', got %q", got)
	}
}

func TestFacade_RequiresStore(t *testing.T) {
	if _, err := nestflow.New(""); err == nil {
		t.Fatal("Expected error without dir or module store")
	}
	if _, err := nestflow.New("", nestflow.WithModuleStore(memory.NewModuleStore())); err != nil {
		t.Fatalf("Unexpected error with injected store: %v", err)
	}
}
