package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/nestflow/pkg/adapters/memory"
	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/persistence/middleware"
)

func TestRedactMiddleware_Masking(t *testing.T) {
	underlyingStore := memory.NewSessionStore()
	// Mask e-mail addresses and long digit runs.
	mw := middleware.NewRedactMiddleware([]string{`[\w.+-]+@[\w-]+\.[\w.]+`, `\d{6,}`})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	sessionID := "redact-session"
	state := domain.NewState("module-1", 0, "node-name")
	state.Responses["node-name"] = domain.TextResponse("reach me at jane.doe@example.com or 5551234567")
	state.Responses["node-pick"] = domain.ChoiceResponse("choice-a")

	if err := secureStore.Save(ctx, sessionID, state); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// The caller's state must not change.
	if state.Responses["node-name"].Text != "reach me at jane.doe@example.com or 5551234567" {
		t.Error("Middleware modified original state in memory!")
	}

	storedState, err := underlyingStore.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}

	if got := storedState.Responses["node-name"].Text; got != "reach me at *** or ***" {
		t.Errorf("Answer should be masked, got: %q", got)
	}
	if got := storedState.Responses["node-pick"].ChoiceIDs; len(got) != 1 || got[0] != "choice-a" {
		t.Errorf("Choice responses shouldn't be touched, got: %v", got)
	}
}

func TestChain_Order(t *testing.T) {
	underlyingStore := memory.NewSessionStore()
	key := generateKey(t)
	store := middleware.Chain(underlyingStore,
		middleware.NewRedactMiddleware([]string{"secret"}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}),
	)

	ctx := context.Background()
	state := domain.NewState("module-1", 0, "node-name")
	state.Responses["node-name"] = domain.TextResponse("my secret")

	if err := store.Save(ctx, "s1", state); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Redaction runs first, so the decrypted value is already masked.
	loaded, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := loaded.Responses["node-name"].Text; got != "my ***" {
		t.Errorf("expected masked answer, got %q", got)
	}
}
