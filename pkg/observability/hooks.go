package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/nestflow/pkg/domain"
)

// LoggingHooks logs every playback event at Info.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.InfoContext(ctx, "node_enter",
				"session_id", e.SessionID,
				"node_id", e.NodeID,
				"type", e.NodeType,
			)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			logger.InfoContext(ctx, "node_leave", "session_id", e.SessionID, "node_id", e.NodeID)
		},
		OnComplete: func(ctx context.Context, e *domain.CompletionEvent) {
			logger.InfoContext(ctx, "complete",
				"session_id", e.SessionID,
				"last_node_id", e.LastNodeID,
				"reason", e.Reason,
				"visited", e.Visited,
			)
		},
	}
}

// Combine fans each event out to every non-nil callback, in order.
func Combine(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			for _, h := range hooks {
				if h.OnNodeEnter != nil {
					h.OnNodeEnter(ctx, e)
				}
			}
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			for _, h := range hooks {
				if h.OnNodeLeave != nil {
					h.OnNodeLeave(ctx, e)
				}
			}
		},
		OnComplete: func(ctx context.Context, e *domain.CompletionEvent) {
			for _, h := range hooks {
				if h.OnComplete != nil {
					h.OnComplete(ctx, e)
				}
			}
		},
	}
}
