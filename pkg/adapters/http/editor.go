package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aretw0/nestflow/internal/presentation/graph"
	"github.com/aretw0/nestflow/internal/validator"
	"github.com/aretw0/nestflow/pkg/canvas"
	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/editor"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// GraphResponse is a consistent snapshot of a module graph. Node is the node the
// request addressed, as stored.
type GraphResponse struct {
	Nodes    []domain.Node `json:"nodes"`
	Edges    []canvas.Edge `json:"edges"`
	Node     *domain.Node  `json:"node,omitempty"`
	ChoiceID string        `json:"choice_id,omitempty"`
}

// CreateModuleRequest is the body of POST /modules.
type CreateModuleRequest struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Visibility  domain.Visibility `json:"visibility"`
}

// UpdateModuleRequest patches module metadata. The graph only changes through node and edge endpoints.
type UpdateModuleRequest struct {
	Title        *string            `json:"title"`
	Description  *string            `json:"description"`
	ThumbnailURL *string            `json:"thumbnail_url"`
	Visibility   *domain.Visibility `json:"visibility"`
}

// AddNodeRequest is the body of POST /modules/{id}/nodes.
type AddNodeRequest struct {
	Type domain.NodeType `json:"type"`
}

// ChoiceRequest is the body of PATCH .../choices/{choiceID}. A nil field is left as is.
type ChoiceRequest struct {
	Text     *string `json:"text"`
	TargetID *string `json:"targetId"`
}

// ListModules handles GET /modules.
func (s *Server) ListModules(w http.ResponseWriter, r *http.Request) {
	ids, err := s.modules.List(r.Context())
	if err != nil {
		s.fail(w, "List modules failed", err)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

// CreateModule handles POST /modules.
func (s *Server) CreateModule(w http.ResponseWriter, r *http.Request) {
	var body CreateModuleRequest
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, "Invalid module body", err)
		return
	}
	if body.ID == "" {
		body.ID = uuid.NewString()
	}
	m := domain.NewModule(body.ID, body.Title)
	m.Description = body.Description
	if body.Visibility != "" {
		m.Visibility = body.Visibility
	}
	if err := s.modules.Save(r.Context(), m); err != nil {
		s.fail(w, "Create module failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// GetModule handles GET /modules/{moduleID}.
func (s *Server) GetModule(w http.ResponseWriter, r *http.Request) {
	m, err := s.modules.Load(r.Context(), chi.URLParam(r, "moduleID"))
	if err != nil {
		s.fail(w, "Load module failed", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// UpdateModule handles PATCH /modules/{moduleID}.
func (s *Server) UpdateModule(w http.ResponseWriter, r *http.Request) {
	var body UpdateModuleRequest
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, "Invalid module patch", err)
		return
	}
	m, err := s.editor.Update(r.Context(), chi.URLParam(r, "moduleID"), func(m *domain.Module) {
		if body.Title != nil {
			m.Title = *body.Title
		}
		if body.Description != nil {
			m.Description = *body.Description
		}
		if body.ThumbnailURL != nil {
			m.ThumbnailURL = *body.ThumbnailURL
		}
		if body.Visibility != nil {
			m.Visibility = *body.Visibility
		}
	})
	if err != nil {
		s.fail(w, "Update module failed", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// DeleteModule handles DELETE /modules/{moduleID}.
func (s *Server) DeleteModule(w http.ResponseWriter, r *http.Request) {
	if err := s.modules.Delete(r.Context(), chi.URLParam(r, "moduleID")); err != nil {
		s.fail(w, "Delete module failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetGraph handles GET /modules/{moduleID}/graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	res, err := s.editor.Snapshot(r.Context(), chi.URLParam(r, "moduleID"))
	if err != nil {
		s.fail(w, "Load graph failed", err)
		return
	}
	writeJSON(w, http.StatusOK, GraphResponse{Nodes: res.Nodes, Edges: res.Edges})
}

// ValidateGraph handles GET /modules/{moduleID}/validate.
func (s *Server) ValidateGraph(w http.ResponseWriter, r *http.Request) {
	res, err := s.editor.Snapshot(r.Context(), chi.URLParam(r, "moduleID"))
	if err != nil {
		s.fail(w, "Load graph failed", err)
		return
	}
	issues := validator.Check(res.Nodes)
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":  len(issues) == 0,
		"issues": issues,
	})
}

// GetMermaid handles GET /modules/{moduleID}/mermaid. A session query parameter
// highlights the nodes that session visited.
func (s *Server) GetMermaid(w http.ResponseWriter, r *http.Request) {
	res, err := s.editor.Snapshot(r.Context(), chi.URLParam(r, "moduleID"))
	if err != nil {
		s.fail(w, "Load graph failed", err)
		return
	}
	var overlay *graph.GraphOverlay
	if sid := r.URL.Query().Get("session"); sid != "" {
		state, err := s.sessions.Load(r.Context(), sid)
		if err != nil {
			s.fail(w, "Load session failed", err)
			return
		}
		overlay = graph.OverlayFromState(state)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(res.Nodes, overlay))
}

// GetTargets handles GET /modules/{moduleID}/nodes/{nodeID}/targets, the "connect to" picker.
func (s *Server) GetTargets(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")
	var targets any
	_, err := s.editor.Apply(r.Context(), chi.URLParam(r, "moduleID"), func(ws *editor.Workspace) error {
		if _, ok := ws.Graph.Node(nodeID); !ok {
			return fmt.Errorf("%s: %w", nodeID, domain.ErrNodeNotFound)
		}
		targets = ws.Forms.Targets(nodeID)
		return nil
	})
	if err != nil {
		s.fail(w, "List targets failed", err)
		return
	}
	writeJSON(w, http.StatusOK, targets)
}

// AddNode handles POST /modules/{moduleID}/nodes.
func (s *Server) AddNode(w http.ResponseWriter, r *http.Request) {
	var body AddNodeRequest
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, "Invalid node body", err)
		return
	}
	if !body.Type.Valid() {
		s.fail(w, "Invalid node type", fmt.Errorf("%q: %w", body.Type, domain.ErrUnknownNodeType))
		return
	}
	var nodeID string
	s.edit(w, r, http.StatusCreated, &nodeID, func(ws *editor.Workspace) error {
		nodeID = ws.Graph.AddNode(body.Type).ID
		return nil
	})
}

// UpdateNodeConfig handles PATCH /modules/{moduleID}/nodes/{nodeID} with a partial config.
func (s *Server) UpdateNodeConfig(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := decodeJSON(r, &patch); err != nil {
		s.fail(w, "Invalid config patch", err)
		return
	}
	nodeID := chi.URLParam(r, "nodeID")
	s.edit(w, r, http.StatusOK, &nodeID, func(ws *editor.Workspace) error {
		if _, ok := ws.Graph.Node(nodeID); !ok {
			return fmt.Errorf("%s: %w", nodeID, domain.ErrNodeNotFound)
		}
		if _, err := ws.Graph.UpdateNodeConfig(nodeID, patch); err != nil {
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return nil
	})
}

// DeleteNode handles DELETE /modules/{moduleID}/nodes/{nodeID}. Unknown ids are a no-op.
func (s *Server) DeleteNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")
	s.edit(w, r, http.StatusOK, nil, func(ws *editor.Workspace) error {
		ws.Canvas.DeleteNode(nodeID)
		return nil
	})
}

// MoveNode handles PUT /modules/{moduleID}/nodes/{nodeID}/position.
func (s *Server) MoveNode(w http.ResponseWriter, r *http.Request) {
	var pos domain.Position
	if err := decodeJSON(r, &pos); err != nil {
		s.fail(w, "Invalid position", err)
		return
	}
	nodeID := chi.URLParam(r, "nodeID")
	s.edit(w, r, http.StatusOK, &nodeID, func(ws *editor.Workspace) error {
		if !ws.Canvas.Drag(nodeID, pos) {
			return fmt.Errorf("%s: %w", nodeID, domain.ErrNodeNotFound)
		}
		return nil
	})
}

// AddChoice handles POST .../nodes/{nodeID}/choices on routers and multiple-choice nodes.
func (s *Server) AddChoice(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")
	var choiceID string
	res, err := s.editor.Apply(r.Context(), chi.URLParam(r, "moduleID"), func(ws *editor.Workspace) error {
		id, ok := ws.Forms.AddChoice(nodeID)
		if !ok {
			return fmt.Errorf("%w: node %s does not take choices", errBadRequest, nodeID)
		}
		choiceID = id
		return nil
	})
	if err != nil {
		s.fail(w, "Add choice failed", err)
		return
	}
	s.broadcast(chi.URLParam(r, "moduleID"), res)
	resp := graphResponse(res, nodeID)
	resp.ChoiceID = choiceID
	writeJSON(w, http.StatusCreated, resp)
}

// UpdateChoice handles PATCH .../nodes/{nodeID}/choices/{choiceID}: relabel and, for
// routers, rewire the choice branch.
func (s *Server) UpdateChoice(w http.ResponseWriter, r *http.Request) {
	var body ChoiceRequest
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, "Invalid choice body", err)
		return
	}
	nodeID, choiceID := chi.URLParam(r, "nodeID"), chi.URLParam(r, "choiceID")
	s.edit(w, r, http.StatusOK, &nodeID, func(ws *editor.Workspace) error {
		if _, ok := ws.Graph.Node(nodeID); !ok {
			return fmt.Errorf("%s: %w", nodeID, domain.ErrNodeNotFound)
		}
		if body.Text != nil && !ws.Forms.SetChoiceText(nodeID, choiceID, *body.Text) {
			return fmt.Errorf("%s: %w", choiceID, domain.ErrChoiceNotFound)
		}
		if body.TargetID != nil {
			if _, err := ws.Forms.ConnectChoice(nodeID, choiceID, *body.TargetID); err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveChoice handles DELETE .../nodes/{nodeID}/choices/{choiceID}.
func (s *Server) RemoveChoice(w http.ResponseWriter, r *http.Request) {
	nodeID, choiceID := chi.URLParam(r, "nodeID"), chi.URLParam(r, "choiceID")
	s.edit(w, r, http.StatusOK, &nodeID, func(ws *editor.Workspace) error {
		if !ws.Forms.RemoveChoice(nodeID, choiceID) {
			return fmt.Errorf("%s: %w", choiceID, domain.ErrChoiceNotFound)
		}
		return nil
	})
}

// Connect handles POST /modules/{moduleID}/edges.
func (s *Server) Connect(w http.ResponseWriter, r *http.Request) {
	var req canvas.ConnectRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, "Invalid connect request", err)
		return
	}
	s.edit(w, r, http.StatusOK, &req.SourceID, func(ws *editor.Workspace) error {
		if _, ok := ws.Graph.Node(req.TargetID); !ok {
			return fmt.Errorf("target %s: %w", req.TargetID, domain.ErrNodeNotFound)
		}
		ok, err := ws.Canvas.Connect(req)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("source %s: %w", req.SourceID, domain.ErrNodeNotFound)
		}
		return nil
	})
}

// Disconnect handles DELETE /modules/{moduleID}/edges?source=&target=&choice=.
func (s *Server) Disconnect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := canvas.EdgeID{
		SourceID: q.Get("source"),
		ChoiceID: q.Get("choice"),
		TargetID: q.Get("target"),
	}
	if id.SourceID == "" || id.TargetID == "" {
		s.fail(w, "Invalid edge", fmt.Errorf("%w: source and target are required", errBadRequest))
		return
	}
	s.edit(w, r, http.StatusOK, nil, func(ws *editor.Workspace) error {
		ws.Canvas.DisconnectEdge(id)
		return nil
	})
}

// edit applies one mutation, broadcasts what changed and answers with the new graph.
// nodeID, when set, names the node to echo back once the mutation has run.
func (s *Server) edit(w http.ResponseWriter, r *http.Request, status int, nodeID *string, mutate func(*editor.Workspace) error) {
	moduleID := chi.URLParam(r, "moduleID")
	res, err := s.editor.Apply(r.Context(), moduleID, mutate)
	if err != nil {
		s.fail(w, "Graph edit failed", err)
		return
	}
	s.broadcast(moduleID, res)

	id := ""
	if nodeID != nil {
		id = *nodeID
	}
	writeJSON(w, status, graphResponse(res, id))
}

func graphResponse(res *editor.Result, nodeID string) GraphResponse {
	resp := GraphResponse{Nodes: res.Nodes, Edges: res.Edges}
	if n, ok := res.Node(nodeID); ok && nodeID != "" {
		resp.Node = &n
	}
	return resp
}

type changeEvent struct {
	Op     string `json:"op"`
	NodeID string `json:"node_id"`
}

func (s *Server) broadcast(moduleID string, res *editor.Result) {
	for _, c := range res.Changes {
		if payload, err := json.Marshal(changeEvent{Op: string(c.Op), NodeID: c.NodeID}); err == nil {
			s.Streams.Broadcast(moduleID, string(payload))
		}
	}
}
