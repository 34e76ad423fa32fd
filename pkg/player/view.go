package player

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/nestflow/pkg/domain"
)

// View is everything a node renderer needs to draw the current step.
// Exactly one of the per-type fields is set while playing.
type View struct {
	Status   domain.PlaybackStatus `json:"status"`
	NodeID   string                `json:"node_id,omitempty"`
	Type     domain.NodeType       `json:"type,omitempty"`
	Index    int                   `json:"index"`
	Title    string                `json:"title,omitempty"`
	Color    string                `json:"color,omitempty"`
	Icon     string                `json:"icon,omitempty"`
	Required bool                  `json:"required,omitempty"`

	// Background is true when the view is drawn frozen underneath an overlay router.
	Background bool `json:"background,omitempty"`
	// CanFinish offers the explicit "finish" action on pages that collect nothing.
	CanFinish bool `json:"can_finish,omitempty"`

	Message        *MessageView        `json:"message,omitempty"`
	Video          *VideoView          `json:"video,omitempty"`
	Router         *RouterView         `json:"router,omitempty"`
	TextInput      *TextInputView      `json:"text_input,omitempty"`
	MultipleChoice *MultipleChoiceView `json:"multiple_choice,omitempty"`
	Ranking        *RankingView        `json:"ranking,omitempty"`

	// Overlay is the frozen previous node shown beneath an overlay router.
	Overlay *View `json:"overlay,omitempty"`
}

// MessageView renders content text.
type MessageView struct {
	Content string `json:"content"`
}

// VideoView renders a video. Paused is set for frozen backgrounds, which show the
// thumbnail as a still frame. MediaError is set when a reference could not be resolved.
type VideoView struct {
	URL          string               `json:"url,omitempty"`
	ThumbnailURL string               `json:"thumbnail_url,omitempty"`
	Controls     domain.VideoControls `json:"controls"`
	Paused       bool                 `json:"paused,omitempty"`
	MediaError   *MediaError          `json:"media_error,omitempty"`
}

// RouterView renders a decision point.
type RouterView struct {
	Question string          `json:"question"`
	Choices  []domain.Choice `json:"choices"`
	Overlay  bool            `json:"overlay,omitempty"`
}

// TextInputView renders a free-text question.
type TextInputView struct {
	Question string `json:"question"`
	Answer   string `json:"answer,omitempty"`
}

// MultipleChoiceView renders a multiple-choice question with any earlier selection.
type MultipleChoiceView struct {
	Question      string          `json:"question"`
	Options       []domain.Option `json:"options"`
	AllowMultiple bool            `json:"allow_multiple"`
	Selected      []string        `json:"selected,omitempty"`
}

// RankingView renders a ranking question. Items start in authored order unless a
// ranking was already collected for the node.
type RankingView struct {
	Question string   `json:"question"`
	Items    []string `json:"items"`
}

// MediaError is the inline "unable to load" state of a single node.
type MediaError struct {
	Ref string `json:"ref"`
	Err string `json:"error"`
}

func (m *MediaError) Error() string {
	return fmt.Sprintf("unable to load media %q: %s", m.Ref, m.Err)
}

// Render builds the view of the current node. Terminal states render as a bare status.
func (e *Engine) Render(ctx context.Context, nodes []domain.Node, state *domain.State) (*View, error) {
	if state == nil {
		return nil, fmt.Errorf("render: nil state")
	}
	if state.Terminal() {
		return &View{Status: state.Status, Index: -1}, nil
	}
	node, idx, ok := current(nodes, state)
	if !ok {
		return nil, fmt.Errorf("render index %d: %w", state.CurrentIndex, domain.ErrNodeNotFound)
	}

	view := e.renderNode(ctx, node, idx, state)
	if rc, isRouter := node.Router(); isRouter && rc.Overlay {
		if prevID, has := state.Previous(); has {
			if pi := domain.IndexOf(nodes, prevID); pi >= 0 && backgroundable(nodes[pi].Type) {
				bg := e.renderNode(ctx, nodes[pi], pi, state)
				freeze(bg)
				view.Overlay = bg
			}
		}
	}
	return view, nil
}

func backgroundable(t domain.NodeType) bool {
	return t == domain.NodeTypeMessage || t == domain.NodeTypeVideo
}

// freeze turns a view into a non-interactive background.
func freeze(v *View) {
	v.Background = true
	v.CanFinish = false
	if v.Video != nil {
		v.Video.Paused = true
		v.Video.Controls = domain.VideoControls{}
	}
}

func (e *Engine) renderNode(ctx context.Context, node domain.Node, idx int, state *domain.State) *View {
	common := node.Config.Common()
	view := &View{
		Status:   domain.StatusPlaying,
		NodeID:   node.ID,
		Type:     node.Type,
		Index:    idx,
		Title:    common.Title,
		Color:    domain.ColorFor(node.Type),
		Icon:     domain.IconFor(node.Type),
		Required: common.Required,
	}
	if view.Title == "" {
		view.Title = node.Title
	}
	prior, answered := state.Responses[node.ID]

	switch cfg := node.Config.(type) {
	case *domain.MessageConfig:
		view.CanFinish = true
		view.Message = &MessageView{Content: cfg.Content}
	case *domain.VideoConfig:
		view.CanFinish = true
		view.Video = e.renderVideo(ctx, node.ID, cfg)
	case *domain.RouterConfig:
		view.Router = &RouterView{
			Question: cfg.Question,
			Choices:  append([]domain.Choice{}, cfg.Choices...),
			Overlay:  cfg.Overlay,
		}
	case *domain.TextInputConfig:
		view.TextInput = &TextInputView{Question: cfg.Question}
		if answered {
			view.TextInput.Answer = prior.Text
		}
	case *domain.MultipleChoiceConfig:
		view.MultipleChoice = &MultipleChoiceView{
			Question:      cfg.Question,
			Options:       append([]domain.Option{}, cfg.Choices...),
			AllowMultiple: cfg.AllowMultiple,
		}
		if answered {
			view.MultipleChoice.Selected = append([]string(nil), prior.ChoiceIDs...)
		}
	case *domain.RankingConfig:
		items := cfg.Items
		if answered && len(prior.Ranking) > 0 {
			items = prior.Ranking
		}
		view.Ranking = &RankingView{Question: cfg.Question, Items: append([]string{}, items...)}
	}
	return view
}

func (e *Engine) renderVideo(ctx context.Context, nodeID string, cfg *domain.VideoConfig) *VideoView {
	v := &VideoView{Controls: cfg.Controls}

	url, err := e.resolveMedia(ctx, cfg.VideoURL)
	if err != nil {
		e.logger.Warn("Failed to resolve video", "node_id", nodeID, "ref", cfg.VideoURL, "err", err)
		v.MediaError = &MediaError{Ref: cfg.VideoURL, Err: err.Error()}
		return v
	}
	v.URL = url

	// A missing thumbnail only costs the still frame, not the video.
	if thumb, err := e.resolveMedia(ctx, cfg.ThumbnailURL); err == nil {
		v.ThumbnailURL = thumb
	} else {
		e.logger.Debug("Failed to resolve thumbnail", "node_id", nodeID, "ref", cfg.ThumbnailURL, "err", err)
	}
	return v
}

// resolveMedia passes absolute URLs through and resolves storage object names.
func (e *Engine) resolveMedia(ctx context.Context, ref string) (string, error) {
	if ref == "" || strings.HasPrefix(ref, "http") {
		return ref, nil
	}
	if e.media == nil {
		return "", fmt.Errorf("no media store configured: %w", domain.ErrMediaNotFound)
	}
	return e.media.PublicURL(ctx, ref)
}
