package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/nestflow/internal/logging"
	"github.com/aretw0/nestflow/internal/presentation/tui"
	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/player"
	"golang.org/x/term"
)

// errQuit is returned when the learner leaves the player.
var errQuit = errors.New("player exited")

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Player plays a module in a line-oriented terminal session.
type Player struct {
	engine   *player.Engine
	in       *bufio.Reader
	out      io.Writer
	markdown func(string) (string, error)
	logger   *slog.Logger
}

// PlayerOption configures a Player.
type PlayerOption func(*Player)

// WithMarkdown sets the renderer used for message content.
func WithMarkdown(render func(string) (string, error)) PlayerOption {
	return func(p *Player) { p.markdown = render }
}

// WithPlayerLogger sets the logger.
func WithPlayerLogger(logger *slog.Logger) PlayerOption {
	return func(p *Player) { p.logger = logger }
}

// NewPlayer creates a terminal player. Message content is printed raw unless
// WithMarkdown is given.
func NewPlayer(engine *player.Engine, in io.Reader, out io.Writer, opts ...PlayerOption) *Player {
	p := &Player{
		engine: engine,
		in:     bufio.NewReader(in),
		out:    out,
		markdown: func(s string) (string, error) {
			return s + "\n", nil
		},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Play runs a module to completion. Quitting returns the state reached so far with
// a nil error; an empty module prints a notice and returns domain.ErrEmptyGraph.
func (p *Player) Play(ctx context.Context, moduleID string, nodes []domain.Node) (*domain.State, error) {
	state, err := p.engine.Start(ctx, moduleID, nodes)
	if errors.Is(err, domain.ErrEmptyGraph) {
		printSystemMessage(p.out, "This module has nothing to play yet.")
		return state, err
	}
	if err != nil {
		return nil, err
	}

	for !state.Terminal() {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		view, err := p.engine.Render(ctx, nodes, state)
		if err != nil {
			return state, err
		}
		p.draw(view)

		next, err := p.step(ctx, nodes, state, view)
		if errors.Is(err, errQuit) {
			printSystemMessage(p.out, "Left at '%s'.", view.NodeID)
			return state, nil
		}
		if err != nil {
			return state, err
		}
		state = next
	}

	p.summary(nodes, state)
	return state, nil
}

func (p *Player) step(ctx context.Context, nodes []domain.Node, state *domain.State, view *player.View) (*domain.State, error) {
	switch {
	case view.Message != nil, view.Video != nil:
		line, err := p.prompt("[enter] continue, f finish, q quit")
		if err != nil {
			return nil, err
		}
		if line == "f" {
			return p.engine.Finish(ctx, nodes, state)
		}
		return p.engine.Continue(ctx, nodes, state)

	case view.Router != nil:
		if len(view.Router.Choices) == 0 {
			// Nothing to pick: an unknown choice completes playback.
			return p.engine.Advance(ctx, nodes, state, domain.RouteResponse(""))
		}
		for {
			line, err := p.prompt("choose a number, q quit")
			if err != nil {
				return nil, err
			}
			i, err := strconv.Atoi(line)
			if err != nil || i < 1 || i > len(view.Router.Choices) {
				fmt.Fprintln(p.out, "  pick one of the listed numbers")
				continue
			}
			return p.engine.Advance(ctx, nodes, state, domain.RouteResponse(view.Router.Choices[i-1].ID))
		}

	case view.TextInput != nil:
		line, err := p.prompt("your answer, q quit")
		if err != nil {
			return nil, err
		}
		return p.engine.Advance(ctx, nodes, state, domain.TextResponse(line))

	case view.MultipleChoice != nil:
		return p.choose(ctx, nodes, state, view)

	case view.Ranking != nil:
		return p.rank(ctx, nodes, state, view)
	}
	return nil, fmt.Errorf("cannot play node %s of type %s", view.NodeID, view.Type)
}

func (p *Player) choose(ctx context.Context, nodes []domain.Node, state *domain.State, view *player.View) (*domain.State, error) {
	mc := view.MultipleChoice
	cfg := &domain.MultipleChoiceConfig{Choices: mc.Options, AllowMultiple: mc.AllowMultiple}
	sel := player.NewSelection(cfg)
	for {
		line, err := p.prompt("toggle numbers (e.g. 1 3), [enter] continue, q quit")
		if err != nil {
			return nil, err
		}
		if line == "" {
			if sel.CanContinue() {
				return p.engine.Advance(ctx, nodes, state, sel.Response())
			}
			fmt.Fprintln(p.out, "  select at least one option")
			continue
		}
		for _, f := range strings.Fields(line) {
			i, err := strconv.Atoi(f)
			if err != nil || i < 1 || i > len(mc.Options) {
				fmt.Fprintf(p.out, "  %q is not an option\n", f)
				continue
			}
			if err := sel.Toggle(mc.Options[i-1].ID); errors.Is(err, player.ErrSelectionLocked) {
				fmt.Fprintln(p.out, "  only one option can be selected; deselect the current one first")
			}
		}
		p.options(mc.Options, sel)
	}
}

func (p *Player) rank(ctx context.Context, nodes []domain.Node, state *domain.State, view *player.View) (*domain.State, error) {
	r := player.NewRanking(&domain.RankingConfig{Items: view.Ranking.Items})
	for {
		line, err := p.prompt("move with 'FROM TO', [enter] submit, q quit")
		if err != nil {
			return nil, err
		}
		if line == "" {
			return p.engine.Advance(ctx, nodes, state, r.Response())
		}
		var from, to int
		if _, err := fmt.Sscanf(line, "%d %d", &from, &to); err != nil || !r.Move(from-1, to-1) {
			fmt.Fprintln(p.out, "  usage: FROM TO, both within the list")
			continue
		}
		for i, item := range r.Items() {
			fmt.Fprintf(p.out, "  %d. %s\n", i+1, item)
		}
	}
}

func (p *Player) prompt(hint string) (string, error) {
	fmt.Fprintf(p.out, "%s\n> ", tui.Faint(hint))
	line, err := p.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "q" || line == "exit" {
		return "", errQuit
	}
	return line, nil
}

func (p *Player) draw(v *player.View) {
	if v.Overlay != nil {
		p.draw(v.Overlay)
		fmt.Fprintln(p.out, tui.Faint("  ─── paused ───"))
	}

	fmt.Fprintf(p.out, "\n%s %s\n", tui.Swatch(v.Type), tui.Heading(v.Title))
	switch {
	case v.Message != nil:
		out, err := p.markdown(v.Message.Content)
		if err != nil {
			p.logger.Debug("markdown render failed", "node_id", v.NodeID, "err", err)
		}
		fmt.Fprint(p.out, out)
	case v.Video != nil:
		switch {
		case v.Video.MediaError != nil:
			fmt.Fprintf(p.out, "  unable to load video: %s\n", v.Video.MediaError.Err)
		case v.Video.Paused:
			fmt.Fprintf(p.out, "  [paused] %s\n", v.Video.ThumbnailURL)
		default:
			fmt.Fprintf(p.out, "  ▶ %s\n", v.Video.URL)
		}
	case v.Router != nil:
		fmt.Fprintln(p.out, v.Router.Question)
		for i, c := range v.Router.Choices {
			fmt.Fprintf(p.out, "  %d. %s\n", i+1, c.Text)
		}
	case v.TextInput != nil:
		fmt.Fprintln(p.out, v.TextInput.Question)
	case v.MultipleChoice != nil:
		fmt.Fprintln(p.out, v.MultipleChoice.Question)
		p.options(v.MultipleChoice.Options, nil)
	case v.Ranking != nil:
		fmt.Fprintln(p.out, v.Ranking.Question)
		for i, item := range v.Ranking.Items {
			fmt.Fprintf(p.out, "  %d. %s\n", i+1, item)
		}
	}
}

func (p *Player) options(opts []domain.Option, sel *player.Selection) {
	picked := map[string]bool{}
	if sel != nil {
		for _, id := range sel.Selected() {
			picked[id] = true
		}
	}
	for i, o := range opts {
		mark := "[ ]"
		switch {
		case picked[o.ID]:
			mark = "[x]"
		case sel != nil && sel.Disabled(o.ID):
			mark = "[-]"
		}
		fmt.Fprintf(p.out, "  %s %d. %s\n", mark, i+1, o.Text)
	}
}

func (p *Player) summary(nodes []domain.Node, state *domain.State) {
	fmt.Fprintf(p.out, "\n%s\n", tui.Heading("Module complete!"))
	for _, a := range player.Summary(nodes, state) {
		fmt.Fprintf(p.out, "  %s: %s\n", a.Title, describe(a.Response, nodes, a.NodeID))
	}
}

func describe(r domain.Response, nodes []domain.Node, nodeID string) string {
	switch r.NodeType {
	case domain.NodeTypeTextInput:
		return r.Text
	case domain.NodeTypeRanking:
		return strings.Join(r.Ranking, " > ")
	}
	labels := make([]string, 0, len(r.ChoiceIDs))
	i := domain.IndexOf(nodes, nodeID)
	for _, id := range r.ChoiceIDs {
		labels = append(labels, choiceText(nodes, i, id))
	}
	return strings.Join(labels, ", ")
}

func choiceText(nodes []domain.Node, idx int, id string) string {
	if idx < 0 {
		return id
	}
	switch cfg := nodes[idx].Config.(type) {
	case *domain.RouterConfig:
		if c, ok := cfg.Choice(id); ok {
			return c.Text
		}
	case *domain.MultipleChoiceConfig:
		for _, o := range cfg.Choices {
			if o.ID == id {
				return o.Text
			}
		}
	}
	return id
}
