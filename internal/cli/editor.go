package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aretw0/nestflow/internal/logging"
	"github.com/aretw0/nestflow/internal/presentation/tui"
	"github.com/aretw0/nestflow/pkg/autosave"
	"github.com/aretw0/nestflow/pkg/canvas"
	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/forms"
	"github.com/aretw0/nestflow/pkg/graph"
	"github.com/aretw0/nestflow/pkg/ports"
)

const editorHelp = `commands:
  ls                          list nodes and edges
  add TYPE                    add a node (message, video, router, textInput, multipleChoice, ranking)
  rm ID                       delete a node
  mv ID X Y                   move a node
  connect SRC DST [CHOICE]    draw an edge
  disconnect SRC DST [CHOICE] remove an edge
  set ID FIELD TEXT           set title, content, question or video
  choice ID [TEXT]            add a choice to a router or multiple choice node
  item ID TEXT                add a ranking item
  save                        save now
  status                      show the save indicator
  q                           save pending edits and quit`

// GraphEditor edits one module graph from a line-oriented terminal session.
// Every change is written back by an autosave.Saver.
type GraphEditor struct {
	moduleID string
	content  ports.ContentStore
	in       *bufio.Reader
	out      io.Writer
	saveOpts []autosave.Option
	logger   *slog.Logger
}

// EditorOption configures a GraphEditor.
type EditorOption func(*GraphEditor)

// WithSaverOptions passes options through to the underlying autosave.Saver.
func WithSaverOptions(opts ...autosave.Option) EditorOption {
	return func(e *GraphEditor) { e.saveOpts = append(e.saveOpts, opts...) }
}

// WithEditorLogger sets the logger.
func WithEditorLogger(logger *slog.Logger) EditorOption {
	return func(e *GraphEditor) { e.logger = logger }
}

// NewGraphEditor creates an editor for moduleID backed by content.
func NewGraphEditor(moduleID string, content ports.ContentStore, in io.Reader, out io.Writer, opts ...EditorOption) *GraphEditor {
	e := &GraphEditor{
		moduleID: moduleID,
		content:  content,
		in:       bufio.NewReader(in),
		out:      out,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run loads the module and reads commands until quit, end of input or ctx is done.
// Pending edits are saved before returning.
func (e *GraphEditor) Run(ctx context.Context) error {
	store := graph.NewStore(graph.WithLogger(e.logger))
	if err := autosave.Load(ctx, e.content, e.moduleID, store); err != nil {
		return err
	}

	opts := append([]autosave.Option{autosave.WithLogger(e.logger)}, e.saveOpts...)
	saver := autosave.New(e.moduleID, store, e.content, opts...)
	watchCtx, stop := context.WithCancel(ctx)
	defer stop()
	saver.Watch(watchCtx)

	surface := canvas.NewSurface(store)
	fields := forms.NewEditor(store)

	printSystemMessage(e.out, "Editing '%s' (%d nodes). Type 'help' for commands.", e.moduleID, store.Len())
	for {
		fmt.Fprint(e.out, "> ")
		line, err := e.in.ReadString('\n')
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "q" || line == "exit" {
			break
		}
		if line == "" {
			continue
		}
		if err := e.exec(ctx, line, store, surface, fields, saver); err != nil {
			fmt.Fprintf(e.out, "  %v\n", err)
		}
		if ctx.Err() != nil {
			break
		}
	}

	if saver.Status().Pending {
		return saver.Save(context.WithoutCancel(ctx))
	}
	return nil
}

func (e *GraphEditor) exec(ctx context.Context, line string, store *graph.Store, surface *canvas.Surface, fields *forms.Editor, saver *autosave.Saver) error {
	args := strings.Fields(line)
	cmd, args := args[0], args[1:]

	switch cmd {
	case "help":
		fmt.Fprintln(e.out, editorHelp)

	case "ls":
		nodes, edges := surface.Snapshot()
		for _, n := range nodes {
			fmt.Fprintf(e.out, "  %s %s %s (%g, %g)\n", tui.Swatch(n.Type), n.ID, n.Title, n.Position.X, n.Position.Y)
		}
		for _, edge := range edges {
			fmt.Fprintf(e.out, "  %s %s\n", edge.ID, tui.Faint(edge.Label))
		}

	case "add":
		if len(args) != 1 {
			return errors.New("usage: add TYPE")
		}
		n, err := store.Add(domain.NodeType(args[0]))
		if err != nil {
			return err
		}
		fmt.Fprintf(e.out, "  added %s\n", n.ID)

	case "rm":
		if len(args) != 1 {
			return errors.New("usage: rm ID")
		}
		return e.report(surface.DeleteNode(args[0]), args[0])

	case "mv":
		if len(args) != 3 {
			return errors.New("usage: mv ID X Y")
		}
		x, errX := strconv.ParseFloat(args[1], 64)
		y, errY := strconv.ParseFloat(args[2], 64)
		if errX != nil || errY != nil {
			return errors.New("usage: mv ID X Y")
		}
		return e.report(surface.Drag(args[0], domain.Position{X: x, Y: y}), args[0])

	case "connect", "disconnect":
		if len(args) < 2 || len(args) > 3 {
			return fmt.Errorf("usage: %s SRC DST [CHOICE]", cmd)
		}
		req := canvas.ConnectRequest{SourceID: args[0], TargetID: args[1]}
		if len(args) == 3 {
			req.ChoiceID = args[2]
		}
		if cmd == "disconnect" {
			id := canvas.EdgeID{SourceID: req.SourceID, ChoiceID: req.ChoiceID, TargetID: req.TargetID}
			return e.report(surface.DisconnectEdge(id), id.String())
		}
		ok, err := surface.Connect(req)
		if err != nil {
			return err
		}
		return e.report(ok, req.SourceID)

	case "set":
		if len(args) < 3 {
			return errors.New("usage: set ID FIELD TEXT")
		}
		id, field := args[0], args[1]
		text := strings.Join(args[2:], " ")
		var ok bool
		switch field {
		case "title":
			ok = fields.SetTitle(id, text)
		case "content":
			ok = fields.SetContent(id, text)
		case "question":
			ok = fields.SetQuestion(id, text)
		case "video":
			ok = fields.SetVideo(id, args[2], strings.Join(args[3:], " "))
		default:
			return fmt.Errorf("unknown field %q", field)
		}
		return e.report(ok, id)

	case "choice":
		if len(args) < 1 {
			return errors.New("usage: choice ID [TEXT]")
		}
		choiceID, ok := fields.AddChoice(args[0])
		if !ok {
			return e.report(false, args[0])
		}
		if len(args) > 1 {
			fields.SetChoiceText(args[0], choiceID, strings.Join(args[1:], " "))
		}
		fmt.Fprintf(e.out, "  added choice %s\n", choiceID)

	case "item":
		if len(args) < 2 {
			return errors.New("usage: item ID TEXT")
		}
		return e.report(fields.AddItem(args[0], strings.Join(args[1:], " ")), args[0])

	case "save":
		if err := saver.Save(ctx); err != nil {
			return fmt.Errorf("save failed: %w", err)
		}
		fmt.Fprintln(e.out, "  saved")

	case "status":
		snap := saver.Status()
		fmt.Fprintf(e.out, "  %s", snap.Status)
		if snap.Pending {
			fmt.Fprint(e.out, " (pending)")
		}
		if snap.Err != nil {
			fmt.Fprintf(e.out, ": %v", snap.Err)
			saver.Dismiss()
		}
		fmt.Fprintln(e.out)

	default:
		return fmt.Errorf("unknown command %q, try 'help'", cmd)
	}
	return nil
}

func (e *GraphEditor) report(changed bool, id string) error {
	if !changed {
		fmt.Fprintf(e.out, "  %s unchanged\n", id)
	}
	return nil
}
