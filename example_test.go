package nestflow_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/nestflow"
	"github.com/aretw0/nestflow/pkg/adapters/memory"
	"github.com/aretw0/nestflow/pkg/canvas"
	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/editor"
)

// ExampleNew_memory builds a two-node module in memory and plays it to the end.
func ExampleNew_memory() {
	engine, err := nestflow.New("", nestflow.WithModuleStore(memory.NewModuleStore()))
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()

	if _, err := engine.CreateModule(ctx, "demo", "Demo"); err != nil {
		log.Fatal(err)
	}
	_, err = engine.Edit(ctx, "demo", func(ws *editor.Workspace) error {
		hello := ws.Graph.AddNode(domain.NodeTypeMessage)
		ask := ws.Graph.AddNode(domain.NodeTypeTextInput)
		ws.Forms.SetContent(hello.ID, "Hello!")
		ws.Forms.SetQuestion(ask.ID, "What is your name?")
		_, err := ws.Canvas.Connect(canvas.ConnectRequest{SourceID: hello.ID, TargetID: ask.ID})
		return err
	})
	if err != nil {
		log.Fatal(err)
	}

	state, _ := engine.Start(ctx, "demo")
	view, _ := engine.View(ctx, state.SessionID)
	fmt.Println(view.Message.Content)

	state, _ = engine.Advance(ctx, state.SessionID, domain.Continue(domain.NodeTypeMessage))
	view, _ = engine.View(ctx, state.SessionID)
	fmt.Println(view.TextInput.Question)

	state, _ = engine.Advance(ctx, state.SessionID, domain.TextResponse("Ada"))
	fmt.Println(state.Status)
	// Output:
	// Hello!
	// What is your name?
	// completed
}
