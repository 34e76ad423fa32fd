package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/player"
	"github.com/aretw0/nestflow/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func play(t *testing.T, nodes []domain.Node, input string) (*domain.State, string, error) {
	t.Helper()
	var out bytes.Buffer
	p := NewPlayer(player.NewEngine(), strings.NewReader(input), &out)
	state, err := p.Play(context.Background(), "m1", nodes)
	return state, out.String(), err
}

func TestPlayer_FullRun(t *testing.T) {
	input := strings.Join([]string{
		"",    // intro
		"",    // video
		"1",   // route: Yes
		"Ada", // name
		"1 2", // pick: single select, second is locked
		"",    // continue
		"1 2", // rank: swap
		"",    // submit
	}, "\n") + "\n"

	state, out, err := play(t, tests.FixtureNodes(), input)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, state.Status)
	assert.Equal(t, []string{"node-intro", "node-video", "node-route", "node-name", "node-pick", "node-rank"}, state.History)

	assert.Equal(t, "Ada", state.Responses["node-name"].Text)
	assert.Equal(t, []string{"choice-a"}, state.Responses["node-pick"].ChoiceIDs)
	assert.Equal(t, []string{"second", "first"}, state.Responses["node-rank"].Ranking)

	assert.Contains(t, out, "only one option can be selected")
	assert.Contains(t, out, "paused", "overlay router draws the video beneath")
	assert.Contains(t, out, "Module complete!")
	assert.Contains(t, out, "Ada")
}

func TestPlayer_RouterTerminalChoice(t *testing.T) {
	state, _, err := play(t, tests.FixtureNodes(), "\n\n9\n2\n")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, state.Status)
	assert.Equal(t, "choice-no", state.Responses["node-route"].ChoiceID())
}

func TestPlayer_FinishAndQuit(t *testing.T) {
	state, _, err := play(t, tests.FixtureNodes(), "f\n")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, state.Status)

	state, out, err := play(t, tests.FixtureNodes(), "q\n")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPlaying, state.Status)
	assert.Contains(t, out, "Left at 'node-intro'")
}

func TestPlayer_EmptyModule(t *testing.T) {
	state, out, err := play(t, nil, "")
	assert.ErrorIs(t, err, domain.ErrEmptyGraph)
	assert.Equal(t, domain.StatusEmpty, state.Status)
	assert.Contains(t, out, "nothing to play")
}

func TestPlayer_MultipleChoiceNeedsSelection(t *testing.T) {
	n := domain.NewNode("q", domain.NodeTypeMultipleChoice, domain.Position{})
	n.Config.(*domain.MultipleChoiceConfig).Choices = []domain.Option{{ID: "o1", Text: "One"}}

	state, out, err := play(t, []domain.Node{n}, "\n1\n\n")
	require.NoError(t, err)
	assert.Contains(t, out, "select at least one option")
	assert.Equal(t, []string{"o1"}, state.Responses["q"].ChoiceIDs)
}

func TestPlayer_RouterWithoutChoicesCompletes(t *testing.T) {
	intro := domain.NewNode("a", domain.NodeTypeMessage, domain.Position{})
	intro.Config.(domain.Linear).SetNext("r")
	route := domain.NewNode("r", domain.NodeTypeRouter, domain.Position{})

	state, _, err := play(t, []domain.Node{intro, route}, "\n")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, state.Status)
	assert.Equal(t, []string{"a", "r"}, state.History)
}
