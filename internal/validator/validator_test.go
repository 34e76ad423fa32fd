package validator

import (
	"strings"
	"testing"

	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func message(id, next string) domain.Node {
	n := domain.NewNode(id, domain.NodeTypeMessage, domain.Position{})
	n.Config.(domain.Linear).SetNext(next)
	return n
}

func kinds(issues []Issue) []Kind {
	out := make([]Kind, len(issues))
	for i, is := range issues {
		out[i] = is.Kind
	}
	return out
}

func TestValidateGraph_Clean(t *testing.T) {
	if err := ValidateGraph(tests.FixtureNodes()); err != nil {
		t.Errorf("fixture graph should be valid: %v", err)
	}
}

func TestValidateGraph_Broken(t *testing.T) {
	nodes := []domain.Node{
		message("start", "ghost_node"),
	}

	err := ValidateGraph(nodes)
	require.Error(t, err)
	if !strings.Contains(err.Error(), "missing node 'ghost_node'") {
		t.Errorf("Expected missing node error, got: %v", err)
	}
}

func TestCheck(t *testing.T) {
	router := domain.NewNode("r", domain.NodeTypeRouter, domain.Position{})
	loopRouter := domain.NewNode("r2", domain.NodeTypeRouter, domain.Position{})
	loopRouter.Config.(*domain.RouterConfig).Choices = []domain.Choice{
		{ID: "c1", Text: "again", Connection: "r2"},
		{ID: "c2", Text: "gone", Connection: "ghost"},
	}

	cases := []struct {
		name  string
		nodes []domain.Node
		want  []Kind
	}{
		{"empty", nil, []Kind{KindEmptyGraph}},
		{"self loop", []domain.Node{message("a", "a")}, []Kind{KindSelfLoop}},
		{"unreachable", []domain.Node{message("a", ""), message("b", "")}, []Kind{KindUnreachable}},
		{"empty router", []domain.Node{message("a", "r"), router}, []Kind{KindEmptyRouter}},
		{"router edges", []domain.Node{loopRouter}, []Kind{KindSelfLoop, KindDanglingEdge}},
		{"duplicate", []domain.Node{message("a", ""), message("a", "")}, []Kind{KindDuplicateID}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, kinds(Check(tc.nodes)))
		})
	}
}
