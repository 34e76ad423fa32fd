package domain

// Response is the payload a node renderer collects before advancing.
// Which field is meaningful depends on NodeType.
type Response struct {
	NodeType NodeType `json:"node_type"`
	// Text is the free-text answer of a textInput node.
	Text string `json:"text,omitempty"`
	// ChoiceIDs holds the selected choice ids (multipleChoice) or the single routed choice (router).
	ChoiceIDs []string `json:"choice_ids,omitempty"`
	// Ranking is the reordered item list of a ranking node.
	Ranking []string `json:"ranking,omitempty"`
}

// Continue is the empty response used by message and video nodes.
func Continue(t NodeType) Response {
	return Response{NodeType: t}
}

// TextResponse wraps a textInput answer.
func TextResponse(text string) Response {
	return Response{NodeType: NodeTypeTextInput, Text: text}
}

// ChoiceResponse wraps multiple-choice selections.
func ChoiceResponse(choiceIDs ...string) Response {
	return Response{NodeType: NodeTypeMultipleChoice, ChoiceIDs: append([]string(nil), choiceIDs...)}
}

// RouteResponse wraps the choice picked on a router.
func RouteResponse(choiceID string) Response {
	return Response{NodeType: NodeTypeRouter, ChoiceIDs: []string{choiceID}}
}

// RankingResponse wraps a reordered item list.
func RankingResponse(items []string) Response {
	return Response{NodeType: NodeTypeRanking, Ranking: append([]string(nil), items...)}
}

// ChoiceID returns the first selected choice, which is the routed choice for routers.
func (r Response) ChoiceID() string {
	if len(r.ChoiceIDs) == 0 {
		return ""
	}
	return r.ChoiceIDs[0]
}

// Empty reports whether the response carries no payload.
func (r Response) Empty() bool {
	return r.Text == "" && len(r.ChoiceIDs) == 0 && len(r.Ranking) == 0
}

// Clone returns a deep copy.
func (r Response) Clone() Response {
	out := r
	if r.ChoiceIDs != nil {
		out.ChoiceIDs = make([]string, len(r.ChoiceIDs))
		copy(out.ChoiceIDs, r.ChoiceIDs)
	}
	if r.Ranking != nil {
		out.Ranking = make([]string, len(r.Ranking))
		copy(out.Ranking, r.Ranking)
	}
	return out
}

// MoveItem returns a copy of items with the element at from relocated to index to.
// It reports false, returning items unchanged, when either index is out of range.
func MoveItem(items []string, from, to int) ([]string, bool) {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return items, false
	}
	out := make([]string, 0, len(items))
	out = append(out, items[:from]...)
	out = append(out, items[from+1:]...)
	out = append(out[:to], append([]string{items[from]}, out[to:]...)...)
	return out, true
}
