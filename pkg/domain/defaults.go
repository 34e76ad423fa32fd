package domain

// FallbackColor tints anything whose type is unknown.
const FallbackColor = "#6b7280"

var nodeColors = map[NodeType]string{
	NodeTypeMessage:        "#3b82f6",
	NodeTypeVideo:          "#10b981",
	NodeTypeRouter:         "#8b5cf6",
	NodeTypeTextInput:      "#f59e0b",
	NodeTypeMultipleChoice: "#ef4444",
	NodeTypeRanking:        "#ec4899",
}

var nodeIcons = map[NodeType]string{
	NodeTypeMessage:        "file-text",
	NodeTypeVideo:          "video",
	NodeTypeRouter:         "git-branch",
	NodeTypeTextInput:      "type",
	NodeTypeMultipleChoice: "list-checks",
	NodeTypeRanking:        "move-vertical",
}

var nodeTitles = map[NodeType]string{
	NodeTypeMessage:        "New Message",
	NodeTypeVideo:          "Video Content",
	NodeTypeRouter:         "Decision Point",
	NodeTypeTextInput:      "Text Question",
	NodeTypeMultipleChoice: "Multiple Choice",
	NodeTypeRanking:        "Ranking Question",
}

// ColorFor maps a node type to its presentation tint (canvas edges and player minimap).
func ColorFor(t NodeType) string {
	if c, ok := nodeColors[t]; ok {
		return c
	}
	return FallbackColor
}

// IconFor maps a node type to an icon name.
func IconFor(t NodeType) string {
	if i, ok := nodeIcons[t]; ok {
		return i
	}
	return "file-text"
}

// DefaultTitle is the title a freshly added node starts with.
func DefaultTitle(t NodeType) string {
	if title, ok := nodeTitles[t]; ok {
		return title
	}
	return "New Node"
}

// DefaultVideoControls enables every control except autoplay.
func DefaultVideoControls() VideoControls {
	return VideoControls{
		Autoplay:      false,
		ShowPlayPause: true,
		ShowVolume:    true,
		ShowSubtitles: true,
		AllowSeeking:  true,
	}
}

// DefaultConfig is a pure function from type to the initial config of a new node.
func DefaultConfig(t NodeType) Config {
	base := Base{Title: DefaultTitle(t)}
	switch t {
	case NodeTypeMessage:
		return &MessageConfig{Base: base}
	case NodeTypeVideo:
		return &VideoConfig{Base: base, Controls: DefaultVideoControls()}
	case NodeTypeRouter:
		base.Required = true
		return &RouterConfig{Base: base, Choices: []Choice{}}
	case NodeTypeTextInput:
		return &TextInputConfig{Base: base}
	case NodeTypeMultipleChoice:
		return &MultipleChoiceConfig{Base: base, Choices: []Option{}, AllowMultiple: true}
	case NodeTypeRanking:
		return &RankingConfig{Base: base, Items: []string{}}
	}
	return nil
}
