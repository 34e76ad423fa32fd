package domain

// Config is the type-dependent payload of a node. Exactly one variant exists per NodeType.
type Config interface {
	// Kind reports the node type this config belongs to.
	Kind() NodeType
	// Common exposes the fields every variant carries.
	Common() *Base
	// Clone returns a deep copy.
	Clone() Config
}

// Linear is implemented by every config that advances through a single connection.
// RouterConfig deliberately does not implement it.
type Linear interface {
	Config
	Next() string
	SetNext(id string)
}

// Base holds the authoring fields shared by every variant.
type Base struct {
	Title    string `json:"title" mapstructure:"title"`
	Required bool   `json:"required" mapstructure:"required"`
}

// Common returns the shared fields.
func (b *Base) Common() *Base { return b }

// Link is the single optional successor of a non-router node. Empty means terminal.
type Link struct {
	Connection string `json:"-" mapstructure:"-"`
}

// Next returns the successor id, or "" for a terminal node.
func (l *Link) Next() string { return l.Connection }

// SetNext sets the successor. An empty id clears it.
func (l *Link) SetNext(id string) { l.Connection = id }

// MessageConfig configures a content page.
type MessageConfig struct {
	Base    `mapstructure:",squash"`
	Link    `mapstructure:",squash"`
	Content string `json:"content" mapstructure:"content"`
}

func (c *MessageConfig) Kind() NodeType { return NodeTypeMessage }

func (c *MessageConfig) Clone() Config {
	out := *c
	return &out
}

// VideoControls toggles the player controls shown for a video node.
type VideoControls struct {
	Autoplay      bool `json:"autoplay" mapstructure:"autoplay"`
	ShowPlayPause bool `json:"showPlayPause" mapstructure:"showPlayPause"`
	ShowVolume    bool `json:"showVolume" mapstructure:"showVolume"`
	ShowSubtitles bool `json:"showSubtitles" mapstructure:"showSubtitles"`
	AllowSeeking  bool `json:"allowSeeking" mapstructure:"allowSeeking"`
}

// VideoConfig configures a video page. VideoURL and ThumbnailURL hold either an absolute
// URL or a storage object name resolved at render time.
type VideoConfig struct {
	Base         `mapstructure:",squash"`
	Link         `mapstructure:",squash"`
	VideoURL     string        `json:"videoUrl" mapstructure:"videoUrl"`
	ThumbnailURL string        `json:"thumbnailUrl" mapstructure:"thumbnailUrl"`
	Controls     VideoControls `json:"videoControls" mapstructure:"videoControls"`
}

func (c *VideoConfig) Kind() NodeType { return NodeTypeVideo }

func (c *VideoConfig) Clone() Config {
	out := *c
	return &out
}

// Choice is one branch of a router. Connection is empty when the branch is terminal.
type Choice struct {
	ID         string `json:"id" mapstructure:"id"`
	Text       string `json:"text" mapstructure:"text"`
	Connection string `json:"connection,omitempty" mapstructure:"connection"`
}

// RouterConfig configures a decision point. It is always required.
type RouterConfig struct {
	Base     `mapstructure:",squash"`
	Question string   `json:"question" mapstructure:"question"`
	Choices  []Choice `json:"choices" mapstructure:"choices"`
	// Overlay renders the router on top of a frozen view of the previous node.
	Overlay bool `json:"overlay" mapstructure:"overlay"`
}

func (c *RouterConfig) Kind() NodeType { return NodeTypeRouter }

func (c *RouterConfig) Clone() Config {
	out := *c
	if c.Choices != nil {
		out.Choices = append(make([]Choice, 0, len(c.Choices)), c.Choices...)
	}
	return &out
}

// Choice returns a pointer to the choice with the given id.
func (c *RouterConfig) Choice(id string) (*Choice, bool) {
	for i := range c.Choices {
		if c.Choices[i].ID == id {
			return &c.Choices[i], true
		}
	}
	return nil, false
}

// Normalize restores the router invariants after decoding external data.
func (c *RouterConfig) Normalize() {
	c.Required = true
	if c.Choices == nil {
		c.Choices = []Choice{}
	}
}

// TextInputConfig configures a free-text question.
type TextInputConfig struct {
	Base     `mapstructure:",squash"`
	Link     `mapstructure:",squash"`
	Question string `json:"question" mapstructure:"question"`
}

func (c *TextInputConfig) Kind() NodeType { return NodeTypeTextInput }

func (c *TextInputConfig) Clone() Config {
	out := *c
	return &out
}

// Option is a selectable answer of a multiple-choice question. Options never branch.
type Option struct {
	ID   string `json:"id" mapstructure:"id"`
	Text string `json:"text" mapstructure:"text"`
}

// MultipleChoiceConfig configures a multiple-choice question.
type MultipleChoiceConfig struct {
	Base          `mapstructure:",squash"`
	Link          `mapstructure:",squash"`
	Question      string   `json:"question" mapstructure:"question"`
	Choices       []Option `json:"choices" mapstructure:"choices"`
	AllowMultiple bool     `json:"allowMultiple" mapstructure:"allowMultiple"`
}

func (c *MultipleChoiceConfig) Kind() NodeType { return NodeTypeMultipleChoice }

func (c *MultipleChoiceConfig) Clone() Config {
	out := *c
	if c.Choices != nil {
		out.Choices = append(make([]Option, 0, len(c.Choices)), c.Choices...)
	}
	return &out
}

// RankingConfig configures a ranking question.
type RankingConfig struct {
	Base     `mapstructure:",squash"`
	Link     `mapstructure:",squash"`
	Question string   `json:"question" mapstructure:"question"`
	Items    []string `json:"rankingItems" mapstructure:"rankingItems"`
}

func (c *RankingConfig) Kind() NodeType { return NodeTypeRanking }

func (c *RankingConfig) Clone() Config {
	out := *c
	if c.Items != nil {
		out.Items = append(make([]string, 0, len(c.Items)), c.Items...)
	}
	return &out
}

// NewConfig returns an empty config variant for t, or nil for an unknown type.
func NewConfig(t NodeType) Config {
	switch t {
	case NodeTypeMessage:
		return &MessageConfig{}
	case NodeTypeVideo:
		return &VideoConfig{}
	case NodeTypeRouter:
		return &RouterConfig{}
	case NodeTypeTextInput:
		return &TextInputConfig{}
	case NodeTypeMultipleChoice:
		return &MultipleChoiceConfig{}
	case NodeTypeRanking:
		return &RankingConfig{}
	}
	return nil
}
