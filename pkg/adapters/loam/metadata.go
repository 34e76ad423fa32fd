package loam

// ModuleMetadata is the frontmatter of a module document. The node graph lives in the
// document body as JSON so the node wire format stays byte-identical across stores.
type ModuleMetadata struct {
	ID           string `json:"id" mapstructure:"id"`
	Title        string `json:"title" mapstructure:"title"`
	Description  string `json:"description" mapstructure:"description"`
	ThumbnailURL string `json:"thumbnail_url,omitempty" mapstructure:"thumbnail_url"`
	Visibility   string `json:"visibility" mapstructure:"visibility"`
	Views        int    `json:"views" mapstructure:"views"`
	// Timestamps are RFC 3339 strings so frontmatter parsers never reinterpret them.
	CreatedAt string `json:"created_at" mapstructure:"created_at"`
	UpdatedAt string `json:"updated_at" mapstructure:"updated_at"`
}
