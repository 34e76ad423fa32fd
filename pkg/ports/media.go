package ports

import (
	"context"
	"io"
	"time"
)

// MediaResolver turns a stored media object name into a URL a player can load.
type MediaResolver interface {
	// PublicURL returns domain.ErrMediaNotFound if the object does not exist.
	PublicURL(ctx context.Context, name string) (string, error)
}

// MediaObject describes a stored media file.
type MediaObject struct {
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// MediaStore is the binary storage used by the configuration forms to pick images and video.
type MediaStore interface {
	MediaResolver
	Upload(ctx context.Context, name, contentType string, r io.Reader) (MediaObject, error)
	List(ctx context.Context) ([]MediaObject, error)
	Delete(ctx context.Context, name string) error
}
