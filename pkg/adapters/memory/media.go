package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/ports"
)

// MediaStore implements ports.MediaStore in memory. Public URLs are built from a base URL
// and the bucket name, mirroring an object storage layout.
type MediaStore struct {
	baseURL string
	bucket  string

	mu      sync.RWMutex
	objects map[string]mediaObject
}

type mediaObject struct {
	meta ports.MediaObject
	data []byte
}

// NewMediaStore creates an empty media store serving from baseURL/bucket.
func NewMediaStore(baseURL, bucket string) *MediaStore {
	return &MediaStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		bucket:  bucket,
		objects: make(map[string]mediaObject),
	}
}

// Upload stores an object, replacing any previous one with the same name.
func (s *MediaStore) Upload(ctx context.Context, name, contentType string, r io.Reader) (ports.MediaObject, error) {
	if name == "" {
		return ports.MediaObject{}, fmt.Errorf("media name cannot be empty")
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return ports.MediaObject{}, fmt.Errorf("failed to read media %s: %w", name, err)
	}
	meta := ports.MediaObject{
		Name:        name,
		ContentType: contentType,
		Size:        int64(buf.Len()),
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.objects[name] = mediaObject{meta: meta, data: buf.Bytes()}
	s.mu.Unlock()
	return meta, nil
}

// List returns every object, newest first.
func (s *MediaStore) List(ctx context.Context) ([]ports.MediaObject, error) {
	s.mu.RLock()
	out := make([]ports.MediaObject, 0, len(s.objects))
	for _, o := range s.objects {
		out = append(out, o.meta)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes an object. Missing objects are ignored.
func (s *MediaStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	delete(s.objects, name)
	s.mu.Unlock()
	return nil
}

// PublicURL resolves an object name.
func (s *MediaStore) PublicURL(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	_, ok := s.objects[name]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%s: %w", name, domain.ErrMediaNotFound)
	}
	return fmt.Sprintf("%s/%s/%s", s.baseURL, s.bucket, url.PathEscape(name)), nil
}
