package memory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/utafrali/quecomemoshoy/internal/domain"
	"github.com/utafrali/quecomemoshoy/internal/storage"
)

type object struct {
	contentType string
	data        []byte
}

// Storage implements storage.Storage in memory. Buckets must be created with
// CreateBucket before use so a missing bucket fails the way the hosted store
// does.
type Storage struct {
	mu      sync.RWMutex
	buckets map[string]map[string]object
	baseURL string
}

// New creates an in-memory store whose public URLs are rooted at baseURL.
func New(baseURL string, buckets ...string) *Storage {
	s := &Storage{
		buckets: make(map[string]map[string]object),
		baseURL: baseURL,
	}
	for _, b := range buckets {
		s.CreateBucket(b)
	}
	return s
}

// CreateBucket registers an empty bucket.
func (s *Storage) CreateBucket(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buckets[name]; !ok {
		s.buckets[name] = make(map[string]object)
	}
}

// Upload stores the object bytes.
func (s *Storage) Upload(ctx context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	data, err := io.ReadAll(input.Data)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.buckets[input.Bucket]
	if !ok {
		return nil, errors.New("bucket not found")
	}
	if _, exists := bucket[input.Key]; exists {
		return nil, fmt.Errorf("object %s already exists", input.Key)
	}
	bucket[input.Key] = object{contentType: input.ContentType, data: data}

	return &storage.UploadResult{
		Bucket: input.Bucket,
		Key:    input.Key,
		URL:    s.PublicURL(input.Bucket, input.Key),
	}, nil
}

// Delete removes an object.
func (s *Storage) Delete(_ context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	objs, ok := s.buckets[bucket]
	if !ok {
		return errors.New("bucket not found")
	}
	if _, exists := objs[key]; !exists {
		return fmt.Errorf("object %s not found", key)
	}
	delete(objs, key)
	return nil
}

// PublicURL mirrors the hosted store's public object URL layout.
func (s *Storage) PublicURL(bucket, key string) string {
	return domain.PublicObjectURL(s.baseURL, bucket, key)
}

// Object returns a copy of a stored object's bytes.
func (s *Storage) Object(bucket, key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.buckets[bucket][key]
	if !ok {
		return nil, "", false
	}
	return bytes.Clone(obj.data), obj.contentType, true
}
