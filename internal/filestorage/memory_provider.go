package filestorage

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"
)

// MemoryProvider is an in-process FileStorageProvider used by tests and
// local development without a bucket.
type MemoryProvider struct {
	mu      sync.Mutex
	baseURL string
	objects map[string]memoryObject
	now     func() time.Time
}

type memoryObject struct {
	data         []byte
	contentType  string
	lastModified time.Time
}

func NewMemoryProvider(baseURL string) *MemoryProvider {
	return &MemoryProvider{
		baseURL: publicBase("", baseURL),
		objects: make(map[string]memoryObject),
		now:     time.Now,
	}
}

func (m *MemoryProvider) UploadFile(_ context.Context, key string, content io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: data, contentType: contentType, lastModified: m.now()}
	return m.baseURL + key, nil
}

func (m *MemoryProvider) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *MemoryProvider) ListObjects(_ context.Context) ([]Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Object, 0, len(m.objects))
	for k, o := range m.objects {
		out = append(out, Object{Key: k, LastModified: o.lastModified})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *MemoryProvider) DeleteFile(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *MemoryProvider) PublicURL(key string) string {
	return m.baseURL + key
}

// Put stores an object with an explicit modification time.
func (m *MemoryProvider) Put(key string, data []byte, lastModified time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: bytes.Clone(data), lastModified: lastModified}
}

// Get returns the stored bytes and content type of key.
func (m *MemoryProvider) Get(key string) ([]byte, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[key]
	return o.data, o.contentType, ok
}
