// Package storage persists scan artifacts in an object store under
// user-namespaced keys and hands out durable locators for them.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrInvalidLocator = errors.New("invalid artifact locator")
	ErrInvalidKey     = errors.New("invalid artifact key")
)

// OverlayContentType is the content type of every explanation overlay
const OverlayContentType = "image/png"

// Backend is an object store. Put returns the store's own reference to the
// object, which may be relative or absolute.
type Backend interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) (*Object, error)
}

// Object is a stored blob
type Object struct {
	Data        []byte
	ContentType string
}

// Artifact identifies a stored blob by key and by durable locator
type Artifact struct {
	Key     string
	Locator string
}

// StoreError wraps any failure of the artifact store
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Client namespaces keys by owner and normalizes backend references into
// absolute locators rooted at baseURL.
type Client struct {
	backend Backend
	baseURL string
	log     *logrus.Logger
}

func NewClient(backend Backend, baseURL string, log *logrus.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if _, err := NormalizeLocator(base, "probe"); err != nil {
		return nil, fmt.Errorf("invalid storage base URL %q: %w", baseURL, err)
	}
	return &Client{
		backend: backend,
		baseURL: base,
		log:     log,
	}, nil
}

// BaseURL returns the prefix every locator issued by this client starts with
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Put stores an original scan image as "<namespace>/<uuid>.<ext>"
func (c *Client) Put(ctx context.Context, namespace uuid.UUID, data []byte, filename, contentType string) (*Artifact, error) {
	key := fmt.Sprintf("%s/%s.%s", namespace, uuid.New(), extensionFor(filename, contentType))
	return c.put(ctx, key, data, contentType)
}

// PutOverlay stores an explanation overlay as "<namespace>/gradcam_<uuid>.png"
func (c *Client) PutOverlay(ctx context.Context, namespace uuid.UUID, data []byte) (*Artifact, error) {
	key := fmt.Sprintf("%s/gradcam_%s.png", namespace, uuid.New())
	return c.put(ctx, key, data, OverlayContentType)
}

func (c *Client) put(ctx context.Context, key string, data []byte, contentType string) (*Artifact, error) {
	if len(data) == 0 {
		return nil, &StoreError{Op: "put", Key: key, Err: errors.New("empty payload")}
	}

	ref, err := c.backend.Put(ctx, key, data, contentType)
	if err != nil {
		return nil, &StoreError{Op: "put", Key: key, Err: err}
	}

	locator, err := NormalizeLocator(c.baseURL, ref)
	if err != nil {
		return nil, &StoreError{Op: "put", Key: key, Err: err}
	}

	c.log.WithFields(logrus.Fields{"key": key, "size": len(data)}).Debug("Artifact stored")

	return &Artifact{Key: key, Locator: locator}, nil
}

// Get resolves a locator issued by this client and returns the blob
func (c *Client) Get(ctx context.Context, locator string) ([]byte, error) {
	key, err := c.KeyFromLocator(locator)
	if err != nil {
		return nil, &StoreError{Op: "get", Err: err}
	}
	obj, err := c.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	return obj.Data, nil
}

// GetByKey returns the blob stored under key with its content type
func (c *Client) GetByKey(ctx context.Context, key string) (*Object, error) {
	if err := ValidateKey(key); err != nil {
		return nil, &StoreError{Op: "get", Key: key, Err: err}
	}

	obj, err := c.backend.Get(ctx, key)
	if err != nil {
		return nil, &StoreError{Op: "get", Key: key, Err: err}
	}

	if obj.ContentType == "" {
		obj.ContentType = mimetype.Detect(obj.Data).String()
	}
	return obj, nil
}

// NormalizeLocator cleans a stored or freshly returned reference with this client's base URL
func (c *Client) NormalizeLocator(ref string) (string, error) {
	return NormalizeLocator(c.baseURL, ref)
}

// KeyFromLocator maps a locator back to its object key
func (c *Client) KeyFromLocator(locator string) (string, error) {
	return KeyFromLocator(c.baseURL, locator)
}

// Namespace returns the owner segment of a key
func Namespace(key string) string {
	owner, _, found := strings.Cut(key, "/")
	if !found {
		return ""
	}
	return owner
}

// ValidateKey rejects keys that could escape the store's namespace layout
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return ErrInvalidKey
	}
	if path.Clean(key) != key {
		return ErrInvalidKey
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return ErrInvalidKey
		}
	}
	if Namespace(key) == "" {
		return ErrInvalidKey
	}
	return nil
}

// extensionFor picks the key extension from the filename, falling back to the content type
func extensionFor(filename, contentType string) string {
	if ext := sanitizeExtension(path.Ext(filename)); ext != "" {
		return ext
	}
	if m := mimetype.Lookup(contentType); m != nil {
		if ext := sanitizeExtension(m.Extension()); ext != "" {
			return ext
		}
	}
	return "bin"
}

func sanitizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" || len(ext) > 5 {
		return ""
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
