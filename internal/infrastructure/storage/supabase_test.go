package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupabaseBackend_PutReturnsPublicURL(t *testing.T) {
	var gotPath, gotAuth, gotType string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"Key":"scans/u1/a.png"}`))
	}))
	defer server.Close()

	backend := NewSupabaseBackend(server.URL+"/", "service-key", "scans", time.Second)
	ref, err := backend.Put(context.Background(), "u1/a.png", []byte("img"), "image/png")
	require.NoError(t, err)

	assert.Equal(t, "/storage/v1/object/scans/u1/a.png", gotPath)
	assert.Equal(t, "Bearer service-key", gotAuth)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, []byte("img"), gotBody)
	assert.Equal(t, server.URL+"/storage/v1/object/public/scans/u1/a.png", ref)

	key, err := KeyFromLocator(backend.PublicBaseURL(), ref+"?")
	require.NoError(t, err)
	assert.Equal(t, "u1/a.png", key)
}

func TestSupabaseBackend_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/storage/v1/object/scans/u1/a.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte("img"))
		case "/storage/v1/object/scans/u1/legacy.png":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"statusCode":"404","error":"not_found","message":"Object not found"}`))
		case "/storage/v1/object/scans/u1/broken.png":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	backend := NewSupabaseBackend(server.URL, "k", "scans", time.Second)

	obj, err := backend.Get(context.Background(), "u1/a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("img"), obj.Data)
	assert.Equal(t, "image/png", obj.ContentType)

	_, err = backend.Get(context.Background(), "u1/missing.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	_, err = backend.Get(context.Background(), "u1/legacy.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	_, err = backend.Get(context.Background(), "u1/broken.png")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrObjectNotFound)
}

func TestSupabaseBackend_PutRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"Duplicate"}`))
	}))
	defer server.Close()

	_, err := NewSupabaseBackend(server.URL, "k", "scans", time.Second).
		Put(context.Background(), "u1/a.png", []byte("img"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
}
