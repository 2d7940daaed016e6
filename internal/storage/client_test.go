package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectName(t *testing.T) {
	name := ObjectName("donations", "photo.JPG")
	assert.True(t, strings.HasPrefix(name, "donations/"))
	assert.True(t, strings.HasSuffix(name, ".jpg"))

	// Two uploads of the same file never collide
	assert.NotEqual(t, name, ObjectName("donations", "photo.JPG"))
}

func TestPublicURL(t *testing.T) {
	client := NewClient("https://storage.example.com", "key", "donation-images")
	url := client.PublicURL("donations/abc.png")
	assert.Equal(t, "https://storage.example.com/storage/v1/object/public/donation-images/donations/abc.png", url)
}

func TestExtractPath(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "valid public url",
			url:  "https://storage.example.com/storage/v1/object/public/donation-images/donations/abc.png",
			want: "donations/abc.png",
		},
		{
			name: "nested path",
			url:  "https://storage.example.com/storage/v1/object/public/donation-images/donations/2024/abc.png",
			want: "donations/2024/abc.png",
		},
		{
			name: "not a storage url",
			url:  "https://example.com/images/abc.png",
			want: "",
		},
		{
			name: "missing object path",
			url:  "https://storage.example.com/storage/v1/object/public/donation-images",
			want: "",
		},
		{
			name: "garbage",
			url:  "::not a url::",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractPath(tt.url))
		})
	}
}

func TestUpload(t *testing.T) {
	var gotPath, gotAuth, gotContentType string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "donation-images")

	url, err := client.Upload(context.Background(), "donations/abc.png", []byte("image-bytes"), "image/png")
	require.NoError(t, err)

	assert.Equal(t, "/storage/v1/object/donation-images/donations/abc.png", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "image/png", gotContentType)
	assert.Equal(t, []byte("image-bytes"), gotBody)
	assert.Equal(t, server.URL+"/storage/v1/object/public/donation-images/donations/abc.png", url)
}

func TestUploadServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "donation-images")

	_, err := client.Upload(context.Background(), "donations/abc.png", []byte("x"), "image/png")
	assert.Error(t, err)
}

func TestUploadUnconfigured(t *testing.T) {
	client := NewClient("", "", "donation-images")

	_, err := client.Upload(context.Background(), "donations/abc.png", []byte("x"), "image/png")
	assert.Error(t, err)
	assert.False(t, client.Enabled())
}

func TestRemove(t *testing.T) {
	var gotMethod string
	var gotPrefixes map[string][]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		json.NewDecoder(r.Body).Decode(&gotPrefixes)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "donation-images")

	err := client.Remove(context.Background(), []string{"donations/a.png", "donations/b.png"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, []string{"donations/a.png", "donations/b.png"}, gotPrefixes["prefixes"])
}

func TestRemoveNothingToDo(t *testing.T) {
	client := NewClient("", "", "donation-images")
	assert.NoError(t, client.Remove(context.Background(), nil))
}
