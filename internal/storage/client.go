// Package storage talks to a Supabase-compatible object storage API. Donation
// images and avatars are uploaded here and referenced by public URL.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

type Client struct {
	baseURL string
	apiKey  string
	bucket  string
	http    *resty.Client
}

func NewClient(baseURL, apiKey, bucket string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		bucket:  bucket,
		http: resty.New().
			SetTimeout(30 * time.Second).
			SetRetryCount(2),
	}
}

// Enabled reports whether storage is configured. Uploads fail fast otherwise.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// ObjectName builds a collision-free object path for an uploaded file,
// preserving the original extension.
func ObjectName(prefix, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	return fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), ext)
}

// Upload stores the object and returns its public URL.
func (c *Client) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("object storage is not configured")
	}

	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, objectPath)

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetHeader("Content-Type", contentType).
		SetBody(data).
		Post(uploadURL)
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", objectPath, err)
	}

	if resp.StatusCode() != 200 && resp.StatusCode() != 201 {
		return "", fmt.Errorf("upload of %s failed with status %d: %s", objectPath, resp.StatusCode(), resp.String())
	}

	return c.PublicURL(objectPath), nil
}

// Remove deletes objects by path. Missing objects are not an error.
func (c *Client) Remove(ctx context.Context, objectPaths []string) error {
	if !c.Enabled() || len(objectPaths) == 0 {
		return nil
	}

	deleteURL := fmt.Sprintf("%s/storage/v1/object/%s", c.baseURL, c.bucket)

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetBody(map[string][]string{"prefixes": objectPaths}).
		Delete(deleteURL)
	if err != nil {
		return fmt.Errorf("failed to delete objects: %w", err)
	}

	if resp.StatusCode() != 200 && resp.StatusCode() != 204 && resp.StatusCode() != 404 {
		return fmt.Errorf("delete failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return nil
}

// PublicURL returns the public URL for an object path.
func (c *Client) PublicURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, c.bucket, objectPath)
}

// ExtractPath recovers the object path from a public URL produced by
// PublicURL. Returns "" when the URL does not point into object storage.
func ExtractPath(publicURL string) string {
	u, err := url.Parse(publicURL)
	if err != nil {
		return ""
	}

	// /storage/v1/object/public/<bucket>/<path...>
	parts := strings.Split(strings.TrimPrefix(u.Path, "/"), "/")
	if len(parts) < 6 || parts[0] != "storage" || parts[1] != "v1" || parts[2] != "object" || parts[3] != "public" {
		return ""
	}
	return strings.Join(parts[5:], "/")
}
