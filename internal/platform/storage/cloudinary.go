package storage

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type cloudinaryAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// CloudinaryStore keeps product images on Cloudinary. Keys map to public IDs
// with the file extension removed.
type CloudinaryStore struct {
	api       cloudinaryAPI
	cloudName string
}

// NewCloudinary builds a store from a cloudinary:// URL.
func NewCloudinary(cloudinaryURL string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("storage: cloudinary config: %w", err)
	}
	return &CloudinaryStore{api: &cld.Upload, cloudName: cld.Config.Cloud.CloudName}, nil
}

// Upload sends the object to Cloudinary under its public ID.
func (c *CloudinaryStore) Upload(ctx context.Context, obj Object) error {
	if obj.Key == "" {
		return ErrEmptyKey
	}
	res, err := c.api.Upload(ctx, obj.Body, uploader.UploadParams{
		PublicID:  publicID(obj.Key),
		Overwrite: api.Bool(false),
	})
	if err != nil {
		return fmt.Errorf("storage: cloudinary upload: %w", err)
	}
	if res != nil && res.Error.Message != "" {
		return fmt.Errorf("storage: cloudinary upload: %s", res.Error.Message)
	}
	return nil
}

// PublicURL returns the delivery URL for key.
func (c *CloudinaryStore) PublicURL(key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/%s", c.cloudName, publicID(key)), nil
}

// Remove destroys the asset. "not found" results are ignored.
func (c *CloudinaryStore) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	res, err := c.api.Destroy(ctx, uploader.DestroyParams{PublicID: publicID(key)})
	if err != nil {
		return fmt.Errorf("storage: cloudinary destroy: %w", err)
	}
	if res != nil && res.Error.Message != "" {
		return fmt.Errorf("storage: cloudinary destroy: %s", res.Error.Message)
	}
	return nil
}

// KeyFromURL extracts the public ID following the "upload" path segment,
// skipping an optional version segment.
func (c *CloudinaryStore) KeyFromURL(rawURL string) (string, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Path == "" {
		return "", false
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i, part := range parts {
		if part != "upload" || i+1 >= len(parts) {
			continue
		}
		rest := parts[i+1:]
		if len(rest) > 1 && isVersionSegment(rest[0]) {
			rest = rest[1:]
		}
		return publicID(strings.Join(rest, "/")), true
	}
	return "", false
}

func publicID(key string) string {
	return strings.TrimSuffix(key, path.Ext(key))
}

func isVersionSegment(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var _ Store = (*CloudinaryStore)(nil)
