package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// ImageKeyPrefix is the folder product images live under.
const ImageKeyPrefix = "product-images"

const sniffLen = 3072

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp"}

var (
	errImageTooLarge    = errors.New("image exceeds upload limit")
	errImageUnsupported = errors.New("unsupported image type")
)

// hasImage reports whether a non-empty file was attached.
func (f ProductForm) hasImage() bool {
	return f.Image != nil && f.Image.Body != nil && f.Image.Size > 0
}

// preparedImage is an upload whose type has been sniffed.
type preparedImage struct {
	body        io.Reader
	size        int64
	contentType string
	ext         string
}

// prepareImage checks size and content type without consuming the body.
func prepareImage(img *ImageUpload, maxBytes int64) (preparedImage, error) {
	if maxBytes > 0 && img.Size > maxBytes {
		return preparedImage{}, errImageTooLarge
	}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(img.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return preparedImage{}, fmt.Errorf("read image: %w", err)
	}
	head = head[:n]
	body, err := rewind(img.Body, head)
	if err != nil {
		return preparedImage{}, err
	}
	mtype := mimetype.Detect(head)
	if !mimetype.EqualsAny(mtype.String(), allowedImageTypes...) {
		return preparedImage{}, errImageUnsupported
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(img.Filename)), ".")
	if ext == "" {
		ext = strings.TrimPrefix(mtype.Extension(), ".")
	}
	return preparedImage{
		body:        body,
		size:        img.Size,
		contentType: mtype.String(),
		ext:         ext,
	}, nil
}

// rewind returns a reader positioned at the first byte of the upload.
// Seekable sources (multipart files) are rewound in place so object stores
// can hash and retry the body.
func rewind(src io.Reader, head []byte) (io.Reader, error) {
	if seeker, ok := src.(io.ReadSeeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewind image: %w", err)
		}
		return seeker, nil
	}
	return io.MultiReader(bytes.NewReader(head), src), nil
}

// imageKey names an upload after its product and the upload instant so
// repeated edits never collide.
func imageKey(productID, ext string, at time.Time) string {
	return fmt.Sprintf("%s/%s-%d.%s", ImageKeyPrefix, productID, at.UnixMilli(), ext)
}

func imageFieldMessage(err error, maxBytes int64) string {
	if errors.Is(err, errImageTooLarge) {
		return "Ukuran gambar maksimal " + formatBytes(maxBytes)
	}
	return "Format gambar harus JPG, PNG, atau WEBP"
}

// formatBytes renders a limit in the largest whole-or-decimal unit.
func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return trimUnit(float64(n)/(1<<20)) + " MB"
	case n >= 1<<10:
		return trimUnit(float64(n)/(1<<10)) + " KB"
	default:
		return fmt.Sprintf("%d byte", n)
	}
}

func trimUnit(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", v), "0"), ".")
}
