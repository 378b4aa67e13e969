package catalog

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func pngUpload(name string) *ImageUpload {
	body := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 64)...)
	return &ImageUpload{Filename: name, Size: int64(len(body)), Body: bytes.NewReader(body)}
}

func TestPrepareImageKeepsFullBody(t *testing.T) {
	upload := pngUpload("foto.PNG")
	img, err := prepareImage(upload, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.contentType)
	assert.Equal(t, "png", img.ext)

	data, err := io.ReadAll(img.body)
	require.NoError(t, err)
	assert.Equal(t, int(upload.Size), len(data))
	assert.True(t, bytes.HasPrefix(data, pngHeader))
}

func TestPrepareImageExtensionFromContent(t *testing.T) {
	img, err := prepareImage(pngUpload("blob"), 0)
	require.NoError(t, err)
	assert.Equal(t, "png", img.ext)
}

func TestPrepareImageRejects(t *testing.T) {
	_, err := prepareImage(&ImageUpload{Filename: "a.txt", Size: 5, Body: strings.NewReader("hello")}, 1<<20)
	assert.ErrorIs(t, err, errImageUnsupported)

	_, err = prepareImage(pngUpload("big.png"), 10)
	assert.ErrorIs(t, err, errImageTooLarge)
}

func TestImageKey(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "product-images/p-1-1700000000123.jpg", imageKey("p-1", "jpg", at))
}

func TestPrepareImageRewindsSeekableBody(t *testing.T) {
	upload := pngUpload("foto.png")
	img, err := prepareImage(upload, 1<<20)
	require.NoError(t, err)

	seeker, ok := img.body.(io.ReadSeeker)
	require.True(t, ok, "seekable uploads must stay seekable")
	data, err := io.ReadAll(seeker)
	require.NoError(t, err)
	assert.Equal(t, int(upload.Size), len(data))

	_, err = seeker.Seek(0, io.SeekStart)
	require.NoError(t, err)
	again, err := io.ReadAll(seeker)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestPrepareImageStreamsNonSeekableBody(t *testing.T) {
	body := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{1}, 4096)...)
	upload := &ImageUpload{Filename: "foto.png", Size: int64(len(body)), Body: io.MultiReader(bytes.NewReader(body))}

	img, err := prepareImage(upload, 1<<20)
	require.NoError(t, err)
	data, err := io.ReadAll(img.body)
	require.NoError(t, err)
	assert.Equal(t, body, data)
}

func TestImageFieldMessageUnits(t *testing.T) {
	assert.Equal(t, "Ukuran gambar maksimal 5 MB", imageFieldMessage(errImageTooLarge, 5<<20))
	assert.Equal(t, "Ukuran gambar maksimal 1.5 MB", imageFieldMessage(errImageTooLarge, 3<<19))
	assert.Equal(t, "Ukuran gambar maksimal 512 KB", imageFieldMessage(errImageTooLarge, 512<<10))
	assert.Equal(t, "Ukuran gambar maksimal 900 byte", imageFieldMessage(errImageTooLarge, 900))
	assert.Equal(t, "Format gambar harus JPG, PNG, atau WEBP", imageFieldMessage(errImageUnsupported, 5<<20))
}
