package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mutiara-bangsa/storefront/internal/platform/storage"
	"github.com/mutiara-bangsa/storefront/internal/shared"
)

// backend is an in-memory stand-in for the database and bucket that records
// every write in order.
type backend struct {
	calls      []string
	products   map[string]ProductRecord
	categories []Category
	objects    map[string]string

	lookupErr        error
	upsertErr        error
	deleteErr        error
	variantDeleteErr error
	uploadErr        error
	removeErr        error
}

func newBackend() *backend {
	return &backend{products: map[string]ProductRecord{}, objects: map[string]string{}}
}

type fakeProducts struct{ b *backend }
type fakeCategories struct{ b *backend }
type fakeVariants struct{ b *backend }
type fakeStore struct{ b *backend }

func (f fakeProducts) List(context.Context) ([]ProductWithDetails, error) {
	out := make([]ProductWithDetails, 0, len(f.b.products))
	for _, rec := range f.b.products {
		out = append(out, ProductWithDetails{Product: Product{ID: rec.ID, Name: rec.Name, CategoryID: rec.CategoryID, ImageURL: rec.ImageURL}})
	}
	return out, nil
}

func (f fakeProducts) ImageURL(_ context.Context, id string) (string, error) {
	if f.b.lookupErr != nil {
		return "", f.b.lookupErr
	}
	if rec, ok := f.b.products[id]; ok && rec.ImageURL != nil {
		return *rec.ImageURL, nil
	}
	return "", nil
}

func (f fakeProducts) Upsert(_ context.Context, rec ProductRecord) error {
	f.b.calls = append(f.b.calls, "products.upsert")
	if f.b.upsertErr != nil {
		return f.b.upsertErr
	}
	f.b.products[rec.ID] = rec
	return nil
}

func (f fakeProducts) Delete(_ context.Context, id string) error {
	f.b.calls = append(f.b.calls, "products.delete")
	if f.b.deleteErr != nil {
		return f.b.deleteErr
	}
	delete(f.b.products, id)
	return nil
}

func (f fakeCategories) List(context.Context) ([]Category, error) { return f.b.categories, nil }

func (f fakeVariants) DeleteByProduct(context.Context, string) error {
	f.b.calls = append(f.b.calls, "variants.delete")
	return f.b.variantDeleteErr
}

func (f fakeStore) Upload(_ context.Context, obj storage.Object) error {
	f.b.calls = append(f.b.calls, "store.upload:"+obj.Key)
	if f.b.uploadErr != nil {
		return f.b.uploadErr
	}
	data, _ := io.ReadAll(obj.Body)
	f.b.objects[obj.Key] = string(data)
	return nil
}

func (f fakeStore) PublicURL(key string) (string, error) {
	return "https://cdn.test/product-images/" + key, nil
}

func (f fakeStore) Remove(_ context.Context, key string) error {
	f.b.calls = append(f.b.calls, "store.remove:"+key)
	if f.b.removeErr != nil {
		return f.b.removeErr
	}
	delete(f.b.objects, key)
	return nil
}

func (f fakeStore) KeyFromURL(rawURL string) (string, bool) {
	key := strings.TrimPrefix(rawURL, "https://cdn.test/product-images/")
	return key, key != rawURL
}

type recordedAudit struct{ logs []shared.AuditLog }

func (r *recordedAudit) Record(_ context.Context, log shared.AuditLog) error {
	r.logs = append(r.logs, log)
	return nil
}

type recordedMetrics struct{ outcomes []string }

func (m *recordedMetrics) ObserveCatalogMutation(op, outcome string) {
	m.outcomes = append(m.outcomes, op+":"+outcome)
}

type harness struct {
	svc     *Service
	b       *backend
	audit   *recordedAudit
	metrics *recordedMetrics
}

var fixedNow = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func newHarness() harness {
	b := newBackend()
	audit := &recordedAudit{}
	metrics := &recordedMetrics{}
	svc := NewService(Repositories{
		Products:   fakeProducts{b},
		Categories: fakeCategories{b},
		Variants:   fakeVariants{b},
	}, fakeStore{b}, nil, audit, metrics, ServiceConfig{MaxUploadBytes: 5 << 20}, nil)
	svc.now = func() time.Time { return fixedNow }
	return harness{svc: svc, b: b, audit: audit, metrics: metrics}
}

func TestUpsertShortNameNeverPersists(t *testing.T) {
	h := newHarness()
	result := h.svc.UpsertProduct(context.Background(), ProductForm{Name: " ab ", Image: pngUpload("a.png")})

	assert.False(t, result.Success)
	assert.Equal(t, KindValidation, result.Kind)
	assert.Equal(t, "Validasi gagal", result.Message)
	assert.Equal(t, []string{"Nama produk minimal 3 karakter"}, result.FieldErrors[FieldName])
	assert.Empty(t, h.b.calls)
	assert.Equal(t, []string{"upsert:validation"}, h.metrics.outcomes)
}

func TestUpsertRejectsMalformedCategory(t *testing.T) {
	h := newHarness()
	result := h.svc.UpsertProduct(context.Background(), ProductForm{Name: "Seragam SD", CategoryID: "not-a-uuid"})
	assert.Equal(t, KindValidation, result.Kind)
	assert.Equal(t, []string{"Kategori tidak valid"}, result.FieldErrors[FieldCategoryID])
	assert.Empty(t, h.b.calls)
}

func TestUpsertRejectsUnsupportedImage(t *testing.T) {
	h := newHarness()
	result := h.svc.UpsertProduct(context.Background(), ProductForm{
		Name:  "Seragam SD",
		Image: &ImageUpload{Filename: "cv.pdf", Size: 8, Body: strings.NewReader("%PDF-1.4")},
	})
	assert.Equal(t, KindValidation, result.Kind)
	assert.NotEmpty(t, result.FieldErrors[FieldImage])
	assert.Empty(t, h.b.calls)
}

func TestUpsertNewProductAssignsID(t *testing.T) {
	h := newHarness()
	result := h.svc.UpsertProduct(context.Background(), ProductForm{Name: "Seragam SD"})

	require.True(t, result.Success, result.Message)
	assert.Equal(t, "Produk berhasil dibuat.", result.Message)
	_, err := uuid.Parse(result.ProductID)
	require.NoError(t, err)

	rec, ok := h.b.products[result.ProductID]
	require.True(t, ok)
	assert.Equal(t, "Seragam SD", rec.Name)
	assert.Nil(t, rec.Description)
	assert.Nil(t, rec.CategoryID)
	assert.Nil(t, rec.ImageURL)
	assert.Equal(t, fixedNow, rec.UpdatedAt)
	assert.Equal(t, []string{"products.upsert"}, h.b.calls)

	require.Len(t, h.audit.logs, 1)
	assert.Equal(t, "product.create", h.audit.logs[0].Action)
	assert.Equal(t, result.ProductID, h.audit.logs[0].EntityID)
}

func TestUpsertWithoutImagePreservesURL(t *testing.T) {
	h := newHarness()
	id := uuid.NewString()
	current := "https://cdn.test/product-images/product-images/old.png"
	ctx := shared.ContextWithActor(context.Background(), "admin-1")

	h.b.products[id] = ProductRecord{ID: id, Name: "Buku", ImageURL: &current}

	result := h.svc.UpsertProduct(ctx, ProductForm{ID: id, Name: "Buku Tulis", Description: "  38 lembar "})

	require.True(t, result.Success)
	assert.Equal(t, "Produk berhasil diperbarui.", result.Message)
	rec := h.b.products[id]
	require.NotNil(t, rec.ImageURL)
	assert.Equal(t, current, *rec.ImageURL)
	require.NotNil(t, rec.Description)
	assert.Equal(t, "38 lembar", *rec.Description)
	assert.Equal(t, []string{"products.upsert"}, h.b.calls)
	assert.Equal(t, "admin-1", h.audit.logs[0].ActorID)
	assert.Equal(t, "product.update", h.audit.logs[0].Action)
}

func TestUpsertReplacesImageInOrder(t *testing.T) {
	h := newHarness()
	id := uuid.NewString()
	h.b.objects["product-images/old.png"] = "old"
	old := "https://cdn.test/product-images/product-images/old.png"
	h.b.products[id] = ProductRecord{ID: id, Name: "Buku", ImageURL: &old}

	result := h.svc.UpsertProduct(context.Background(), ProductForm{
		ID:    id,
		Name:  "Buku Tulis",
		Image: pngUpload("baru.png"),
	})

	require.True(t, result.Success, result.Message)
	newKey := fmt.Sprintf("product-images/%s-%d.png", id, fixedNow.UnixMilli())
	assert.Equal(t, []string{
		"store.remove:product-images/old.png",
		"store.upload:" + newKey,
		"products.upsert",
	}, h.b.calls)
	rec := h.b.products[id]
	require.NotNil(t, rec.ImageURL)
	assert.Equal(t, "https://cdn.test/product-images/"+newKey, *rec.ImageURL)
	assert.True(t, strings.HasPrefix(h.b.objects[newKey], "\x89PNG"))
	assert.NotContains(t, h.b.objects, "product-images/old.png")
}

func TestUpsertOldImageRemovalIsBestEffort(t *testing.T) {
	h := newHarness()
	h.b.removeErr = errors.New("bucket says no")
	id := uuid.NewString()
	old := "https://cdn.test/product-images/product-images/old.png"
	h.b.products[id] = ProductRecord{ID: id, Name: "Buku", ImageURL: &old}

	result := h.svc.UpsertProduct(context.Background(), ProductForm{
		ID:    id,
		Name:  "Buku Tulis",
		Image: pngUpload("baru.png"),
	})
	assert.True(t, result.Success)
	assert.Contains(t, h.b.calls, "store.remove:product-images/old.png")
}

func TestUpsertReplacesOnlyTheStoredImage(t *testing.T) {
	h := newHarness()
	id := uuid.NewString()
	stored := "https://cdn.test/product-images/product-images/stored.png"
	h.b.products[id] = ProductRecord{ID: id, Name: "Buku", ImageURL: &stored}
	h.b.objects["product-images/stored.png"] = "stored"
	h.b.objects["product-images/other.png"] = "other"

	result := h.svc.UpsertProduct(context.Background(), ProductForm{ID: id, Name: "Buku Tulis", Image: pngUpload("baru.png")})

	require.True(t, result.Success, result.Message)
	assert.Contains(t, h.b.calls, "store.remove:product-images/stored.png")
	assert.NotContains(t, h.b.calls, "store.remove:product-images/other.png")
	assert.Equal(t, "other", h.b.objects["product-images/other.png"])
}

func TestUpsertNewProductRemovesNothing(t *testing.T) {
	h := newHarness()

	result := h.svc.UpsertProduct(context.Background(), ProductForm{Name: "Tas Sekolah", Image: pngUpload("tas.png")})

	require.True(t, result.Success, result.Message)
	for _, call := range h.b.calls {
		assert.False(t, strings.HasPrefix(call, "store.remove:"), call)
	}
}

func TestUpsertStoredImageLookupFailure(t *testing.T) {
	h := newHarness()
	h.b.lookupErr = &pgconn.PgError{Code: "42501", Message: "permission denied for table products"}

	result := h.svc.UpsertProduct(context.Background(), ProductForm{ID: uuid.NewString(), Name: "Buku Tulis", Image: pngUpload("baru.png")})

	assert.Equal(t, KindAccessDenied, result.Kind)
	assert.Empty(t, h.b.calls)
}

func TestUpsertUploadFailureSkipsRowWrite(t *testing.T) {
	h := newHarness()
	h.b.uploadErr = errors.New("storage offline")

	result := h.svc.UpsertProduct(context.Background(), ProductForm{Name: "Tas Sekolah", Image: pngUpload("tas.png")})

	assert.False(t, result.Success)
	assert.Equal(t, KindUpload, result.Kind)
	assert.Contains(t, result.Message, "Gagal upload gambar")
	assert.NotContains(t, h.b.calls, "products.upsert")
	assert.Empty(t, h.audit.logs)
	assert.Equal(t, []string{"upsert:upload"}, h.metrics.outcomes)
}

func TestUpsertAccessDenied(t *testing.T) {
	h := newHarness()
	h.b.upsertErr = &pgconn.PgError{Code: "42501", Message: "new row violates row-level security policy"}

	result := h.svc.UpsertProduct(context.Background(), ProductForm{Name: "Tas Sekolah", Image: pngUpload("tas.png")})

	assert.Equal(t, KindAccessDenied, result.Kind)
	assert.Contains(t, result.Message, `Pastikan RLS untuk tabel "products" sudah benar.`)
	// The freshly uploaded object is cleaned up.
	last := h.b.calls[len(h.b.calls)-1]
	assert.True(t, strings.HasPrefix(last, "store.remove:product-images/"), last)
	assert.Empty(t, h.b.objects)
}

func TestUpsertPersistenceError(t *testing.T) {
	h := newHarness()
	h.b.upsertErr = &pgconn.PgError{Code: "23503", Message: "insert or update on table \"products\" violates foreign key constraint"}

	result := h.svc.UpsertProduct(context.Background(), ProductForm{Name: "Tas Sekolah", CategoryID: uuid.NewString()})

	assert.Equal(t, KindPersistence, result.Kind)
	assert.True(t, strings.HasPrefix(result.Message, "Terjadi kesalahan: "))
}

func TestDeleteOrdersVariantsFirst(t *testing.T) {
	h := newHarness()
	id := uuid.NewString()
	h.b.products[id] = ProductRecord{ID: id, Name: "Pensil"}

	result := h.svc.DeleteProduct(context.Background(), id)

	require.True(t, result.Success)
	assert.Equal(t, "Produk berhasil dihapus.", result.Message)
	assert.Equal(t, []string{"variants.delete", "products.delete"}, h.b.calls)
	assert.NotContains(t, h.b.products, id)
	require.Len(t, h.audit.logs, 1)
	assert.Equal(t, "product.delete", h.audit.logs[0].Action)
}

func TestDeleteStopsWhenVariantDeleteFails(t *testing.T) {
	h := newHarness()
	h.b.variantDeleteErr = &pgconn.PgError{Code: "42501"}

	result := h.svc.DeleteProduct(context.Background(), uuid.NewString())

	assert.False(t, result.Success)
	assert.Equal(t, KindAccessDenied, result.Kind)
	assert.Contains(t, result.Message, `"product_variants"`)
	assert.Equal(t, []string{"variants.delete"}, h.b.calls)
}

func TestDeleteReportsPartialFailure(t *testing.T) {
	h := newHarness()
	h.b.deleteErr = errors.New("connection reset")

	result := h.svc.DeleteProduct(context.Background(), uuid.NewString())

	assert.Equal(t, KindPersistence, result.Kind)
	assert.Contains(t, result.Message, "Gagal menghapus produk: connection reset")
	assert.Contains(t, result.Message, "Varian produk sudah terhapus.")
	assert.Equal(t, []string{"variants.delete", "products.delete"}, h.b.calls)
}

func TestDeleteInvalidID(t *testing.T) {
	h := newHarness()
	for _, id := range []string{"", "   ", "42"} {
		result := h.svc.DeleteProduct(context.Background(), id)
		assert.False(t, result.Success)
		assert.Equal(t, "ID Produk tidak valid.", result.Message)
	}
	assert.Empty(t, h.b.calls)
}

func TestGetCategoryOptions(t *testing.T) {
	h := newHarness()
	h.b.categories = []Category{{ID: "r", Name: "Seragam"}, {ID: "sd", Name: "SD", ParentID: strPtr("r")}}
	options, err := h.svc.GetCategoryOptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []CategoryOption{{ID: "sd", DisplayName: "Seragam > SD"}}, options)
}

func TestIsAccessDenied(t *testing.T) {
	assert.True(t, IsAccessDenied(fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "42501"})))
	assert.True(t, IsAccessDenied(ErrAccessDenied))
	assert.False(t, IsAccessDenied(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsAccessDenied(bytes.ErrTooLarge))
}
