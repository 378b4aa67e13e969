package catalog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mutiara-bangsa/storefront/internal/platform/storage"
	"github.com/mutiara-bangsa/storefront/internal/shared"
)

// AuditRecorder persists audit trail entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MutationObserver counts catalog mutations by outcome.
type MutationObserver interface {
	ObserveCatalogMutation(operation, outcome string)
}

// Repositories groups the catalog persistence ports.
type Repositories struct {
	Products   ProductRepository
	Categories CategoryRepository
	Variants   VariantRepository
}

// ServiceConfig tunes the catalog service.
type ServiceConfig struct {
	MaxUploadBytes int64
}

// Service implements catalog reads and the product upsert/delete workflow.
type Service struct {
	repos     Repositories
	store     storage.Store
	cache     *ListingCache
	audit     AuditRecorder
	metrics   MutationObserver
	cfg       ServiceConfig
	logger    *slog.Logger
	validator *validate
	now       func() time.Time
	newID     func() string
}

// NewService constructs the catalog service. cache, audit and metrics may be nil.
func NewService(repos Repositories, store storage.Store, cache *ListingCache, audit AuditRecorder, metrics MutationObserver, cfg ServiceConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repos:     repos,
		store:     store,
		cache:     cache,
		audit:     audit,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger,
		validator: newValidator(),
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

// GetCategories returns every category ordered by name.
func (s *Service) GetCategories(ctx context.Context) ([]Category, error) {
	return Fetch(ctx, s.cache, "categories", s.repos.Categories.List)
}

// GetCategoryOptions returns the flattened leaf categories for form selects.
func (s *Service) GetCategoryOptions(ctx context.Context) ([]CategoryOption, error) {
	categories, err := s.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	return FlattenCategories(categories), nil
}

// GetProducts returns every product with its category and variants.
func (s *Service) GetProducts(ctx context.Context) ([]ProductWithDetails, error) {
	return Fetch(ctx, s.cache, "products", s.repos.Products.List)
}

// UpsertProduct validates form, replaces the product image when a new one is
// attached, and writes the product row. Failures are reported in the Result.
func (s *Service) UpsertProduct(ctx context.Context, form ProductForm) Result {
	return s.observe("upsert", s.upsert(ctx, form))
}

func (s *Service) upsert(ctx context.Context, form ProductForm) Result {
	fieldErrors := s.validator.check(&form)
	var img preparedImage
	withImage := form.hasImage()
	if withImage {
		prepared, err := prepareImage(form.Image, s.cfg.MaxUploadBytes)
		if err != nil {
			if fieldErrors == nil {
				fieldErrors = make(map[string][]string)
			}
			fieldErrors[FieldImage] = append(fieldErrors[FieldImage], imageFieldMessage(err, s.cfg.MaxUploadBytes))
		}
		img = prepared
	}
	if len(fieldErrors) > 0 {
		return Result{Kind: KindValidation, Message: "Validasi gagal", FieldErrors: fieldErrors}
	}

	isNew := form.ID == ""
	id := form.ID
	if isNew {
		id = s.newID()
	}

	var currentImage string
	if !isNew {
		stored, err := s.repos.Products.ImageURL(ctx, id)
		if err != nil {
			s.logger.Error("load product image", slog.String("product_id", id), slog.Any("error", err))
			kind, msg := classify(err, "membaca produk", "products")
			if kind == KindPersistence {
				msg = "Terjadi kesalahan: " + msg
			}
			return failed(kind, msg)
		}
		currentImage = stored
	}

	imageURL := optionalString(currentImage)
	uploadedKey := ""
	if withImage {
		if currentImage != "" {
			s.removeImage(ctx, currentImage)
		}
		key := imageKey(id, img.ext, s.now())
		err := s.store.Upload(ctx, storage.Object{Key: key, Body: img.body, Size: img.size, ContentType: img.contentType})
		if err != nil {
			s.logger.Error("upload product image", slog.String("product_id", id), slog.Any("error", err))
			return failed(KindUpload, "Terjadi kesalahan: Gagal upload gambar: "+err.Error())
		}
		url, err := s.store.PublicURL(key)
		if err != nil {
			s.logger.Error("product image url", slog.String("key", key), slog.Any("error", err))
			return failed(KindUpload, "Terjadi kesalahan: Gagal upload gambar: "+err.Error())
		}
		imageURL = &url
		uploadedKey = key
	}

	rec := ProductRecord{
		ID:          id,
		Name:        form.Name,
		Description: optionalString(strings.TrimSpace(form.Description)),
		CategoryID:  optionalString(form.CategoryID),
		ImageURL:    imageURL,
		UpdatedAt:   s.now().UTC(),
	}
	if err := s.repos.Products.Upsert(ctx, rec); err != nil {
		s.logger.Error("upsert product", slog.String("product_id", id), slog.Any("error", err))
		if uploadedKey != "" {
			if rmErr := s.store.Remove(ctx, uploadedKey); rmErr != nil {
				s.logger.Warn("remove orphaned image", slog.String("key", uploadedKey), slog.Any("error", rmErr))
			}
		}
		kind, msg := classify(err, "menyimpan produk", "products")
		if kind == KindPersistence {
			msg = "Terjadi kesalahan: " + msg
		}
		return failed(kind, msg)
	}

	action, verb := "product.update", "diperbarui"
	if isNew {
		action, verb = "product.create", "dibuat"
	}
	s.afterMutation(ctx, action, id, map[string]any{"name": rec.Name, "image_replaced": withImage})
	return succeeded("Produk berhasil "+verb+".", id)
}

// DeleteProduct removes the product's variants and then the product row.
// A variant failure stops before the product row is touched.
func (s *Service) DeleteProduct(ctx context.Context, productID string) Result {
	return s.observe("delete", s.delete(ctx, strings.TrimSpace(productID)))
}

func (s *Service) delete(ctx context.Context, id string) Result {
	if id == "" {
		return failed(KindValidation, "ID Produk tidak valid.")
	}
	if _, err := uuid.Parse(id); err != nil {
		return failed(KindValidation, "ID Produk tidak valid.")
	}

	if err := s.repos.Variants.DeleteByProduct(ctx, id); err != nil {
		s.logger.Error("delete product variants", slog.String("product_id", id), slog.Any("error", err))
		kind, msg := classify(err, "menghapus varian", "product_variants")
		if kind == KindPersistence {
			msg = "Gagal menghapus produk: " + msg
		}
		return failed(kind, msg)
	}

	if err := s.repos.Products.Delete(ctx, id); err != nil {
		s.logger.Error("delete product", slog.String("product_id", id), slog.Any("error", err))
		// Variants are already gone; listings must reflect that.
		s.invalidate(ctx)
		kind, msg := classify(err, "menghapus produk", "products")
		if kind == KindPersistence {
			msg = "Gagal menghapus produk: " + msg
		}
		return failed(kind, msg+" Varian produk sudah terhapus.")
	}

	s.afterMutation(ctx, "product.delete", id, nil)
	return succeeded("Produk berhasil dihapus.", id)
}

func (s *Service) afterMutation(ctx context.Context, action, productID string, meta map[string]any) {
	s.invalidate(ctx)
	if s.audit == nil {
		return
	}
	entry := shared.AuditLog{
		ActorID:  shared.ActorFromContext(ctx),
		Action:   action,
		Entity:   "product",
		EntityID: productID,
		Meta:     meta,
		At:       s.now().UTC(),
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("record audit", slog.String("action", action), slog.Any("error", err))
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate listing cache", slog.Any("error", err))
	}
}

// removeImage deletes the object behind rawURL. Failures are logged only.
func (s *Service) removeImage(ctx context.Context, rawURL string) {
	key, ok := s.store.KeyFromURL(rawURL)
	if !ok {
		s.logger.Warn("unrecognised product image url", slog.String("url", rawURL))
		return
	}
	if err := s.store.Remove(ctx, key); err != nil {
		s.logger.Warn("remove previous product image", slog.String("key", key), slog.Any("error", err))
	}
}

func (s *Service) observe(operation string, r Result) Result {
	if s.metrics != nil {
		s.metrics.ObserveCatalogMutation(operation, r.Outcome())
	}
	return r
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
