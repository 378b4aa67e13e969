package catalog

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Kind classifies a failed catalog mutation.
type Kind string

// Failure kinds carried in Result.
const (
	KindValidation   Kind = "validation"
	KindAccessDenied Kind = "access_denied"
	KindUpload       Kind = "upload"
	KindPersistence  Kind = "persistence"
)

// pgInsufficientPrivilege is raised by row-level security policies.
const pgInsufficientPrivilege = "42501"

var (
	// ErrUpload wraps object storage failures.
	ErrUpload = errors.New("catalog: image upload failed")
	// ErrAccessDenied wraps row-level security rejections.
	ErrAccessDenied = errors.New("catalog: access denied")
)

// Result is the uniform outcome of UpsertProduct and DeleteProduct.
type Result struct {
	Success     bool                `json:"success"`
	Message     string              `json:"message"`
	Kind        Kind                `json:"kind,omitempty"`
	FieldErrors map[string][]string `json:"field_errors,omitempty"`
	ProductID   string              `json:"product_id,omitempty"`
}

// Outcome is the metrics label for r.
func (r Result) Outcome() string {
	if r.Success {
		return "ok"
	}
	return string(r.Kind)
}

func succeeded(message, productID string) Result {
	return Result{Success: true, Message: message, ProductID: productID}
}

func failed(kind Kind, message string) Result {
	return Result{Kind: kind, Message: message}
}

// IsAccessDenied reports whether err is a row-level security rejection.
func IsAccessDenied(err error) bool {
	if errors.Is(err, ErrAccessDenied) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgInsufficientPrivilege
}

// classify maps a backend error on table to a failure kind and description.
// verb is the Indonesian action, e.g. "menyimpan produk".
func classify(err error, verb, table string) (Kind, string) {
	if IsAccessDenied(err) {
		return KindAccessDenied, fmt.Sprintf("Gagal %s: Hak akses ditolak. Pastikan RLS untuk tabel %q sudah benar.", verb, table)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return KindPersistence, pgErr.Message
	}
	return KindPersistence, err.Error()
}
