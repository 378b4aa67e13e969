package catalog

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field keys used in Result.FieldErrors.
const (
	FieldID         = "id"
	FieldName       = "name"
	FieldCategoryID = "category_id"
	FieldImage      = "image"
)

var fieldMessages = map[string]string{
	FieldID:         "ID Produk tidak valid.",
	FieldName:       "Nama produk minimal 3 karakter",
	FieldCategoryID: "Kategori tidak valid",
}

func newValidator() *validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("field"); name != "" {
			return name
		}
		return f.Name
	})
	return &validate{v: v}
}

type validate struct {
	v *validator.Validate
}

type productInput struct {
	ID         string `field:"id" validate:"omitempty,uuid"`
	Name       string `field:"name" validate:"required,min=3"`
	CategoryID string `field:"category_id" validate:"omitempty,uuid"`
}

// check validates the form and returns per-field messages. The form name is
// trimmed in place.
func (v *validate) check(form *ProductForm) map[string][]string {
	form.Name = strings.TrimSpace(form.Name)
	form.CategoryID = strings.TrimSpace(form.CategoryID)
	form.ID = strings.TrimSpace(form.ID)
	err := v.v.Struct(productInput{ID: form.ID, Name: form.Name, CategoryID: form.CategoryID})
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string][]string{"general": {err.Error()}}
	}
	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()]
		if !ok {
			msg = fe.Error()
		}
		if !contains(fields[fe.Field()], msg) {
			fields[fe.Field()] = append(fields[fe.Field()], msg)
		}
	}
	return fields
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
