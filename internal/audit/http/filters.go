package audithttp

import (
	"errors"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mutiara-bangsa/storefront/internal/audit"
)

const (
	dateLayout       = "2006-01-02"
	defaultPageSize  = 20
	maxPageSize      = 50
	defaultRangeDays = 7
	maxRangeDays     = 90
)

// filterQuery is the raw query string of the activity pages.
type filterQuery struct {
	From     string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To       string `query:"to" validate:"omitempty,datetime=2006-01-02"`
	Actor    string `query:"actor" validate:"max=120"`
	Entity   string `query:"entity" validate:"omitempty,oneof=product"`
	Action   string `query:"action" validate:"omitempty,oneof=product.create product.update product.delete"`
	Page     string `query:"page" validate:"omitempty,number"`
	PageSize string `query:"page_size" validate:"omitempty,number"`
}

// filterError lists the query parameters that were rejected.
type filterError struct {
	fields []string
}

func (e *filterError) Error() string {
	return "Filter tidak valid: " + strings.Join(e.fields, ", ")
}

type filterParser struct {
	v   *validator.Validate
	now func() time.Time
}

func newFilterParser(now func() time.Time) *filterParser {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("query")
	})
	return &filterParser{v: v, now: now}
}

func readQuery(values url.Values) filterQuery {
	get := func(key string) string { return strings.TrimSpace(values.Get(key)) }
	return filterQuery{
		From:     get("from"),
		To:       get("to"),
		Actor:    get("actor"),
		Entity:   get("entity"),
		Action:   get("action"),
		Page:     get("page"),
		PageSize: get("page_size"),
	}
}

// parse turns the query into timeline filters. Without dates the last week
// up to today (UTC) is shown; ranges longer than maxRangeDays are rejected.
func (p *filterParser) parse(values url.Values) (audit.TimelineFilters, error) {
	q := readQuery(values)
	if err := p.v.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return audit.TimelineFilters{}, err
		}
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		sort.Strings(fields)
		return audit.TimelineFilters{}, &filterError{fields: fields}
	}

	today := p.now().UTC().Truncate(24 * time.Hour)
	to := today
	if q.To != "" {
		to, _ = time.Parse(dateLayout, q.To)
	}
	from := to.AddDate(0, 0, -defaultRangeDays)
	if q.From != "" {
		from, _ = time.Parse(dateLayout, q.From)
	}
	if from.After(to) || to.Sub(from) > maxRangeDays*24*time.Hour {
		return audit.TimelineFilters{}, &filterError{fields: []string{"range"}}
	}

	page := 1
	if q.Page != "" {
		page, _ = strconv.Atoi(q.Page)
		if page < 1 {
			return audit.TimelineFilters{}, &filterError{fields: []string{"page"}}
		}
	}
	pageSize := defaultPageSize
	if q.PageSize != "" {
		pageSize, _ = strconv.Atoi(q.PageSize)
		if pageSize < 1 {
			return audit.TimelineFilters{}, &filterError{fields: []string{"page_size"}}
		}
		pageSize = min(pageSize, maxPageSize)
	}

	return audit.TimelineFilters{
		From:     from,
		To:       to,
		Actor:    q.Actor,
		Entity:   q.Entity,
		Action:   q.Action,
		Page:     page,
		PageSize: pageSize,
	}, nil
}
