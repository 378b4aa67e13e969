package audit

import "time"

// TimelineFilters menampung filter dasar untuk riwayat aktivitas.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	Actor    string
	Entity   string
	Action   string
	Page     int
	PageSize int
}

// TimelineRow mewakili satu baris riwayat aktivitas.
type TimelineRow struct {
	At       time.Time
	Actor    string
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
}

// Summary returns the product name captured when the entry was written.
func (r TimelineRow) Summary() string {
	if name, ok := r.Meta["name"].(string); ok {
		return name
	}
	return ""
}

// PagingInfo menyimpan metadata pagination sederhana.
type PagingInfo struct {
	Page     int
	HasNext  bool
	PageSize int
	PrevPage int
	NextPage int
}

// FiltersViewModel menampung nilai filter untuk template.
type FiltersViewModel struct {
	From   time.Time
	To     time.Time
	Actor  string
	Entity string
	Action string
}

// ViewModel menyatukan data untuk template riwayat aktivitas.
type ViewModel struct {
	Filters FiltersViewModel
	Rows    []TimelineRow
	Paging  PagingInfo
	Actions []string
}

// Actions recorded by the catalog workflow.
const (
	ActionProductCreate = "product.create"
	ActionProductUpdate = "product.update"
	ActionProductDelete = "product.delete"
)

// KnownActions lists the values offered by the action filter.
var KnownActions = []string{ActionProductCreate, ActionProductUpdate, ActionProductDelete}
