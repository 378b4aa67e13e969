package audit

import (
	"encoding/csv"
	"io"
	"time"
)

var csvHeader = []string{"waktu", "pengguna", "aksi", "entitas", "id_entitas", "nama"}

// Exporter encodes timeline rows for download.
type Exporter struct{}

// NewExporter returns an Exporter.
func NewExporter() *Exporter {
	return &Exporter{}
}

// WriteCSV streams rows to w after a header line. Times are UTC RFC3339.
func (e *Exporter) WriteCSV(w io.Writer, rows []TimelineRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write([]string{
			row.At.UTC().Format(time.RFC3339),
			row.Actor,
			row.Action,
			row.Entity,
			row.EntityID,
			row.Summary(),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
