package audit

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgxpool.Pool used by PGRepository.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PGRepository reads audit_logs joined with the acting profile.
type PGRepository struct {
	db Querier
}

// NewRepository returns a PGRepository over db.
func NewRepository(db Querier) *PGRepository {
	return &PGRepository{db: db}
}

const timelineSQL = `SELECT a.occurred_at,
       COALESCE(p.full_name, u.email, 'sistem') AS actor,
       a.action, a.entity, a.entity_id, a.meta
  FROM audit_logs a
  LEFT JOIN users u ON u.id = a.actor_id
  LEFT JOIN profiles p ON p.id = a.actor_id
 WHERE ($1::timestamptz IS NULL OR a.occurred_at >= $1)
   AND ($2::timestamptz IS NULL OR a.occurred_at < $2)
   AND ($3::text IS NULL OR p.full_name ILIKE '%' || $3 || '%' OR u.email ILIKE '%' || $3 || '%')
   AND ($4::text IS NULL OR a.entity = $4)
   AND ($5::text IS NULL OR a.action = $5)
 ORDER BY a.occurred_at DESC, a.id DESC
OFFSET $6
 LIMIT NULLIF($7, 0)`

// Timeline returns entries matching q, newest first.
func (r *PGRepository) Timeline(ctx context.Context, q Query) ([]TimelineRow, error) {
	rows, err := r.db.Query(ctx, timelineSQL, q.FromAt, q.ToAt, q.Actor, q.Entity, q.Action, q.Offset, q.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TimelineRow
	for rows.Next() {
		var row TimelineRow
		if err := rows.Scan(&row.At, &row.Actor, &row.Action, &row.Entity, &row.EntityID, &row.Meta); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
