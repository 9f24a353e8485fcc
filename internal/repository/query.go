package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

// ErrReservationOverlap is returned by atomic writes when an overlapping approved or confirmed
// reservation was committed between the caller's conflict check and the write.
var ErrReservationOverlap = errors.New("overlapping reservation exists")

// whereBuilder accumulates positional conditions for list queries.
type whereBuilder struct {
	conditions []string
	args       []interface{}
}

func (w *whereBuilder) add(format string, value interface{}) {
	w.args = append(w.args, value)
	w.conditions = append(w.conditions, fmt.Sprintf(format, len(w.args)))
}

func (w *whereBuilder) addAny(column string, values []string) {
	if len(values) == 0 {
		return
	}
	w.add(column+" = ANY($%d)", pq.Array(values))
}

func (w *whereBuilder) clause() string {
	if len(w.conditions) == 0 {
		return " WHERE 1=1"
	}
	return " WHERE " + strings.Join(w.conditions, " AND ")
}

// pageClause renders ORDER BY/LIMIT/OFFSET with the sort column restricted to allowed.
func pageClause(p models.PageRequest, allowed map[string]bool, defaultSort, defaultOrder string) string {
	sortBy := p.SortBy
	if !allowed[sortBy] {
		sortBy = defaultSort
	}
	order := strings.ToUpper(p.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = defaultOrder
	}
	_, size, offset := p.Normalize()
	return fmt.Sprintf(" ORDER BY %s %s LIMIT %d OFFSET %d", sortBy, order, size, offset)
}

// existsCaseInsensitive reports whether table holds a row whose column equals value ignoring case,
// skipping the row with excludeID.
func existsCaseInsensitive(ctx context.Context, db sqlx.QueryerContext, table, column, value, excludeID string) (bool, error) {
	query := "SELECT 1 FROM " + table + " WHERE LOWER(" + column + ") = LOWER($1)"
	args := []interface{}{value}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}

	var found int
	if err := sqlx.GetContext(ctx, db, &found, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check %s %s: %w", table, column, err)
	}
	return true, nil
}
