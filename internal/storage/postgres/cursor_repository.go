package postgres

import (
	"context"

	history "hassems/internal/history/domain"
)

type cursorRepo struct {
	q querier
}

func (r *cursorRepo) Append(ctx context.Context, event history.CursorEvent) error {
	_, err := r.q.ExecContext(ctx, `
INSERT INTO history_cursor_events (
	helper_slug,
	cursor,
	changed_at
) VALUES (
	$1, $2, $3
)`, event.HelperSlug, event.Cursor, event.ChangedAt.UTC())
	return err
}

func (r *cursorRepo) List(ctx context.Context, helperSlug string) ([]history.CursorEvent, error) {
	rows, err := r.q.QueryContext(ctx, `
SELECT
	helper_slug,
	cursor,
	changed_at
FROM history_cursor_events
WHERE helper_slug = $1
ORDER BY changed_at ASC`, helperSlug)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []history.CursorEvent
	for rows.Next() {
		var event history.CursorEvent
		if err := rows.Scan(&event.HelperSlug, &event.Cursor, &event.ChangedAt); err != nil {
			return nil, err
		}
		event.ChangedAt = event.ChangedAt.UTC()
		result = append(result, event)
	}
	return result, rows.Err()
}
