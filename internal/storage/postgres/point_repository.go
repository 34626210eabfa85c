package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	helper "hassems/internal/helper/domain"
	history "hassems/internal/history/domain"
)

type pointRepo struct {
	q querier
}

const pointColumns = `
	id,
	helper_slug,
	value_kind,
	value_bool,
	value_numeric,
	value_text,
	measured_at,
	recorded_at,
	is_historic,
	history_cursor`

func (r *pointRepo) Insert(ctx context.Context, p history.Point) error {
	args := pointArgs(p)
	_, err := r.q.ExecContext(ctx, `
INSERT INTO history_points (`+pointColumns+`
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
)`, args...)
	return err
}

func (r *pointRepo) Update(ctx context.Context, p history.Point) error {
	args := pointArgs(p)
	result, err := r.q.ExecContext(ctx, `
UPDATE history_points SET
	value_kind = $3,
	value_bool = $4,
	value_numeric = $5,
	value_text = $6,
	measured_at = $7,
	recorded_at = $8,
	is_historic = $9,
	history_cursor = $10
WHERE id = $1 AND helper_slug = $2`, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return history.ErrPointNotFound
	}
	return nil
}

func (r *pointRepo) Delete(ctx context.Context, helperSlug, id string) error {
	result, err := r.q.ExecContext(ctx, `
DELETE FROM history_points WHERE id = $1 AND helper_slug = $2`, id, helperSlug)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return history.ErrPointNotFound
	}
	return nil
}

func (r *pointRepo) Get(ctx context.Context, helperSlug, id string) (history.Point, error) {
	row := r.q.QueryRowContext(ctx, `
SELECT `+pointColumns+`
FROM history_points
WHERE id = $1 AND helper_slug = $2`, id, helperSlug)
	p, err := scanPoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return history.Point{}, history.ErrPointNotFound
	}
	return p, err
}

func (r *pointRepo) List(ctx context.Context, helperSlug string, limit int) ([]history.Point, error) {
	query := `
SELECT ` + pointColumns + `
FROM history_points
WHERE helper_slug = $1
ORDER BY measured_at ASC, recorded_at ASC`
	args := []any{helperSlug}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []history.Point
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *pointRepo) Latest(ctx context.Context, helperSlug string) (*history.Point, error) {
	row := r.q.QueryRowContext(ctx, `
SELECT `+pointColumns+`
FROM history_points
WHERE helper_slug = $1
ORDER BY measured_at DESC, recorded_at DESC
LIMIT 1`, helperSlug)
	p, err := scanPoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pointRepo) MarkHistoric(ctx context.Context, helperSlug string, cutoff time.Time, cursor string) (int, error) {
	result, err := r.q.ExecContext(ctx, `
UPDATE history_points SET
	is_historic = TRUE,
	history_cursor = CASE WHEN history_cursor = '' THEN $3 ELSE history_cursor END
WHERE helper_slug = $1
	AND measured_at <= $2
	AND is_historic = FALSE`, helperSlug, cutoff.UTC(), cursor)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func pointArgs(p history.Point) []any {
	valueBool := sql.NullBool{}
	valueNumeric := sql.NullFloat64{}
	valueText := sql.NullString{}
	switch p.Value.Kind {
	case helper.KindBoolean:
		valueBool = sql.NullBool{Bool: p.Value.Bool, Valid: true}
	case helper.KindNumber:
		valueNumeric = sql.NullFloat64{Float64: p.Value.Number, Valid: true}
	default:
		valueText = sql.NullString{String: p.Value.Text, Valid: true}
	}

	return []any{
		p.ID,
		p.HelperSlug,
		string(p.Value.Kind),
		valueBool,
		valueNumeric,
		valueText,
		p.MeasuredAt.UTC(),
		p.RecordedAt.UTC(),
		p.Historic,
		p.Cursor,
	}
}

func scanPoint(row rowScanner) (history.Point, error) {
	var (
		p            history.Point
		valueKind    string
		valueBool    sql.NullBool
		valueNumeric sql.NullFloat64
		valueText    sql.NullString
	)
	if err := row.Scan(
		&p.ID,
		&p.HelperSlug,
		&valueKind,
		&valueBool,
		&valueNumeric,
		&valueText,
		&p.MeasuredAt,
		&p.RecordedAt,
		&p.Historic,
		&p.Cursor,
	); err != nil {
		return history.Point{}, err
	}

	p.Value.Kind = helper.Kind(valueKind)
	switch {
	case valueBool.Valid:
		p.Value.Bool = valueBool.Bool
	case valueNumeric.Valid:
		p.Value.Number = valueNumeric.Float64
	case valueText.Valid:
		p.Value.Text = valueText.String
	}
	p.MeasuredAt = p.MeasuredAt.UTC()
	p.RecordedAt = p.RecordedAt.UTC()
	return p, nil
}
