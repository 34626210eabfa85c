package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	helper "hassems/internal/helper/domain"
)

type helperRepo struct {
	q querier
}

const helperColumns = `
	slug,
	name,
	kind,
	transport,
	options,
	unit,
	state_class,
	last_value_bool,
	last_value_numeric,
	last_value_text,
	last_measured_at,
	history_cursor,
	history_changed_at,
	statistics_mode,
	mqtt_state_topic,
	mqtt_command_topic,
	mqtt_device_id,
	mqtt_device_name,
	created_at,
	updated_at`

func (r *helperRepo) Create(ctx context.Context, h *helper.Helper) error {
	args, err := helperArgs(h)
	if err != nil {
		return err
	}
	result, err := r.q.ExecContext(ctx, `
INSERT INTO helpers (`+helperColumns+`
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20
)
ON CONFLICT (slug) DO NOTHING`, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return helper.ErrSlugConflict
	}
	return nil
}

func (r *helperRepo) Get(ctx context.Context, slug string) (*helper.Helper, error) {
	row := r.q.QueryRowContext(ctx, `
SELECT `+helperColumns+`
FROM helpers
WHERE slug = $1`, slug)
	h, err := scanHelper(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, helper.ErrHelperNotFound
	}
	return h, err
}

func (r *helperRepo) Update(ctx context.Context, h *helper.Helper) error {
	args, err := helperArgs(h)
	if err != nil {
		return err
	}
	result, err := r.q.ExecContext(ctx, `
UPDATE helpers SET
	name = $2,
	kind = $3,
	transport = $4,
	options = $5,
	unit = $6,
	state_class = $7,
	last_value_bool = $8,
	last_value_numeric = $9,
	last_value_text = $10,
	last_measured_at = $11,
	history_cursor = $12,
	history_changed_at = $13,
	statistics_mode = $14,
	mqtt_state_topic = $15,
	mqtt_command_topic = $16,
	mqtt_device_id = $17,
	mqtt_device_name = $18,
	created_at = $19,
	updated_at = $20
WHERE slug = $1`, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return helper.ErrHelperNotFound
	}
	return nil
}

func (r *helperRepo) Delete(ctx context.Context, slug string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM helpers WHERE slug = $1`, slug)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return helper.ErrHelperNotFound
	}
	return nil
}

func (r *helperRepo) List(ctx context.Context) ([]*helper.Helper, error) {
	rows, err := r.q.QueryContext(ctx, `
SELECT `+helperColumns+`
FROM helpers
ORDER BY slug ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*helper.Helper
	for rows.Next() {
		h, err := scanHelper(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, h)
	}
	return result, rows.Err()
}

func helperArgs(h *helper.Helper) ([]any, error) {
	var options any
	if len(h.Options) > 0 {
		encoded, err := json.Marshal(h.Options)
		if err != nil {
			return nil, err
		}
		options = string(encoded)
	}

	lastBool := sql.NullBool{}
	lastNumeric := sql.NullFloat64{}
	lastText := sql.NullString{}
	if h.LastValue != nil {
		switch h.LastValue.Kind {
		case helper.KindBoolean:
			lastBool = sql.NullBool{Bool: h.LastValue.Bool, Valid: true}
		case helper.KindNumber:
			lastNumeric = sql.NullFloat64{Float64: h.LastValue.Number, Valid: true}
		default:
			lastText = sql.NullString{String: h.LastValue.Text, Valid: true}
		}
	}

	lastMeasured := sql.NullTime{}
	if h.LastMeasuredAt != nil {
		lastMeasured = sql.NullTime{Time: h.LastMeasuredAt.UTC(), Valid: true}
	}
	historyChanged := sql.NullTime{}
	if h.HistoryChangedAt != nil {
		historyChanged = sql.NullTime{Time: h.HistoryChangedAt.UTC(), Valid: true}
	}

	stateTopic := sql.NullString{}
	commandTopic := sql.NullString{}
	deviceID := sql.NullString{}
	deviceName := sql.NullString{}
	if h.MQTT != nil {
		stateTopic = sql.NullString{String: h.MQTT.StateTopic, Valid: true}
		commandTopic = sql.NullString{String: h.MQTT.CommandTopic, Valid: true}
		deviceID = sql.NullString{String: h.MQTT.DeviceID, Valid: true}
		deviceName = sql.NullString{String: h.MQTT.DeviceName, Valid: true}
	}

	return []any{
		h.Slug,
		h.Name,
		string(h.Kind),
		string(h.Transport),
		options,
		h.Unit,
		h.StateClass,
		lastBool,
		lastNumeric,
		lastText,
		lastMeasured,
		h.HistoryCursor,
		historyChanged,
		string(h.StatisticsMode),
		stateTopic,
		commandTopic,
		deviceID,
		deviceName,
		h.CreatedAt.UTC(),
		h.UpdatedAt.UTC(),
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHelper(row rowScanner) (*helper.Helper, error) {
	var (
		h              helper.Helper
		kind           string
		transport      string
		options        sql.NullString
		lastBool       sql.NullBool
		lastNumeric    sql.NullFloat64
		lastText       sql.NullString
		lastMeasured   sql.NullTime
		historyChanged sql.NullTime
		statisticsMode string
		stateTopic     sql.NullString
		commandTopic   sql.NullString
		deviceID       sql.NullString
		deviceName     sql.NullString
	)
	if err := row.Scan(
		&h.Slug,
		&h.Name,
		&kind,
		&transport,
		&options,
		&h.Unit,
		&h.StateClass,
		&lastBool,
		&lastNumeric,
		&lastText,
		&lastMeasured,
		&h.HistoryCursor,
		&historyChanged,
		&statisticsMode,
		&stateTopic,
		&commandTopic,
		&deviceID,
		&deviceName,
		&h.CreatedAt,
		&h.UpdatedAt,
	); err != nil {
		return nil, err
	}

	h.Kind = helper.Kind(kind)
	h.Transport = helper.Transport(transport)
	h.StatisticsMode = helper.StatisticsMode(statisticsMode)
	h.CreatedAt = h.CreatedAt.UTC()
	h.UpdatedAt = h.UpdatedAt.UTC()

	if options.Valid && options.String != "" {
		if err := json.Unmarshal([]byte(options.String), &h.Options); err != nil {
			return nil, err
		}
	}

	switch {
	case lastBool.Valid:
		h.LastValue = &helper.Value{Kind: helper.KindBoolean, Bool: lastBool.Bool}
	case lastNumeric.Valid:
		h.LastValue = &helper.Value{Kind: helper.KindNumber, Number: lastNumeric.Float64}
	case lastText.Valid:
		h.LastValue = &helper.Value{Kind: h.Kind, Text: lastText.String}
	}
	if lastMeasured.Valid {
		t := lastMeasured.Time.UTC()
		h.LastMeasuredAt = &t
	}
	if historyChanged.Valid {
		t := historyChanged.Time.UTC()
		h.HistoryChangedAt = &t
	}
	if h.Transport == helper.TransportMQTT {
		h.MQTT = &helper.MQTTSettings{
			StateTopic:   stateTopic.String,
			CommandTopic: commandTopic.String,
			DeviceID:     deviceID.String,
			DeviceName:   deviceName.String,
		}
	}
	return &h, nil
}
