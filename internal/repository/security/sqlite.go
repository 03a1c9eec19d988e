package security

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Registers the "sqlite" database/sql driver.

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// sqliteSchema creates the tables on first open. Sensor rows keep their
// insertion order through the autoincrement position column.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sensors (
	position INTEGER PRIMARY KEY AUTOINCREMENT,
	name     TEXT    NOT NULL,
	type     TEXT    NOT NULL,
	active   INTEGER NOT NULL DEFAULT 0,
	UNIQUE (name, type)
);

CREATE TABLE IF NOT EXISTS settings (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	arming_status TEXT    NOT NULL,
	alarm_status  TEXT    NOT NULL,
	cat_displayed INTEGER NOT NULL,
	sensor_status INTEGER NOT NULL,
	updated_at    TEXT    NOT NULL
);

INSERT OR IGNORE INTO settings (id, arming_status, alarm_status, cat_displayed, sensor_status, updated_at)
VALUES (1, 'DISARMED', 'NO_ALARM', 0, 0, '');
`

// SQLiteRepository implements the engine's state store on a SQLite database.
type SQLiteRepository struct {
	// db is the database handle.
	db *sql.DB
	// now stamps updated_at on every write.
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path and bootstraps the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite has a single writer; one connection avoids SQLITE_BUSY between our own calls.
	db.SetMaxOpenConns(1)

	if _, err = db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteRepository{
		db:  db,
		now: time.Now,
	}, nil
}

// Close closes the database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// AddSensor inserts the sensor, replacing the active flag of one with the same identity.
func (r *SQLiteRepository) AddSensor(ctx context.Context, sensor *domain.Sensor) error {
	return r.UpdateSensor(ctx, sensor)
}

// RemoveSensor deletes the sensor with the same identity.
func (r *SQLiteRepository) RemoveSensor(ctx context.Context, sensor *domain.Sensor) error {
	const query = `DELETE FROM sensors WHERE name = ? AND type = ?`

	if _, err := r.db.ExecContext(ctx, query, sensor.Name, sensor.Type.String()); err != nil {
		return fmt.Errorf("delete sensor: %w", err)
	}

	return r.touch(ctx)
}

// UpdateSensor upserts the sensor by identity.
func (r *SQLiteRepository) UpdateSensor(ctx context.Context, sensor *domain.Sensor) error {
	const query = `
		INSERT INTO sensors (name, type, active) VALUES (?, ?, ?)
		ON CONFLICT (name, type) DO UPDATE SET active = excluded.active`

	if _, err := r.db.ExecContext(ctx, query, sensor.Name, sensor.Type.String(), sensor.Active); err != nil {
		return fmt.Errorf("upsert sensor: %w", err)
	}

	return r.touch(ctx)
}

// Sensors returns the sensor set in insertion order.
func (r *SQLiteRepository) Sensors(ctx context.Context) ([]*domain.Sensor, error) {
	const query = `SELECT name, type, active FROM sensors ORDER BY position`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query sensors: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	var sensors []*domain.Sensor

	for rows.Next() {
		var (
			sensor   domain.Sensor
			typeName string
		)

		if err = rows.Scan(&sensor.Name, &typeName, &sensor.Active); err != nil {
			return nil, fmt.Errorf("scan sensor: %w", err)
		}

		if sensor.Type, err = domain.ParseSensorType(typeName); err != nil {
			return nil, err
		}

		sensors = append(sensors, &sensor)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sensors: %w", err)
	}

	return sensors, nil
}

// AlarmStatus returns the persisted alarm status.
func (r *SQLiteRepository) AlarmStatus(ctx context.Context) (domain.AlarmStatus, error) {
	var name string
	if err := r.scanSetting(ctx, "alarm_status", &name); err != nil {
		return 0, err
	}

	return domain.ParseAlarmStatus(name)
}

// SetAlarmStatus persists the alarm status.
func (r *SQLiteRepository) SetAlarmStatus(ctx context.Context, status domain.AlarmStatus) error {
	return r.setSetting(ctx, "alarm_status", status.String())
}

// ArmingStatus returns the persisted arming status.
func (r *SQLiteRepository) ArmingStatus(ctx context.Context) (domain.ArmingStatus, error) {
	var name string
	if err := r.scanSetting(ctx, "arming_status", &name); err != nil {
		return 0, err
	}

	return domain.ParseArmingStatus(name)
}

// SetArmingStatus persists the arming status.
func (r *SQLiteRepository) SetArmingStatus(ctx context.Context, status domain.ArmingStatus) error {
	return r.setSetting(ctx, "arming_status", status.String())
}

// CatDisplayed returns the last classifier verdict.
func (r *SQLiteRepository) CatDisplayed(ctx context.Context) (bool, error) {
	var displayed bool
	if err := r.scanSetting(ctx, "cat_displayed", &displayed); err != nil {
		return false, err
	}

	return displayed, nil
}

// SetCatDisplayed persists the last classifier verdict.
func (r *SQLiteRepository) SetCatDisplayed(ctx context.Context, displayed bool) error {
	return r.setSetting(ctx, "cat_displayed", displayed)
}

// ChangeSensorStatus persists the store-level sensor status flag.
func (r *SQLiteRepository) ChangeSensorStatus(ctx context.Context, status bool) error {
	return r.setSetting(ctx, "sensor_status", status)
}

// State reads every persisted field.
func (r *SQLiteRepository) State(ctx context.Context) (*domain.State, error) {
	const query = `
		SELECT arming_status, alarm_status, cat_displayed, sensor_status, updated_at
		FROM settings WHERE id = 1`

	state := domain.NewState()

	var arming, alarm, stamp string

	err := r.db.QueryRowContext(ctx, query).
		Scan(&arming, &alarm, &state.CatDisplayed, &state.SensorStatus, &stamp)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}

	if state.ArmingStatus, err = domain.ParseArmingStatus(arming); err != nil {
		return nil, err
	}

	if state.AlarmStatus, err = domain.ParseAlarmStatus(alarm); err != nil {
		return nil, err
	}

	if stamp != "" {
		if state.UpdatedAt, err = time.Parse(time.RFC3339Nano, stamp); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
	}

	if state.Sensors, err = r.Sensors(ctx); err != nil {
		return nil, err
	}

	return state, nil
}

// scanSetting reads one column of the settings row. column is never user input.
func (r *SQLiteRepository) scanSetting(ctx context.Context, column string, dest any) error {
	query := "SELECT " + column + " FROM settings WHERE id = 1" //nolint:gosec // Column names are constants.

	err := r.db.QueryRowContext(ctx, query).Scan(dest)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("settings row missing: %w", err)
	}

	if err != nil {
		return fmt.Errorf("query %s: %w", column, err)
	}

	return nil
}

// setSetting writes one column of the settings row and stamps updated_at.
func (r *SQLiteRepository) setSetting(ctx context.Context, column string, value any) error {
	query := "UPDATE settings SET " + column + " = ?, updated_at = ? WHERE id = 1" //nolint:gosec // Column names are constants.

	if _, err := r.db.ExecContext(ctx, query, value, r.timestamp()); err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}

	return nil
}

// touch stamps updated_at after a sensor write.
func (r *SQLiteRepository) touch(ctx context.Context) error {
	const query = `UPDATE settings SET updated_at = ? WHERE id = 1`

	if _, err := r.db.ExecContext(ctx, query, r.timestamp()); err != nil {
		return fmt.Errorf("update updated_at: %w", err)
	}

	return nil
}

func (r *SQLiteRepository) timestamp() string {
	return r.now().UTC().Format(time.RFC3339Nano)
}
