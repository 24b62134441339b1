package security

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver.

	domain "github.com/oshokin/safehome/internal/domain/security"
	"github.com/oshokin/safehome/internal/geometry"
)

// SQLiteRepository persists the security core in an SQLite database file.
type SQLiteRepository struct {
	// db is the shared connection pool; SQLite allows a single writer.
	db *sql.DB
	// path is the database file location.
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS sensors (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	sensor_id INTEGER NOT NULL,
	x1 REAL NOT NULL,
	y1 REAL NOT NULL,
	x2 REAL NOT NULL DEFAULT 0,
	y2 REAL NOT NULL DEFAULT 0,
	is_on INTEGER NOT NULL DEFAULT 1,
	arm INTEGER,
	UNIQUE(kind, sensor_id)
);

CREATE TABLE IF NOT EXISTS security_zones (
	zone_id INTEGER PRIMARY KEY,
	is_enabled INTEGER NOT NULL,
	up_left_x REAL NOT NULL,
	up_left_y REAL NOT NULL,
	down_right_x REAL NOT NULL,
	down_right_y REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS security_modes (
	mode_id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS mode_sensors (
	mode_id INTEGER NOT NULL,
	position INTEGER NOT NULL,
	kind TEXT NOT NULL,
	sensor_id INTEGER NOT NULL,
	PRIMARY KEY (mode_id, position),
	FOREIGN KEY (mode_id) REFERENCES security_modes(mode_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS active_mode (
	singleton INTEGER PRIMARY KEY CHECK (singleton = 1),
	mode_index INTEGER
);

CREATE TABLE IF NOT EXISTS logs (
	log_id INTEGER PRIMARY KEY AUTOINCREMENT,
	date_time TEXT NOT NULL,
	description TEXT NOT NULL
);
`

// NewSQLiteRepository opens (creating if needed) the database at path.
// A freshly created database is seeded with the default floor plan.
func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	path = filepath.Clean(path)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite supports only one writer at a time.
	db.SetMaxOpenConns(1)

	repo := &SQLiteRepository{
		db:   db,
		path: path,
	}

	if err = repo.migrate(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return repo, nil
}

// Path returns the database file location.
func (r *SQLiteRepository) Path() string {
	return r.path
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	var sensors, modes int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sensors`).Scan(&sensors); err != nil {
		return fmt.Errorf("count sensors: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM security_modes`).Scan(&modes); err != nil {
		return fmt.Errorf("count modes: %w", err)
	}

	if sensors > 0 || modes > 0 {
		return nil
	}

	return r.seed(ctx)
}

// seed writes the default layout in one transaction.
func (r *SQLiteRepository) seed(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	seed := domain.DefaultSensors()
	for _, s := range seed {
		if err = insertSensor(ctx, tx, SensorRecord{Sensor: s, On: true}); err != nil {
			return err
		}
	}

	for _, m := range domain.DefaultModes(seed) {
		if err = insertMode(ctx, tx, m); err != nil {
			return err
		}
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO active_mode (singleton, mode_index) VALUES (1, NULL)`); err != nil {
		return fmt.Errorf("seed active mode: %w", err)
	}

	return tx.Commit()
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertSensor(ctx context.Context, ex execer, record SensorRecord) error {
	var (
		ref            = domain.RefOf(record.Sensor)
		x1, y1, x2, y2 float64
		area           = record.Sensor.Area()
	)

	if p, ok := area.Point(); ok {
		x1, y1 = p.X, p.Y
	} else if start, end, ok := area.Line(); ok {
		x1, y1, x2, y2 = start.X, start.Y, end.X, end.Y
	}

	_, err := ex.ExecContext(ctx, `
		INSERT INTO sensors (kind, sensor_id, x1, y1, x2, y2, is_on, arm)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ref.Kind.String(), ref.ID, x1, y1, x2, y2, record.On, nullableBool(record.Arm),
	)
	if err != nil {
		return fmt.Errorf("insert sensor %s: %w", ref, err)
	}

	return nil
}

func insertMode(ctx context.Context, ex execer, mode domain.ModeRecord) error {
	res, err := ex.ExecContext(ctx, `INSERT INTO security_modes (name) VALUES (?)`, mode.Name)
	if err != nil {
		return fmt.Errorf("insert security mode %q: %w", mode.Name, err)
	}

	modeID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("security mode id: %w", err)
	}

	return insertModeSensors(ctx, ex, modeID, mode.Sensors)
}

func insertModeSensors(ctx context.Context, ex execer, modeID int64, sensors []domain.SensorRef) error {
	for position, ref := range sensors {
		_, err := ex.ExecContext(ctx, `
			INSERT INTO mode_sensors (mode_id, position, kind, sensor_id) VALUES (?, ?, ?, ?)`,
			modeID, position, ref.Kind.String(), ref.ID,
		)
		if err != nil {
			return fmt.Errorf("insert mode sensor %s: %w", ref, err)
		}
	}

	return nil
}

// Sensors loads every sensor in registration order.
func (r *SQLiteRepository) Sensors(ctx context.Context) ([]SensorRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT kind, sensor_id, x1, y1, x2, y2, is_on, arm FROM sensors ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query sensors: %w", err)
	}
	defer rows.Close()

	var records []SensorRecord

	for rows.Next() {
		var (
			kindName       string
			id             int
			x1, y1, x2, y2 float64
			on             bool
			arm            sql.NullBool
		)

		if err = rows.Scan(&kindName, &id, &x1, &y1, &x2, &y2, &on, &arm); err != nil {
			return nil, fmt.Errorf("scan sensor: %w", err)
		}

		kind, err := domain.ParseSensorKind(kindName)
		if err != nil {
			return nil, err
		}

		area := geometry.NewPoint(x1, y1)
		if kind == domain.KindMotion {
			area = geometry.NewLine(geometry.Coord{X: x1, Y: y1}, geometry.Coord{X: x2, Y: y2})
		}

		sensor, err := domain.BuildSensor(domain.SensorRef{Kind: kind, ID: id}, area)
		if err != nil {
			return nil, err
		}

		record := SensorRecord{Sensor: sensor, On: on}
		if arm.Valid {
			record.Arm = BoolPtr(arm.Bool)
		}

		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sensors: %w", err)
	}

	return records, nil
}

// AddSensor stores a new sensor.
func (r *SQLiteRepository) AddSensor(ctx context.Context, record SensorRecord) error {
	return insertSensor(ctx, r.db, record)
}

// TurnOnOffSensor updates the power flag of a sensor.
func (r *SQLiteRepository) TurnOnOffSensor(ctx context.Context, ref domain.SensorRef, on bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE sensors SET is_on = ? WHERE kind = ? AND sensor_id = ?`,
		on, ref.Kind.String(), ref.ID)

	return checkAffected(res, err, "turn on/off sensor "+ref.String())
}

// RemoveSensor deletes a sensor and its mode memberships.
func (r *SQLiteRepository) RemoveSensor(ctx context.Context, ref domain.SensorRef) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin remove sensor: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM sensors WHERE kind = ? AND sensor_id = ?`, ref.Kind.String(), ref.ID)
	if err = checkAffected(res, err, "remove sensor "+ref.String()); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM mode_sensors WHERE kind = ? AND sensor_id = ?`,
		ref.Kind.String(), ref.ID); err != nil {
		return fmt.Errorf("remove mode sensors of %s: %w", ref, err)
	}

	return tx.Commit()
}

// UpdateSensor replaces the power flag and manual override of a sensor.
func (r *SQLiteRepository) UpdateSensor(ctx context.Context, ref domain.SensorRef, on bool, arm *bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE sensors SET is_on = ?, arm = ? WHERE kind = ? AND sensor_id = ?`,
		on, nullableBool(arm), ref.Kind.String(), ref.ID)

	return checkAffected(res, err, "update sensor "+ref.String())
}

// SecurityZones loads every zone ordered by id.
func (r *SQLiteRepository) SecurityZones(ctx context.Context) ([]domain.ZoneRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT zone_id, is_enabled, up_left_x, up_left_y, down_right_x, down_right_y
		FROM security_zones ORDER BY zone_id`)
	if err != nil {
		return nil, fmt.Errorf("query security zones: %w", err)
	}
	defer rows.Close()

	var zones []domain.ZoneRecord

	for rows.Next() {
		var zone domain.ZoneRecord

		if err = rows.Scan(
			&zone.ID,
			&zone.Enabled,
			&zone.Area.UpLeft.X,
			&zone.Area.UpLeft.Y,
			&zone.Area.DownRight.X,
			&zone.Area.DownRight.Y,
		); err != nil {
			return nil, fmt.Errorf("scan security zone: %w", err)
		}

		zones = append(zones, zone)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate security zones: %w", err)
	}

	return zones, nil
}

// AddSecurityZone stores a new zone under its id.
func (r *SQLiteRepository) AddSecurityZone(ctx context.Context, zone domain.ZoneRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO security_zones (zone_id, is_enabled, up_left_x, up_left_y, down_right_x, down_right_y)
		VALUES (?, ?, ?, ?, ?, ?)`,
		zone.ID, zone.Enabled, zone.Area.UpLeft.X, zone.Area.UpLeft.Y, zone.Area.DownRight.X, zone.Area.DownRight.Y,
	)
	if err != nil {
		return fmt.Errorf("insert security zone %d: %w", zone.ID, err)
	}

	return nil
}

// UpdateSecurityZone replaces the zone with the given id.
func (r *SQLiteRepository) UpdateSecurityZone(ctx context.Context, id int, zone domain.ZoneRecord) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE security_zones
		SET is_enabled = ?, up_left_x = ?, up_left_y = ?, down_right_x = ?, down_right_y = ?
		WHERE zone_id = ?`,
		zone.Enabled, zone.Area.UpLeft.X, zone.Area.UpLeft.Y, zone.Area.DownRight.X, zone.Area.DownRight.Y, id,
	)

	return checkAffected(res, err, fmt.Sprintf("update security zone %d", id))
}

// RemoveSecurityZone deletes the zone with the given id.
func (r *SQLiteRepository) RemoveSecurityZone(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM security_zones WHERE zone_id = ?`, id)

	return checkAffected(res, err, fmt.Sprintf("remove security zone %d", id))
}

// SecurityModes loads every mode in creation order with its sensors.
func (r *SQLiteRepository) SecurityModes(ctx context.Context) ([]domain.ModeRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.mode_id, m.name, s.kind, s.sensor_id
		FROM security_modes AS m
		LEFT JOIN mode_sensors AS s USING (mode_id)
		ORDER BY m.mode_id, s.position`)
	if err != nil {
		return nil, fmt.Errorf("query security modes: %w", err)
	}
	defer rows.Close()

	var (
		modes  []domain.ModeRecord
		lastID int64 = -1
	)

	for rows.Next() {
		var (
			modeID   int64
			name     string
			kindName sql.NullString
			sensorID sql.NullInt64
		)

		if err = rows.Scan(&modeID, &name, &kindName, &sensorID); err != nil {
			return nil, fmt.Errorf("scan security mode: %w", err)
		}

		if modeID != lastID {
			modes = append(modes, domain.ModeRecord{Name: name})
			lastID = modeID
		}

		if !kindName.Valid {
			continue
		}

		kind, err := domain.ParseSensorKind(kindName.String)
		if err != nil {
			return nil, err
		}

		last := &modes[len(modes)-1]
		last.Sensors = append(last.Sensors, domain.SensorRef{Kind: kind, ID: int(sensorID.Int64)})
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate security modes: %w", err)
	}

	return modes, nil
}

// ActiveSecurityMode returns the stored active mode index, nil when none.
func (r *SQLiteRepository) ActiveSecurityMode(ctx context.Context) (*int, error) {
	var index sql.NullInt64

	err := r.db.QueryRowContext(ctx, `SELECT mode_index FROM active_mode WHERE singleton = 1`).Scan(&index)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("query active security mode: %w", err)
	case !index.Valid:
		return nil, nil
	}

	return IntPtr(int(index.Int64)), nil
}

// SetActiveSecurityMode stores the active mode index.
func (r *SQLiteRepository) SetActiveSecurityMode(ctx context.Context, index *int) error {
	var value sql.NullInt64
	if index != nil {
		value = sql.NullInt64{Int64: int64(*index), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO active_mode (singleton, mode_index) VALUES (1, ?)
		ON CONFLICT (singleton) DO UPDATE SET mode_index = excluded.mode_index`, value)
	if err != nil {
		return fmt.Errorf("set active security mode: %w", err)
	}

	return nil
}

// AddSecurityMode stores a new mode.
func (r *SQLiteRepository) AddSecurityMode(ctx context.Context, mode domain.ModeRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add security mode: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	if err = insertMode(ctx, tx, mode); err != nil {
		return err
	}

	return tx.Commit()
}

// RemoveSecurityMode deletes the mode with the given name and its sensors.
func (r *SQLiteRepository) RemoveSecurityMode(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM security_modes WHERE name = ?`, name)

	return checkAffected(res, err, fmt.Sprintf("remove security mode %q", name))
}

// UpdateSecurityMode replaces the sensors of the mode with the given name.
func (r *SQLiteRepository) UpdateSecurityMode(ctx context.Context, name string, mode domain.ModeRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update security mode: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	var modeID int64

	err = tx.QueryRowContext(ctx, `SELECT mode_id FROM security_modes WHERE name = ?`, name).Scan(&modeID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update security mode %q: %w", name, ErrNotFound)
	}

	if err != nil {
		return fmt.Errorf("query security mode %q: %w", name, err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM mode_sensors WHERE mode_id = ?`, modeID); err != nil {
		return fmt.Errorf("clear security mode %q: %w", name, err)
	}

	if err = insertModeSensors(ctx, tx, modeID, mode.Sensors); err != nil {
		return err
	}

	return tx.Commit()
}

// SaveLog stores entry and assigns its id from the logs table.
func (r *SQLiteRepository) SaveLog(ctx context.Context, entry *domain.LogEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	res, err := r.db.ExecContext(ctx, `INSERT INTO logs (date_time, description) VALUES (?, ?)`,
		entry.Timestamp.Format(time.RFC3339Nano), entry.Description)
	if err != nil {
		return fmt.Errorf("insert log: %w", err)
	}

	if entry.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("log id: %w", err)
	}

	return nil
}

// Logs loads every log entry in insertion order.
func (r *SQLiteRepository) Logs(ctx context.Context) ([]domain.LogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT log_id, date_time, description FROM logs ORDER BY log_id`)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	var entries []domain.LogEntry

	for rows.Next() {
		var (
			entry     domain.LogEntry
			timestamp string
		)

		if err = rows.Scan(&entry.ID, &timestamp, &entry.Description); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}

		if entry.Timestamp, err = time.Parse(time.RFC3339Nano, timestamp); err != nil {
			return nil, fmt.Errorf("parse log time %q: %w", timestamp, err)
		}

		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate logs: %w", err)
	}

	return entries, nil
}

// checkAffected turns a zero-row update into ErrNotFound.
func checkAffected(res sql.Result, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return nil
}

func nullableBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}

	return sql.NullBool{Bool: *v, Valid: true}
}
