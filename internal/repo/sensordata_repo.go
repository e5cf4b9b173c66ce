package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/routepulse/server/internal/model"
)

// CreateSensorData is one telemetry sample of a bulk upload.
type CreateSensorData struct {
	TimestampOffsetMs  int      `json:"timestamp_offset_ms"`
	AccelX             *float64 `json:"accel_x"`
	AccelY             *float64 `json:"accel_y"`
	AccelZ             *float64 `json:"accel_z"`
	GyroX              *float64 `json:"gyro_x"`
	GyroY              *float64 `json:"gyro_y"`
	GyroZ              *float64 `json:"gyro_z"`
	OrientationAzimuth *float64 `json:"orientation_azimuth"`
	OrientationPitch   *float64 `json:"orientation_pitch"`
	OrientationRoll    *float64 `json:"orientation_roll"`
	SpeedKmh           *float64 `json:"speed_kmh"`
	GForce             *float64 `json:"g_force"`
	InclinationDegrees *float64 `json:"inclination_degrees"`
	SoundDb            *float64 `json:"sound_db"`
	NearbyDevices      *int     `json:"nearby_devices"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
	Altitude           *float64 `json:"altitude"`
}

// SensorDataRepo defines the interface for sensor data repository operations
type SensorDataRepo interface {
	Create(ctx context.Context, scoreID uuid.UUID, d CreateSensorData) (model.SensorData, error)

	// CreateBatch inserts all samples for one score inside a single
	// transaction: if any row insert fails the whole batch is rolled back.
	CreateBatch(ctx context.Context, scoreID uuid.UUID, batch []CreateSensorData) (int, error)

	ListByScore(ctx context.Context, scoreID uuid.UUID) ([]model.SensorData, error)
}

type sensorDataRepo struct {
	db *sql.DB
}

// NewSensorDataRepo creates a new SensorDataRepo instance
func NewSensorDataRepo(db *sql.DB) SensorDataRepo {
	return &sensorDataRepo{db: db}
}

const sensorDataInsert = `
	INSERT INTO sensor_data (
		score_id, timestamp_offset_ms, accel_x, accel_y, accel_z,
		gyro_x, gyro_y, gyro_z, orientation_azimuth, orientation_pitch, orientation_roll,
		speed_kmh, g_force, inclination_degrees, sound_db, nearby_devices,
		latitude, longitude, altitude
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

const sensorDataColumns = `id, score_id, timestamp_offset_ms, accel_x, accel_y, accel_z,
	gyro_x, gyro_y, gyro_z, orientation_azimuth, orientation_pitch, orientation_roll,
	speed_kmh, g_force, inclination_degrees, sound_db, nearby_devices,
	latitude, longitude, altitude`

// Create inserts a single sample.
func (r *sensorDataRepo) Create(ctx context.Context, scoreID uuid.UUID, d CreateSensorData) (model.SensorData, error) {
	query := sensorDataInsert + `
		RETURNING ` + sensorDataColumns
	sd, err := scanSensorData(r.db.QueryRowContext(ctx, query, sensorDataArgs(scoreID, d)...))
	if err != nil {
		return model.SensorData{}, fmt.Errorf("failed to insert sensor data: %w", err)
	}
	return sd, nil
}

func (r *sensorDataRepo) CreateBatch(ctx context.Context, scoreID uuid.UUID, batch []CreateSensorData) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, sensorDataInsert)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i, d := range batch {
		if _, err := stmt.ExecContext(ctx, sensorDataArgs(scoreID, d)...); err != nil {
			return 0, fmt.Errorf("failed to insert sensor data row %d: %w", i, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sensor data batch: %w", err)
	}
	return inserted, nil
}

// ListByScore returns all samples of a score ordered by their offset.
func (r *sensorDataRepo) ListByScore(ctx context.Context, scoreID uuid.UUID) ([]model.SensorData, error) {
	query := `SELECT ` + sensorDataColumns + `
		FROM sensor_data
		WHERE score_id = $1
		ORDER BY timestamp_offset_ms`
	rows, err := r.db.QueryContext(ctx, query, scoreID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sensor data: %w", err)
	}
	defer rows.Close()

	samples := []model.SensorData{}
	for rows.Next() {
		sd, err := scanSensorData(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sensor data: %w", err)
		}
		samples = append(samples, sd)
	}
	return samples, rows.Err()
}

func sensorDataArgs(scoreID uuid.UUID, d CreateSensorData) []any {
	return []any{
		scoreID, d.TimestampOffsetMs, d.AccelX, d.AccelY, d.AccelZ,
		d.GyroX, d.GyroY, d.GyroZ, d.OrientationAzimuth, d.OrientationPitch, d.OrientationRoll,
		d.SpeedKmh, d.GForce, d.InclinationDegrees, d.SoundDb, d.NearbyDevices,
		d.Latitude, d.Longitude, d.Altitude,
	}
}

func scanSensorData(row rowScanner) (model.SensorData, error) {
	var sd model.SensorData
	var idStr, scoreStr string
	err := row.Scan(
		&idStr, &scoreStr, &sd.TimestampOffsetMs, &sd.AccelX, &sd.AccelY, &sd.AccelZ,
		&sd.GyroX, &sd.GyroY, &sd.GyroZ, &sd.OrientationAzimuth, &sd.OrientationPitch, &sd.OrientationRoll,
		&sd.SpeedKmh, &sd.GForce, &sd.InclinationDegrees, &sd.SoundDb, &sd.NearbyDevices,
		&sd.Latitude, &sd.Longitude, &sd.Altitude,
	)
	if err != nil {
		return model.SensorData{}, err
	}
	if sd.ID, err = uuid.Parse(idStr); err != nil {
		return model.SensorData{}, fmt.Errorf("failed to parse sensor data ID: %w", err)
	}
	if sd.ScoreID, err = uuid.Parse(scoreStr); err != nil {
		return model.SensorData{}, fmt.Errorf("failed to parse score ID: %w", err)
	}
	return sd, nil
}
