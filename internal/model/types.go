package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Challenge statuses.
const (
	ChallengeStatusPending   = "pending"
	ChallengeStatusActive    = "active"
	ChallengeStatusCompleted = "completed"
)

// Friendship statuses.
const (
	FriendshipStatusPending  = "pending"
	FriendshipStatusAccepted = "accepted"
	FriendshipStatusRejected = "rejected"
)

// User represents a registered user. PasswordHash never leaves the repo/auth layers.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Route represents a recorded route owned by its creator.
type Route struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	Name           string          `json:"name"`
	Description    *string         `json:"description"`
	IsPublic       bool            `json:"is_public"`
	PathData       json.RawMessage `json:"path_data"`
	DistanceMeters *float64        `json:"distance_meters"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Score is a single timed run on a route. Immutable once created.
type Score struct {
	ID                    uuid.UUID `json:"id"`
	RouteID               uuid.UUID `json:"route_id"`
	UserID                uuid.UUID `json:"user_id"`
	TimeSeconds           float64   `json:"time_seconds"`
	MaxSpeedKmh           *float64  `json:"max_speed_kmh"`
	AvgSpeedKmh           *float64  `json:"avg_speed_kmh"`
	MaxGForce             *float64  `json:"max_g_force"`
	MaxInclinationDegrees *float64  `json:"max_inclination_degrees"`
	MaxSoundDb            *float64  `json:"max_sound_db"`
	CreatedAt             time.Time `json:"created_at"`
}

// Challenge is a timed contest between two users on a route.
// ChallengedID == nil denotes an open challenge any user may accept.
type Challenge struct {
	ID             uuid.UUID  `json:"id"`
	RouteID        uuid.UUID  `json:"route_id"`
	ChallengerID   uuid.UUID  `json:"challenger_id"`
	ChallengedID   *uuid.UUID `json:"challenged_id"`
	Status         string     `json:"status"`
	ChallengerTime *float64   `json:"challenger_time"`
	ChallengedTime *float64   `json:"challenged_time"`
	WinnerID       *uuid.UUID `json:"winner_id"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at"`
}

// Friendship is a directed edge; accepting only flips this edge's status.
type Friendship struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	FriendID  uuid.UUID `json:"friend_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// FriendInfo is the joined view returned by friend listings.
type FriendInfo struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Status   string    `json:"status"`
}

// SensorData is one telemetry sample tied to a score. All channels optional.
type SensorData struct {
	ID                 uuid.UUID `json:"id"`
	ScoreID            uuid.UUID `json:"score_id"`
	TimestampOffsetMs  int       `json:"timestamp_offset_ms"`
	AccelX             *float64  `json:"accel_x"`
	AccelY             *float64  `json:"accel_y"`
	AccelZ             *float64  `json:"accel_z"`
	GyroX              *float64  `json:"gyro_x"`
	GyroY              *float64  `json:"gyro_y"`
	GyroZ              *float64  `json:"gyro_z"`
	OrientationAzimuth *float64  `json:"orientation_azimuth"`
	OrientationPitch   *float64  `json:"orientation_pitch"`
	OrientationRoll    *float64  `json:"orientation_roll"`
	SpeedKmh           *float64  `json:"speed_kmh"`
	GForce             *float64  `json:"g_force"`
	InclinationDegrees *float64  `json:"inclination_degrees"`
	SoundDb            *float64  `json:"sound_db"`
	NearbyDevices      *int      `json:"nearby_devices"`
	Latitude           *float64  `json:"latitude"`
	Longitude          *float64  `json:"longitude"`
	Altitude           *float64  `json:"altitude"`
}

// Post is a plain CRUD entity with no business rules.
type Post struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
}

// LeaderboardEntry is one row of a best-per-user ranking.
type LeaderboardEntry struct {
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	TimeSeconds float64   `json:"time_seconds"`
	MaxSpeedKmh *float64  `json:"max_speed_kmh"`
	CreatedAt   time.Time `json:"created_at"`
}
