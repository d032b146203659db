package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// InitializeSchema creates the tables a fresh database needs. Statements are
// idempotent so the service can run it at every startup.
func InitializeSchema(ctx context.Context, db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			phone VARCHAR(64) NOT NULL DEFAULT '',
			role VARCHAR(32) NOT NULL DEFAULT 'passenger',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_username_idx ON users (LOWER(username))`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_idx ON users (LOWER(email))`,
		`CREATE TABLE IF NOT EXISTS buses (
			id BIGSERIAL PRIMARY KEY,
			owner_id BIGINT NOT NULL,
			name VARCHAR(255) NOT NULL,
			bus_number VARCHAR(64) NOT NULL,
			capacity INTEGER NOT NULL,
			has_ac BOOLEAN NOT NULL DEFAULT FALSE,
			has_wifi BOOLEAN NOT NULL DEFAULT FALSE,
			has_usb BOOLEAN NOT NULL DEFAULT FALSE,
			seat_layout JSONB NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS routes (
			id BIGSERIAL PRIMARY KEY,
			from_location VARCHAR(255) NOT NULL,
			to_location VARCHAR(255) NOT NULL,
			distance_km INTEGER NOT NULL DEFAULT 0,
			estimated_duration INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS schedules (
			id BIGSERIAL PRIMARY KEY,
			bus_id BIGINT NOT NULL,
			route_id BIGINT NOT NULL,
			departure_time TIMESTAMP WITH TIME ZONE NOT NULL,
			arrival_time TIMESTAMP WITH TIME ZONE NOT NULL,
			price BIGINT NOT NULL,
			available BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			schedule_id BIGINT NOT NULL,
			seats TEXT[] NOT NULL,
			total_price BIGINT NOT NULL,
			status VARCHAR(32) NOT NULL DEFAULT 'confirmed',
			booking_time TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS bookings_schedule_idx ON bookings (schedule_id)`,
		`CREATE TABLE IF NOT EXISTS location_updates (
			id BIGSERIAL PRIMARY KEY,
			bus_id BIGINT NOT NULL,
			latitude VARCHAR(64) NOT NULL,
			longitude VARCHAR(64) NOT NULL,
			speed INTEGER NOT NULL DEFAULT 0,
			timestamp TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS location_updates_bus_idx ON location_updates (bus_id, timestamp DESC)`,
		`CREATE TABLE IF NOT EXISTS reviews (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			bus_id BIGINT NOT NULL,
			schedule_id BIGINT NOT NULL,
			rating INTEGER NOT NULL,
			comment TEXT NOT NULL DEFAULT '',
			timestamp TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}
