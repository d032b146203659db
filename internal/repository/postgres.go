package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"busline/internal/domain/bookings"
	"busline/internal/domain/fleet"
	"busline/internal/domain/tracking"
	"busline/internal/domain/trips"
	"busline/internal/domain/users"
)

// PostgresStore is the durable Store implementation. Unlike the memory
// store it keeps full location history; the latest-per-bus lookup goes
// through an index instead.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// LockSchedule takes a transaction-scoped advisory lock on the schedule id.
// The lock is held by a dedicated transaction, so it serializes admission
// across every service instance sharing the database, not just within this
// process. Release commits that transaction, which is what frees the lock.
func (s *PostgresStore) LockSchedule(ctx context.Context, scheduleID int64) (func(), error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, scheduleID); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to lock schedule %d: %w", scheduleID, err)
	}
	return func() { _ = tx.Commit() }, nil
}

// Users

func (s *PostgresStore) CreateUser(ctx context.Context, u users.User) (*users.User, error) {
	query := `
		INSERT INTO users (username, password_hash, name, email, phone, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := s.db.QueryRowContext(ctx, query,
		u.Username, u.PasswordHash, u.Name, u.Email, u.Phone, u.Role,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) User(ctx context.Context, id int64) (*users.User, error) {
	var u users.User
	err := s.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = $1`, id)
	return &u, wrapNotFound(err)
}

func (s *PostgresStore) UserByUsername(ctx context.Context, username string) (*users.User, error) {
	var u users.User
	err := s.db.GetContext(ctx, &u, `SELECT * FROM users WHERE LOWER(username) = LOWER($1)`, username)
	return &u, wrapNotFound(err)
}

func (s *PostgresStore) UserByEmail(ctx context.Context, email string) (*users.User, error) {
	var u users.User
	err := s.db.GetContext(ctx, &u, `SELECT * FROM users WHERE LOWER(email) = LOWER($1)`, email)
	return &u, wrapNotFound(err)
}

func (s *PostgresStore) UsersByRole(ctx context.Context, role users.Role) ([]users.User, error) {
	var out []users.User
	err := s.db.SelectContext(ctx, &out, `SELECT * FROM users WHERE role = $1 ORDER BY id`, role)
	return out, err
}

// Buses

func (s *PostgresStore) CreateBus(ctx context.Context, b fleet.Bus) (*fleet.Bus, error) {
	query := `
		INSERT INTO buses (owner_id, name, bus_number, capacity, has_ac, has_wifi, has_usb, seat_layout)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := s.db.QueryRowContext(ctx, query,
		b.OwnerID, b.Name, b.BusNumber, b.Capacity, b.HasAC, b.HasWifi, b.HasUSB, []byte(b.SeatLayout),
	).Scan(&b.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create bus: %w", err)
	}
	return &b, nil
}

func (s *PostgresStore) Bus(ctx context.Context, id int64) (*fleet.Bus, error) {
	var b fleet.Bus
	err := s.db.GetContext(ctx, &b, `SELECT * FROM buses WHERE id = $1`, id)
	return &b, wrapNotFound(err)
}

func (s *PostgresStore) BusesByOwner(ctx context.Context, ownerID int64) ([]fleet.Bus, error) {
	var out []fleet.Bus
	err := s.db.SelectContext(ctx, &out, `SELECT * FROM buses WHERE owner_id = $1 ORDER BY id`, ownerID)
	return out, err
}

func (s *PostgresStore) UpdateBus(ctx context.Context, id int64, upd BusUpdate) (*fleet.Bus, error) {
	var out *fleet.Bus
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var b fleet.Bus
		if err := tx.GetContext(ctx, &b, `SELECT * FROM buses WHERE id = $1 FOR UPDATE`, id); err != nil {
			return wrapNotFound(err)
		}
		if upd.Name != nil {
			b.Name = *upd.Name
		}
		if upd.BusNumber != nil {
			b.BusNumber = *upd.BusNumber
		}
		if upd.Capacity != nil {
			b.Capacity = *upd.Capacity
		}
		if upd.HasAC != nil {
			b.HasAC = *upd.HasAC
		}
		if upd.HasWifi != nil {
			b.HasWifi = *upd.HasWifi
		}
		if upd.HasUSB != nil {
			b.HasUSB = *upd.HasUSB
		}
		if upd.SeatLayout != nil {
			b.SeatLayout = upd.SeatLayout
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE buses
			SET name = $1, bus_number = $2, capacity = $3, has_ac = $4,
				has_wifi = $5, has_usb = $6, seat_layout = $7
			WHERE id = $8`,
			b.Name, b.BusNumber, b.Capacity, b.HasAC, b.HasWifi, b.HasUSB, []byte(b.SeatLayout), id,
		)
		out = &b
		return err
	})
	return out, err
}

func (s *PostgresStore) DeleteBus(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "buses", id)
}

// Routes

func (s *PostgresStore) CreateRoute(ctx context.Context, r trips.Route) (*trips.Route, error) {
	query := `
		INSERT INTO routes (from_location, to_location, distance_km, estimated_duration)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := s.db.QueryRowContext(ctx, query,
		r.FromLocation, r.ToLocation, r.DistanceKm, r.EstimatedDuration,
	).Scan(&r.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create route: %w", err)
	}
	return &r, nil
}

func (s *PostgresStore) Route(ctx context.Context, id int64) (*trips.Route, error) {
	var r trips.Route
	err := s.db.GetContext(ctx, &r, `SELECT * FROM routes WHERE id = $1`, id)
	return &r, wrapNotFound(err)
}

func (s *PostgresStore) Routes(ctx context.Context) ([]trips.Route, error) {
	var out []trips.Route
	err := s.db.SelectContext(ctx, &out, `SELECT * FROM routes ORDER BY id`)
	return out, err
}

func (s *PostgresStore) RouteByLocations(ctx context.Context, from, to string) (*trips.Route, error) {
	var r trips.Route
	err := s.db.GetContext(ctx, &r, `
		SELECT * FROM routes
		WHERE LOWER(from_location) = LOWER($1) AND LOWER(to_location) = LOWER($2)
		LIMIT 1`, from, to)
	return &r, wrapNotFound(err)
}

// Schedules

func (s *PostgresStore) CreateSchedule(ctx context.Context, sc trips.Schedule) (*trips.Schedule, error) {
	query := `
		INSERT INTO schedules (bus_id, route_id, departure_time, arrival_time, price, available)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := s.db.QueryRowContext(ctx, query,
		sc.BusID, sc.RouteID, sc.DepartureTime, sc.ArrivalTime, sc.Price, sc.Available,
	).Scan(&sc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}
	return &sc, nil
}

func (s *PostgresStore) Schedule(ctx context.Context, id int64) (*trips.Schedule, error) {
	var sc trips.Schedule
	err := s.db.GetContext(ctx, &sc, `SELECT * FROM schedules WHERE id = $1`, id)
	return &sc, wrapNotFound(err)
}

func (s *PostgresStore) SchedulesByBus(ctx context.Context, busID int64) ([]trips.Schedule, error) {
	var out []trips.Schedule
	err := s.db.SelectContext(ctx, &out, `SELECT * FROM schedules WHERE bus_id = $1 ORDER BY id`, busID)
	return out, err
}

func (s *PostgresStore) SchedulesByRoute(ctx context.Context, routeID int64) ([]trips.Schedule, error) {
	var out []trips.Schedule
	err := s.db.SelectContext(ctx, &out, `SELECT * FROM schedules WHERE route_id = $1 ORDER BY id`, routeID)
	return out, err
}

func (s *PostgresStore) SearchSchedules(ctx context.Context, from, to string, day time.Time) ([]trips.ScheduleDetails, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24*time.Hour - time.Nanosecond)

	rows, err := s.db.QueryContext(ctx, `
		SELECT
			s.id, s.bus_id, s.route_id, s.departure_time, s.arrival_time, s.price, s.available,
			b.id, b.owner_id, b.name, b.bus_number, b.capacity, b.has_ac, b.has_wifi, b.has_usb, b.seat_layout,
			r.id, r.from_location, r.to_location, r.distance_km, r.estimated_duration
		FROM schedules s
		JOIN buses b ON b.id = s.bus_id
		JOIN routes r ON r.id = s.route_id
		WHERE LOWER(r.from_location) = LOWER($1)
			AND LOWER(r.to_location) = LOWER($2)
			AND s.departure_time BETWEEN $3 AND $4
			AND s.available
		ORDER BY s.departure_time`,
		from, to, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []trips.ScheduleDetails
	for rows.Next() {
		var d trips.ScheduleDetails
		var layout []byte
		err := rows.Scan(
			&d.ID, &d.Schedule.BusID, &d.Schedule.RouteID, &d.DepartureTime, &d.ArrivalTime, &d.Price, &d.Available,
			&d.Bus.ID, &d.Bus.OwnerID, &d.Bus.Name, &d.Bus.BusNumber, &d.Bus.Capacity, &d.Bus.HasAC, &d.Bus.HasWifi, &d.Bus.HasUSB, &layout,
			&d.Route.ID, &d.Route.FromLocation, &d.Route.ToLocation, &d.Route.DistanceKm, &d.Route.EstimatedDuration,
		)
		if err != nil {
			return nil, err
		}
		d.Bus.SeatLayout = layout
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateSchedule(ctx context.Context, id int64, upd ScheduleUpdate) (*trips.Schedule, error) {
	var out *trips.Schedule
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var sc trips.Schedule
		if err := tx.GetContext(ctx, &sc, `SELECT * FROM schedules WHERE id = $1 FOR UPDATE`, id); err != nil {
			return wrapNotFound(err)
		}
		if upd.BusID != nil {
			sc.BusID = *upd.BusID
		}
		if upd.RouteID != nil {
			sc.RouteID = *upd.RouteID
		}
		if upd.DepartureTime != nil {
			sc.DepartureTime = *upd.DepartureTime
		}
		if upd.ArrivalTime != nil {
			sc.ArrivalTime = *upd.ArrivalTime
		}
		if upd.Price != nil {
			sc.Price = *upd.Price
		}
		if upd.Available != nil {
			sc.Available = *upd.Available
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE schedules
			SET bus_id = $1, route_id = $2, departure_time = $3, arrival_time = $4, price = $5, available = $6
			WHERE id = $7`,
			sc.BusID, sc.RouteID, sc.DepartureTime, sc.ArrivalTime, sc.Price, sc.Available, id,
		)
		out = &sc
		return err
	})
	return out, err
}

func (s *PostgresStore) DeleteSchedule(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "schedules", id)
}

// Bookings

func (s *PostgresStore) CreateBooking(ctx context.Context, b bookings.Booking) (*bookings.Booking, error) {
	query := `
		INSERT INTO bookings (user_id, schedule_id, seats, total_price, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, booking_time`

	err := s.db.QueryRowContext(ctx, query,
		b.UserID, b.ScheduleID, pq.Array(b.Seats), b.TotalPrice, b.Status,
	).Scan(&b.ID, &b.BookingTime)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	return &b, nil
}

func (s *PostgresStore) Booking(ctx context.Context, id int64) (*bookings.Booking, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, schedule_id, seats, total_price, status, booking_time
		FROM bookings WHERE id = $1`, id)
	return scanBooking(row)
}

func (s *PostgresStore) BookingsByUser(ctx context.Context, userID int64) ([]bookings.BookingDetails, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			b.id, b.user_id, b.schedule_id, b.seats, b.total_price, b.status, b.booking_time,
			s.id, s.bus_id, s.route_id, s.departure_time, s.arrival_time, s.price, s.available,
			bus.id, bus.owner_id, bus.name, bus.bus_number, bus.capacity, bus.has_ac, bus.has_wifi, bus.has_usb, bus.seat_layout,
			r.id, r.from_location, r.to_location, r.distance_km, r.estimated_duration
		FROM bookings b
		JOIN schedules s ON s.id = b.schedule_id
		JOIN buses bus ON bus.id = s.bus_id
		JOIN routes r ON r.id = s.route_id
		WHERE b.user_id = $1
		ORDER BY b.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []bookings.BookingDetails
	for rows.Next() {
		var d bookings.BookingDetails
		var seats pq.StringArray
		var layout []byte
		err := rows.Scan(
			&d.ID, &d.UserID, &d.Booking.ScheduleID, &seats, &d.TotalPrice, &d.Status, &d.BookingTime,
			&d.Schedule.ID, &d.Schedule.BusID, &d.Schedule.RouteID, &d.Schedule.DepartureTime, &d.Schedule.ArrivalTime, &d.Schedule.Price, &d.Schedule.Available,
			&d.Bus.ID, &d.Bus.OwnerID, &d.Bus.Name, &d.Bus.BusNumber, &d.Bus.Capacity, &d.Bus.HasAC, &d.Bus.HasWifi, &d.Bus.HasUSB, &layout,
			&d.Route.ID, &d.Route.FromLocation, &d.Route.ToLocation, &d.Route.DistanceKm, &d.Route.EstimatedDuration,
		)
		if err != nil {
			return nil, err
		}
		d.Seats = seats
		d.Bus.SeatLayout = layout
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) BookingsBySchedule(ctx context.Context, scheduleID int64) ([]bookings.Booking, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, schedule_id, seats, total_price, status, booking_time
		FROM bookings WHERE schedule_id = $1
		ORDER BY id`, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []bookings.Booking
	for rows.Next() {
		var b bookings.Booking
		var seats pq.StringArray
		if err := rows.Scan(&b.ID, &b.UserID, &b.ScheduleID, &seats, &b.TotalPrice, &b.Status, &b.BookingTime); err != nil {
			return nil, err
		}
		b.Seats = seats
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateBookingStatus(ctx context.Context, id int64, status bookings.Status) (*bookings.Booking, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE bookings SET status = $1 WHERE id = $2
		RETURNING id, user_id, schedule_id, seats, total_price, status, booking_time`,
		status, id)
	return scanBooking(row)
}

// Locations

func (s *PostgresStore) CreateLocationUpdate(ctx context.Context, u tracking.LocationUpdate) (*tracking.LocationUpdate, error) {
	query := `
		INSERT INTO location_updates (bus_id, latitude, longitude, speed)
		VALUES ($1, $2, $3, $4)
		RETURNING id, timestamp`

	err := s.db.QueryRowContext(ctx, query,
		u.BusID, u.Latitude, u.Longitude, u.Speed,
	).Scan(&u.ID, &u.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to create location update: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) LatestLocation(ctx context.Context, busID int64) (*tracking.LocationUpdate, error) {
	var u tracking.LocationUpdate
	err := s.db.GetContext(ctx, &u, `
		SELECT * FROM location_updates
		WHERE bus_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT 1`, busID)
	return &u, wrapNotFound(err)
}

// Reviews

func (s *PostgresStore) CreateReview(ctx context.Context, r fleet.Review) (*fleet.Review, error) {
	query := `
		INSERT INTO reviews (user_id, bus_id, schedule_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, timestamp`

	err := s.db.QueryRowContext(ctx, query,
		r.UserID, r.BusID, r.ScheduleID, r.Rating, r.Comment,
	).Scan(&r.ID, &r.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return &r, nil
}

func (s *PostgresStore) ReviewsByBus(ctx context.Context, busID int64) ([]fleet.Review, error) {
	var out []fleet.Review
	err := s.db.SelectContext(ctx, &out, `SELECT * FROM reviews WHERE bus_id = $1 ORDER BY id`, busID)
	return out, err
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PostgresStore) deleteByID(ctx context.Context, table string, id int64) error {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanBooking(row *sql.Row) (*bookings.Booking, error) {
	var b bookings.Booking
	var seats pq.StringArray
	err := row.Scan(&b.ID, &b.UserID, &b.ScheduleID, &seats, &b.TotalPrice, &b.Status, &b.BookingTime)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	b.Seats = seats
	return &b, nil
}

func wrapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
