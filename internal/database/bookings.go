package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pirouette/internal/models"
)

const bookingColumns = `id, application_id, program_id, user_id, user_name, user_phone,
        amount, status, payment_status, attended, notes, created_at, updated_at`

// CreateBookingFromApplication создаёт запись из оплаченной заявки в
// одной транзакции. Повторная подтверждённая запись пользователя на ту
// же программу отклоняется с ErrDuplicateBooking.
func (db *DB) CreateBookingFromApplication(ctx context.Context, a *models.Application) (*models.Booking, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if a.UserID != nil {
		var count int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM bookings WHERE program_id = ? AND user_id = ? AND status = ?`,
			a.ProgramID, *a.UserID, models.BookingStatusConfirmed,
		).Scan(&count)
		if err != nil {
			return nil, fmt.Errorf("failed to check duplicate booking: %w", err)
		}
		if count > 0 {
			return nil, ErrDuplicateBooking
		}
	}

	now := time.Now()
	booking := &models.Booking{
		ApplicationID: a.ID,
		ProgramID:     a.ProgramID,
		UserID:        a.UserID,
		UserName:      a.UserName,
		UserPhone:     a.UserPhone,
		Amount:        a.Amount,
		Status:        models.BookingStatusConfirmed,
		PaymentStatus: models.PaymentStatusPaid,
		Notes:         a.UserNotes,
		SessionIDs:    a.SessionIDs,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (
            application_id, program_id, user_id, user_name, user_phone,
            amount, status, payment_status, attended, notes, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		booking.ApplicationID,
		booking.ProgramID,
		booking.UserID,
		booking.UserName,
		booking.UserPhone,
		booking.Amount,
		booking.Status,
		booking.PaymentStatus,
		booking.Notes,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	if booking.ID, err = result.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	for _, sessionID := range a.SessionIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO booking_sessions (booking_id, session_id) VALUES (?, ?)`,
			booking.ID, sessionID,
		); err != nil {
			return nil, fmt.Errorf("failed to attach booking session: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit booking: %w", err)
	}
	return booking, nil
}

func (db *DB) GetBookingByID(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	b.SessionIDs, err = db.GetBookingSessionIDs(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (db *DB) GetAllBookings(ctx context.Context) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at ASC`
	return db.queryBookings(ctx, query)
}

func (db *DB) GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE user_id = ? AND status = ? ORDER BY created_at ASC`
	return db.queryBookings(ctx, query, userID, models.BookingStatusConfirmed)
}

func (db *DB) GetProgramBookings(ctx context.Context, programID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE program_id = ? AND status = ? ORDER BY created_at ASC`
	return db.queryBookings(ctx, query, programID, models.BookingStatusConfirmed)
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, b := range bookings {
		if b.SessionIDs, err = db.GetBookingSessionIDs(ctx, b.ID); err != nil {
			return nil, err
		}
	}
	return bookings, nil
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var userID sql.NullInt64
	var notes sql.NullString
	err := row.Scan(
		&b.ID, &b.ApplicationID, &b.ProgramID, &userID, &b.UserName, &b.UserPhone,
		&b.Amount, &b.Status, &b.PaymentStatus, &b.Attended, &notes, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		b.UserID = &userID.Int64
	}
	b.Notes = notes.String
	return &b, nil
}

func (db *DB) GetBookingSessionIDs(ctx context.Context, bookingID int64) ([]int64, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT bs.session_id FROM booking_sessions bs
         JOIN program_sessions ps ON ps.id = bs.session_id
         WHERE bs.booking_id = ?
         ORDER BY ps.session_date ASC, ps.session_time ASC`,
		bookingID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query booking sessions: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan booking session: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
