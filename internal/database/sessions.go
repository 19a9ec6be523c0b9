package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pirouette/internal/models"
)

func (db *DB) CreateProgramSessions(ctx context.Context, sessions []models.ProgramSession) error {
	if len(sessions) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO program_sessions (program_id, session_date, session_time, duration_minutes)
         VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range sessions {
		s := &sessions[i]
		result, err := stmt.ExecContext(ctx, s.ProgramID, s.Date, s.Time, s.DurationMinutes)
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}
		if s.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
	}

	return tx.Commit()
}

func (db *DB) GetSessionByID(ctx context.Context, id int64) (*models.ProgramSession, error) {
	query := `SELECT id, program_id, session_date, session_time, duration_minutes, created_at
              FROM program_sessions WHERE id = ?`
	var s models.ProgramSession
	err := db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.ProgramID, &s.Date, &s.Time, &s.DurationMinutes, &s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

func (db *DB) GetSessionsByProgram(ctx context.Context, programID int64) ([]*models.ProgramSession, error) {
	query := `SELECT id, program_id, session_date, session_time, duration_minutes, created_at
              FROM program_sessions WHERE program_id = ?
              ORDER BY session_date ASC, session_time ASC`
	return db.querySessions(ctx, query, programID)
}

// GetFutureSessions возвращает занятия программы не раньше from.
func (db *DB) GetFutureSessions(ctx context.Context, programID int64, from time.Time) ([]*models.ProgramSession, error) {
	query := `SELECT id, program_id, session_date, session_time, duration_minutes, created_at
              FROM program_sessions WHERE program_id = ? AND session_date >= ?
              ORDER BY session_date ASC, session_time ASC`
	return db.querySessions(ctx, query, programID, truncateToDay(from))
}

func (db *DB) querySessions(ctx context.Context, query string, args ...interface{}) ([]*models.ProgramSession, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.ProgramSession
	for rows.Next() {
		var s models.ProgramSession
		if err := rows.Scan(&s.ID, &s.ProgramID, &s.Date, &s.Time, &s.DurationMinutes, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}

// CountSessionParticipants считает подтверждённые записи на конкретную
// дату: разовые посещения плюс занятия из абонементов.
func (db *DB) CountSessionParticipants(ctx context.Context, sessionID int64) (int, error) {
	query := `SELECT
                (SELECT COUNT(*) FROM bookings b
                 JOIN applications a ON a.id = b.application_id
                 WHERE a.session_id = ? AND b.status = ?)
              + (SELECT COUNT(*) FROM booking_sessions bs
                 JOIN bookings b ON b.id = bs.booking_id
                 WHERE bs.session_id = ? AND b.status = ?)`
	var count int
	err := db.QueryRowContext(ctx, query,
		sessionID, models.BookingStatusConfirmed,
		sessionID, models.BookingStatusConfirmed,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count session participants: %w", err)
	}
	return count, nil
}
