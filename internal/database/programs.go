package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pirouette/internal/models"
)

const programColumns = `id, type, title, description, start_date, end_date, schedule,
        max_participants, current_participants, price, single_price, status,
        duration_minutes, group_link, created_at, updated_at`

func (db *DB) CreateProgram(ctx context.Context, p *models.Program) error {
	query := `INSERT INTO programs (
                type, title, description, start_date, end_date, schedule,
                max_participants, current_participants, price, single_price,
                status, duration_minutes, group_link, created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		p.Type,
		p.Title,
		p.Description,
		p.StartDate,
		p.EndDate,
		p.Schedule,
		p.MaxParticipants,
		p.CurrentParticipants,
		p.Price,
		p.SinglePrice,
		p.Status,
		p.DurationMinutes,
		p.GroupLink,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create program: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now

	return nil
}

func (db *DB) GetProgramByID(ctx context.Context, id int64) (*models.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs WHERE id = ?`
	p, err := scanProgram(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	return p, nil
}

func (db *DB) GetActivePrograms(ctx context.Context) ([]*models.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs
              WHERE status = ? ORDER BY start_date ASC, id ASC`
	return db.queryPrograms(ctx, query, models.ProgramStatusActive)
}

func (db *DB) GetProgramsByType(ctx context.Context, programType string) ([]*models.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs
              WHERE status = ? AND type = ? ORDER BY start_date ASC, id ASC`
	return db.queryPrograms(ctx, query, models.ProgramStatusActive, programType)
}

func (db *DB) queryPrograms(ctx context.Context, query string, args ...interface{}) ([]*models.Program, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query programs: %w", err)
	}
	defer rows.Close()

	var programs []*models.Program
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan program: %w", err)
		}
		programs = append(programs, p)
	}
	return programs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProgram(row rowScanner) (*models.Program, error) {
	var p models.Program
	var description, schedule, groupLink sql.NullString
	var endDate sql.NullTime
	var singlePrice sql.NullInt64
	err := row.Scan(
		&p.ID, &p.Type, &p.Title, &description, &p.StartDate, &endDate, &schedule,
		&p.MaxParticipants, &p.CurrentParticipants, &p.Price, &singlePrice, &p.Status,
		&p.DurationMinutes, &groupLink, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Description = description.String
	p.Schedule = schedule.String
	p.GroupLink = groupLink.String
	if endDate.Valid {
		p.EndDate = &endDate.Time
	}
	if singlePrice.Valid {
		p.SinglePrice = &singlePrice.Int64
	}
	return &p, nil
}

func (db *DB) UpdateProgramStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE programs SET status = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update program status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDeleteProgram скрывает программу, оставляя историю заявок.
func (db *DB) SoftDeleteProgram(ctx context.Context, id int64) error {
	return db.UpdateProgramStatus(ctx, id, models.ProgramStatusDeleted)
}

// IncrementParticipants увеличивает счётчик участников, не превышая максимум.
func (db *DB) IncrementParticipants(ctx context.Context, id int64) error {
	query := `UPDATE programs
              SET current_participants = current_participants + 1, updated_at = ?
              WHERE id = ? AND current_participants < max_participants`
	if _, err := db.ExecContext(ctx, query, time.Now(), id); err != nil {
		return fmt.Errorf("failed to increment participants: %w", err)
	}
	return nil
}

// CompletePastIntensives переводит закончившиеся интенсивы в completed.
// Возвращает количество обновлённых программ.
func (db *DB) CompletePastIntensives(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE programs SET status = ?, updated_at = ?
              WHERE type = ? AND status = ? AND end_date IS NOT NULL AND end_date < ?`
	result, err := db.ExecContext(ctx, query,
		models.ProgramStatusCompleted,
		now,
		models.ProgramTypeIntensive,
		models.ProgramStatusActive,
		truncateToDay(now),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to complete past intensives: %w", err)
	}
	return result.RowsAffected()
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
