package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pirouette/internal/models"
)

const applicationColumns = `id, program_id, user_id, user_name, user_phone, user_notes,
        payment_method, amount, status, admin_notes, session_id, session_ids,
        created_at, updated_at`

func (db *DB) CreateApplication(ctx context.Context, a *models.Application) error {
	sessionIDs, err := encodeSessionIDs(a.SessionIDs)
	if err != nil {
		return err
	}

	query := `INSERT INTO applications (
                program_id, user_id, user_name, user_phone, user_notes,
                payment_method, amount, status, admin_notes, session_id, session_ids,
                created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		a.ProgramID,
		a.UserID,
		a.UserName,
		a.UserPhone,
		a.UserNotes,
		a.PaymentMethod,
		a.Amount,
		a.Status,
		a.AdminNotes,
		a.SessionID,
		sessionIDs,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	if a.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	a.CreatedAt = now
	a.UpdatedAt = now

	return nil
}

func (db *DB) GetApplicationByID(ctx context.Context, id int64) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = ?`
	a, err := scanApplication(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return a, nil
}

func (db *DB) GetPendingApplications(ctx context.Context) ([]*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications
              WHERE status = ? ORDER BY created_at ASC`
	return db.queryApplications(ctx, query, models.ApplicationStatusPending)
}

func (db *DB) GetAllApplications(ctx context.Context) ([]*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications ORDER BY created_at ASC`
	return db.queryApplications(ctx, query)
}

func (db *DB) queryApplications(ctx context.Context, query string, args ...interface{}) ([]*models.Application, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	var applications []*models.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		applications = append(applications, a)
	}
	return applications, rows.Err()
}

func scanApplication(row rowScanner) (*models.Application, error) {
	var a models.Application
	var userNotes, paymentMethod, adminNotes, sessionIDs sql.NullString
	var userID, sessionID sql.NullInt64
	err := row.Scan(
		&a.ID, &a.ProgramID, &userID, &a.UserName, &a.UserPhone, &userNotes,
		&paymentMethod, &a.Amount, &a.Status, &adminNotes, &sessionID, &sessionIDs,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.UserNotes = userNotes.String
	a.PaymentMethod = paymentMethod.String
	a.AdminNotes = adminNotes.String
	if userID.Valid {
		a.UserID = &userID.Int64
	}
	if sessionID.Valid {
		a.SessionID = &sessionID.Int64
	}
	if sessionIDs.Valid && sessionIDs.String != "" {
		if err := json.Unmarshal([]byte(sessionIDs.String), &a.SessionIDs); err != nil {
			return nil, fmt.Errorf("failed to decode session ids: %w", err)
		}
	}
	return &a, nil
}

func (db *DB) UpdateApplicationStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE applications SET status = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update application status: %w", err)
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

func encodeSessionIDs(ids []int64) (interface{}, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session ids: %w", err)
	}
	return string(raw), nil
}
