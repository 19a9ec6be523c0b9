package database

import (
	"context"
	"fmt"

	"pirouette/internal/models"
)

// ApplicationStats сводка по заявкам.
type ApplicationStats struct {
	Total    int
	Pending  int
	Approved int
	Paid     int
	Rejected int
	Amount   int64
}

// BookingStats сводка по подтверждённым записям.
type BookingStats struct {
	Total  int
	Amount int64
}

// TypeStats разбивка записей по типам программ. Разовые посещения и
// абонементы открытых групп считаются отдельно.
type TypeStats struct {
	Group      int
	Individual int
	OpenSingle int
	OpenFull   int
	Intensive  int
}

func (db *DB) GetApplicationStats(ctx context.Context) (*ApplicationStats, error) {
	query := `SELECT
                COUNT(*),
                SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END),
                SUM(CASE WHEN status = 'approved' THEN 1 ELSE 0 END),
                SUM(CASE WHEN status = 'paid' THEN 1 ELSE 0 END),
                SUM(CASE WHEN status = 'rejected' THEN 1 ELSE 0 END),
                COALESCE(SUM(CASE WHEN status = 'paid' THEN amount ELSE 0 END), 0)
              FROM applications`
	var s ApplicationStats
	err := db.QueryRowContext(ctx, query).Scan(
		&s.Total, &s.Pending, &s.Approved, &s.Paid, &s.Rejected, &s.Amount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get application stats: %w", err)
	}
	return &s, nil
}

func (db *DB) GetBookingStats(ctx context.Context) (*BookingStats, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM bookings WHERE status = ?`
	var s BookingStats
	err := db.QueryRowContext(ctx, query, models.BookingStatusConfirmed).Scan(&s.Total, &s.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}
	return &s, nil
}

func (db *DB) GetTypeStats(ctx context.Context) (*TypeStats, error) {
	query := `SELECT p.type, b.amount, p.single_price
              FROM bookings b
              JOIN programs p ON p.id = b.program_id
              WHERE b.status = ?`
	rows, err := db.QueryContext(ctx, query, models.BookingStatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to get type stats: %w", err)
	}
	defer rows.Close()

	var s TypeStats
	for rows.Next() {
		var programType string
		var amount int64
		var singlePrice *int64
		if err := rows.Scan(&programType, &amount, &singlePrice); err != nil {
			return nil, fmt.Errorf("failed to scan type stats: %w", err)
		}
		switch programType {
		case models.ProgramTypeGroup:
			s.Group++
		case models.ProgramTypeIndividual:
			s.Individual++
		case models.ProgramTypeIntensive:
			s.Intensive++
		case models.ProgramTypeOpenGroup:
			// Разовое посещение отличается от абонемента суммой.
			if singlePrice != nil && amount == *singlePrice {
				s.OpenSingle++
			} else {
				s.OpenFull++
			}
		}
	}
	return &s, rows.Err()
}
