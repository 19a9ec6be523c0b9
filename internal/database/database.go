package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound запись не найдена.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateBooking у пользователя уже есть подтверждённая запись
	// на эту программу.
	ErrDuplicateBooking = errors.New("duplicate booking")
)

type DB struct {
	*sql.DB
}

func NewDB(path string) (*DB, error) {
	// Создаем директорию для БД, если её нет
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %v", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	log.Printf("База данных инициализирована: %s", path)
	return &DB{DB: db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Таблица пользователей
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            telegram_id INTEGER UNIQUE NOT NULL,
            username TEXT,
            first_name TEXT,
            last_name TEXT,
            phone TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		// Таблица программ
		`CREATE TABLE IF NOT EXISTS programs (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            type TEXT NOT NULL,
            title TEXT NOT NULL,
            description TEXT,
            start_date DATETIME NOT NULL,
            end_date DATETIME,
            schedule TEXT,
            max_participants INTEGER NOT NULL DEFAULT 10,
            current_participants INTEGER NOT NULL DEFAULT 0,
            price INTEGER NOT NULL,
            single_price INTEGER,
            status TEXT NOT NULL DEFAULT 'active',
            duration_minutes INTEGER NOT NULL DEFAULT 90,
            group_link TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		// Даты занятий программ
		`CREATE TABLE IF NOT EXISTS program_sessions (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            program_id INTEGER NOT NULL,
            session_date DATETIME NOT NULL,
            session_time TEXT NOT NULL,
            duration_minutes INTEGER NOT NULL DEFAULT 90,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            FOREIGN KEY (program_id) REFERENCES programs(id)
        )`,
		// Заявки на запись
		`CREATE TABLE IF NOT EXISTS applications (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            program_id INTEGER NOT NULL,
            user_id INTEGER,
            user_name TEXT NOT NULL,
            user_phone TEXT NOT NULL,
            user_notes TEXT,
            payment_method TEXT,
            amount INTEGER NOT NULL DEFAULT 0,
            status TEXT NOT NULL DEFAULT 'pending',
            admin_notes TEXT,
            session_id INTEGER,
            session_ids TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            FOREIGN KEY (program_id) REFERENCES programs(id)
        )`,
		// Подтверждённые записи
		`CREATE TABLE IF NOT EXISTS bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            application_id INTEGER NOT NULL,
            program_id INTEGER NOT NULL,
            user_id INTEGER,
            user_name TEXT NOT NULL,
            user_phone TEXT NOT NULL,
            amount INTEGER NOT NULL DEFAULT 0,
            status TEXT NOT NULL DEFAULT 'confirmed',
            payment_status TEXT NOT NULL DEFAULT 'paid',
            attended BOOLEAN NOT NULL DEFAULT 0,
            notes TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            FOREIGN KEY (application_id) REFERENCES applications(id),
            FOREIGN KEY (program_id) REFERENCES programs(id)
        )`,
		// Занятия, входящие в абонемент
		`CREATE TABLE IF NOT EXISTS booking_sessions (
            booking_id INTEGER NOT NULL,
            session_id INTEGER NOT NULL,
            PRIMARY KEY (booking_id, session_id),
            FOREIGN KEY (booking_id) REFERENCES bookings(id),
            FOREIGN KEY (session_id) REFERENCES program_sessions(id)
        )`,
		// Очередь синхронизации с Google Sheets
		`CREATE TABLE IF NOT EXISTS sync_queue (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            task_type TEXT NOT NULL,
            application_id INTEGER NOT NULL,
            payload TEXT,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            processed_at DATETIME,
            next_retry_at DATETIME
        )`,

		`CREATE INDEX IF NOT EXISTS idx_users_telegram_id ON users(telegram_id)`,
		`CREATE INDEX IF NOT EXISTS idx_programs_status ON programs(status)`,
		`CREATE INDEX IF NOT EXISTS idx_programs_type ON programs(type)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_program_id ON program_sessions(program_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_date ON program_sessions(session_date)`,
		`CREATE INDEX IF NOT EXISTS idx_applications_status ON applications(status)`,
		`CREATE INDEX IF NOT EXISTS idx_applications_program_id ON applications(program_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_program_id ON bookings(program_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_queue_status ON sync_queue(status)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %v", query, err)
		}
	}
	return nil
}
