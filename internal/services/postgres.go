package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"

	"github.com/PlateWatch-ANPR/Ingest-Service/internal/models"
)

// PostgresLedger is the self-hosted ledger backend: an append-only
// plate_records table. No update or delete path exists.
type PostgresLedger struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgresLedger connects, verifies the connection and ensures the
// ledger table exists.
func NewPostgresLedger(connectionString string, timeout time.Duration) (*PostgresLedger, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %v", err)
	}

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %v", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	l := &PostgresLedger{db: db, timeout: timeout}
	if err := l.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	log.Println("[DB] connected to PostgreSQL successfully")
	return l, nil
}

func (l *PostgresLedger) createTables() error {
	query := `
    CREATE TABLE IF NOT EXISTS plate_records (
        id BIGSERIAL PRIMARY KEY,
        record_date VARCHAR(10) NOT NULL,
        record_time VARCHAR(8) NOT NULL,
        image_url VARCHAR(500) NOT NULL,
        plate VARCHAR(50) NOT NULL,
        created_at TIMESTAMPTZ DEFAULT NOW()
    );
    `
	if _, err := l.db.Exec(query); err != nil {
		return err
	}

	indexQuery := `
    CREATE INDEX IF NOT EXISTS idx_plate_records_date ON plate_records(record_date);
    CREATE INDEX IF NOT EXISTS idx_plate_records_plate ON plate_records(plate);
    `
	_, err := l.db.Exec(indexQuery)
	return err
}

// Append inserts one ledger row. Insertion order is the ledger order.
func (l *PostgresLedger) Append(ctx context.Context, row models.LedgerRow) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO plate_records (record_date, record_time, image_url, plate) VALUES ($1, $2, $3, $4)`,
		row.Date, row.Time, row.URL, row.Plate)
	if err != nil {
		return fmt.Errorf("failed to append plate record: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (l *PostgresLedger) Close() error {
	return l.db.Close()
}
