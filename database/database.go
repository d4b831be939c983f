package database

import (
	"database/sql"
	"fmt"
	"time"

	"ecoadvisor-service/config"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"
)

// connectAttempts bounds the startup ping retries. History is an optional
// feature, so an unreachable database fails Open instead of blocking forever.
const connectAttempts = 5

// Database is the optional MySQL analysis-history store.
type Database struct {
	db *sql.DB
}

// AnalysisRecord is one persisted analysis.
type AnalysisRecord struct {
	ID           int64     `json:"id"`
	Source       string    `json:"source"`
	Prompt       string    `json:"prompt"`
	RawText      string    `json:"raw_text"`
	SectionsJSON string    `json:"sections_json"`
	ImageSize    int       `json:"image_size"`
	MimeType     string    `json:"mime_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewDatabase opens a connection to the history database.
func NewDatabase(cfg *config.Config) (*Database, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection with exponential backoff retry
	var waitInterval = 1 * time.Second
	var pingErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if pingErr = db.Ping(); pingErr == nil {
			break
		}
		if attempt == connectAttempts {
			db.Close()
			return nil, fmt.Errorf("failed to ping database after %d attempts: %w", connectAttempts, pingErr)
		}
		log.Warnf("Database connection failed, retrying in %v: %v", waitInterval, pingErr)
		time.Sleep(waitInterval)
		waitInterval *= 2
	}

	// Set connection pool settings
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Database{db: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// GetDB returns the underlying sql.DB
func (d *Database) GetDB() *sql.DB {
	return d.db
}

// CreateAnalysisHistoryTable creates the analysis_history table if it doesn't exist
func (d *Database) CreateAnalysisHistoryTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS analysis_history (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		source VARCHAR(64) NOT NULL,
		prompt TEXT,
		raw_text MEDIUMTEXT,
		sections_json MEDIUMTEXT,
		image_size INT NOT NULL DEFAULT 0,
		mime_type VARCHAR(64) NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_analysis_history_source (source),
		INDEX idx_analysis_history_created_at (created_at)
	)`

	if _, err := d.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create analysis_history table: %w", err)
	}
	return nil
}

// SaveAnalysis inserts one analysis record and returns its id.
func (d *Database) SaveAnalysis(rec *AnalysisRecord) (int64, error) {
	result, err := d.db.Exec(`
		INSERT INTO analysis_history (source, prompt, raw_text, sections_json, image_size, mime_type)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Source, rec.Prompt, rec.RawText, rec.SectionsJSON, rec.ImageSize, rec.MimeType,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted id: %w", err)
	}
	return id, nil
}

// GetAnalysisByID returns a single analysis record.
func (d *Database) GetAnalysisByID(id int64) (*AnalysisRecord, error) {
	var rec AnalysisRecord
	err := d.db.QueryRow(`
		SELECT id, source, prompt, raw_text, sections_json, image_size, mime_type, created_at
		FROM analysis_history
		WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Source, &rec.Prompt, &rec.RawText, &rec.SectionsJSON,
		&rec.ImageSize, &rec.MimeType, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListRecent returns the most recent analysis records, newest first.
func (d *Database) ListRecent(limit int) ([]*AnalysisRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.db.Query(`
		SELECT id, source, prompt, raw_text, sections_json, image_size, mime_type, created_at
		FROM analysis_history
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis history: %w", err)
	}
	defer rows.Close()

	var records []*AnalysisRecord
	for rows.Next() {
		var rec AnalysisRecord
		if err := rows.Scan(&rec.ID, &rec.Source, &rec.Prompt, &rec.RawText, &rec.SectionsJSON,
			&rec.ImageSize, &rec.MimeType, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis row: %w", err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// GetStats returns the total number of analyses and a per-source breakdown.
func (d *Database) GetStats() (int, map[string]int, error) {
	var total int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM analysis_history").Scan(&total); err != nil {
		return 0, nil, fmt.Errorf("failed to count analyses: %w", err)
	}

	rows, err := d.db.Query(`
		SELECT source, COUNT(*) as count
		FROM analysis_history
		GROUP BY source`)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to query per-source stats: %w", err)
	}
	defer rows.Close()

	bySource := make(map[string]int)
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return 0, nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		bySource[source] = count
	}
	return total, bySource, rows.Err()
}
