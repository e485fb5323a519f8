package db

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"feedbacksense/ml"
)

var database *sql.DB

// ErrNotInitialized is returned when InitDB has not been called.
var ErrNotInitialized = errors.New("database not initialized")

// InitDB opens the SQLite database and creates the artifact load table.
func InitDB(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS artifact_loads (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        preprocessor_path TEXT NOT NULL,
        classifier_path TEXT NOT NULL,
        preprocessor_sha256 TEXT DEFAULT '',
        classifier_sha256 TEXT DEFAULT '',
        classifier_kind TEXT DEFAULT '',
        loaded INTEGER NOT NULL,
        error TEXT DEFAULT '',
        loaded_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_artifact_loads_loaded_at ON artifact_loads(loaded_at);
    `
	if _, err := conn.Exec(query); err != nil {
		conn.Close()
		return err
	}
	database = conn
	return nil
}

// Enabled reports whether InitDB succeeded.
func Enabled() bool {
	return database != nil
}

func Close() error {
	if database == nil {
		return nil
	}
	err := database.Close()
	database = nil
	return err
}

// RecordArtifactLoad appends one startup load outcome.
func RecordArtifactLoad(report ml.LoadReport) error {
	if database == nil {
		return ErrNotInitialized
	}
	loadedAt := report.LoadedAt
	if loadedAt.IsZero() {
		loadedAt = time.Now()
	}
	_, err := database.Exec(`
        INSERT INTO artifact_loads (
            preprocessor_path, classifier_path, preprocessor_sha256, classifier_sha256,
            classifier_kind, loaded, error, loaded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.PreprocessorPath, report.ClassifierPath,
		report.PreprocessorSHA256, report.ClassifierSHA256,
		report.ClassifierKind, report.Loaded, report.Error, loadedAt.UTC(),
	)
	return err
}

// QueryArtifactLoads returns the most recent loads, newest first.
func QueryArtifactLoads(limit int) ([]ml.LoadReport, error) {
	if database == nil {
		return nil, ErrNotInitialized
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := database.Query(`
        SELECT preprocessor_path, classifier_path, preprocessor_sha256, classifier_sha256,
               classifier_kind, loaded, error, loaded_at
        FROM artifact_loads
        ORDER BY loaded_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []ml.LoadReport
	for rows.Next() {
		var r ml.LoadReport
		if err := rows.Scan(
			&r.PreprocessorPath, &r.ClassifierPath,
			&r.PreprocessorSHA256, &r.ClassifierSHA256,
			&r.ClassifierKind, &r.Loaded, &r.Error, &r.LoadedAt,
		); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
