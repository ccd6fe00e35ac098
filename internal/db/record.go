package db

import (
	"database/sql"
	"fmt"

	"github.com/moostools/mlint/internal/analysis"
)

// RecordFile stores one analysis result for path, replacing any earlier
// rows for the same file. It reports whether the file was new to the
// index.
func RecordFile(sqlDB *sql.DB, path string, res *analysis.Result) (bool, error) {
	errs, warns := res.Diagnostics.Count()

	tx, err := sqlDB.Begin()
	if err != nil {
		return false, fmt.Errorf("beginning record of %s: %w", path, err)
	}
	defer tx.Rollback()

	var fileID int64
	isNew := false
	err = tx.QueryRow(`SELECT id FROM files WHERE file_path = ?`, path).Scan(&fileID)
	switch {
	case err == sql.ErrNoRows:
		result, err := tx.Exec(
			`INSERT INTO files (file_path, errors, warnings) VALUES (?, ?, ?)`,
			path, errs, warns)
		if err != nil {
			return false, fmt.Errorf("inserting %s: %w", path, err)
		}
		fileID, err = result.LastInsertId()
		if err != nil {
			return false, fmt.Errorf("reading id of %s: %w", path, err)
		}
		isNew = true
	case err != nil:
		return false, fmt.Errorf("querying %s: %w", path, err)
	default:
		_, err = tx.Exec(
			`UPDATE files SET errors = ?, warnings = ?, analyzed_at = datetime('now') WHERE id = ?`,
			errs, warns, fileID)
		if err != nil {
			return false, fmt.Errorf("updating %s: %w", path, err)
		}
		if _, err := tx.Exec(`DELETE FROM diagnostics WHERE file_id = ?`, fileID); err != nil {
			return false, fmt.Errorf("clearing diagnostics of %s: %w", path, err)
		}
		if _, err := tx.Exec(`DELETE FROM includes WHERE file_id = ?`, fileID); err != nil {
			return false, fmt.Errorf("clearing includes of %s: %w", path, err)
		}
	}

	for _, d := range res.Diagnostics.Items() {
		_, err := tx.Exec(
			`INSERT INTO diagnostics (file_id, severity, code, message, line, col) VALUES (?, ?, ?, ?, ?, ?)`,
			fileID, d.Severity.String(), string(d.Code), d.Message, d.Range.Start.Line, d.Range.Start.Col)
		if err != nil {
			return false, fmt.Errorf("inserting diagnostic of %s: %w", path, err)
		}
	}
	for _, l := range res.Links {
		resolved := 0
		if l.Resolved {
			resolved = 1
		}
		_, err := tx.Exec(
			`INSERT INTO includes (file_id, path, tag, resolved) VALUES (?, ?, ?, ?)`,
			fileID, l.Path, l.Tag, resolved)
		if err != nil {
			return false, fmt.Errorf("inserting include of %s: %w", path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing record of %s: %w", path, err)
	}
	return isNew, nil
}

// StoredDiagnostic is one indexed diagnostic row.
type StoredDiagnostic struct {
	Severity string
	Code     string
	Message  string
	Line     int
	Col      int
}

// FileDiagnostics returns the stored diagnostics for path in insertion
// order.
func FileDiagnostics(sqlDB *sql.DB, path string) ([]StoredDiagnostic, error) {
	rows, err := sqlDB.Query(`
		SELECT d.severity, d.code, d.message, d.line, d.col
		FROM diagnostics d
		JOIN files f ON d.file_id = f.id
		WHERE f.file_path = ?
		ORDER BY d.id
	`, path)
	if err != nil {
		return nil, fmt.Errorf("querying diagnostics of %s: %w", path, err)
	}
	defer rows.Close()

	var out []StoredDiagnostic
	for rows.Next() {
		var d StoredDiagnostic
		if err := rows.Scan(&d.Severity, &d.Code, &d.Message, &d.Line, &d.Col); err != nil {
			return nil, fmt.Errorf("scanning diagnostic row: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
