package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/christopherklint97/hourbridge/internal/reconcile"
)

// Upload is one journal row: what happened to one entry in one upload run.
type Upload struct {
	ID        int
	RunID     string
	Day       string
	Index     int
	Status    string
	ProjectID int64
	TaskID    int64
	Hours     float64
	Notes     string
	Error     string
	CreatedAt time.Time
}

// RecordOutcome appends o to the journal.
func (db *DB) RecordOutcome(runID, day string, o reconcile.Outcome) error {
	var projectID, taskID sql.NullInt64
	if o.Classification.ProjectID != 0 {
		projectID = sql.NullInt64{Int64: o.Classification.ProjectID, Valid: true}
	}
	if o.Classification.TaskID != 0 {
		taskID = sql.NullInt64{Int64: o.Classification.TaskID, Valid: true}
	}
	var errText sql.NullString
	if o.Err != nil {
		errText = sql.NullString{String: o.Err.Error(), Valid: true}
	}

	_, err := db.Exec(
		`INSERT INTO uploads (run_id, day, entry_index, status, project_id, task_id, hours, notes, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, day, o.Index, o.Status.String(), projectID, taskID, o.Hours, o.Notes, errText,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording upload: %w", err)
	}
	return nil
}

func (db *DB) UploadsForDay(day string) ([]Upload, error) {
	return db.queryUploads(
		`SELECT id, run_id, day, entry_index, status, project_id, task_id, hours, notes, error, created_at
		 FROM uploads
		 WHERE day = ?
		 ORDER BY id ASC`,
		day,
	)
}

// FailedUploads lists entries whose latest journal row is a failed
// submission, oldest first.
func (db *DB) FailedUploads() ([]Upload, error) {
	return db.queryUploads(
		`SELECT u.id, u.run_id, u.day, u.entry_index, u.status, u.project_id, u.task_id, u.hours, u.notes, u.error, u.created_at
		 FROM uploads u
		 WHERE u.id = (SELECT MAX(id) FROM uploads WHERE day = u.day AND entry_index = u.entry_index)
		   AND u.status = ?
		 ORDER BY u.day ASC, u.entry_index ASC`,
		reconcile.UploadFailed.String(),
	)
}

func (db *DB) queryUploads(query string, args ...interface{}) ([]Upload, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying uploads: %w", err)
	}
	defer rows.Close()

	var uploads []Upload
	for rows.Next() {
		var u Upload
		var projectID, taskID sql.NullInt64
		var errText sql.NullString
		var createdStr string

		if err := rows.Scan(
			&u.ID, &u.RunID, &u.Day, &u.Index, &u.Status, &projectID, &taskID,
			&u.Hours, &u.Notes, &errText, &createdStr,
		); err != nil {
			return nil, fmt.Errorf("scanning upload: %w", err)
		}

		u.ProjectID = projectID.Int64
		u.TaskID = taskID.Int64
		u.Error = errText.String
		if t, err := time.Parse(time.RFC3339, createdStr); err == nil {
			u.CreatedAt = t
		}

		uploads = append(uploads, u)
	}

	return uploads, rows.Err()
}
