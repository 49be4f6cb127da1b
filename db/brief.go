package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const briefColumns = `id, user_id, title, missions, hard_skills, soft_skills, project_context, location,
	constraints, conversation_data, brief_summary, is_complete, generated_job_posting_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func scanBrief(row rowScanner) (*Brief, error) {
	var b Brief
	var missions, hardSkills, softSkills, constraints string
	var jobPostingID sql.NullString
	err := row.Scan(&b.ID, &b.UserID, &b.Title, &missions, &hardSkills, &softSkills, &b.ProjectContext, &b.Location,
		&constraints, &b.ConversationData, &b.BriefSummary, &b.IsComplete, &jobPostingID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Missions = decodeList(missions)
	b.HardSkills = decodeList(hardSkills)
	b.SoftSkills = decodeList(softSkills)
	b.Constraints = decodeList(constraints)
	b.GeneratedJobPostingID = jobPostingID.String
	return &b, nil
}

// CreateBrief inserts a new brief; the store assigns its ID and timestamps
func (db *DB) CreateBrief(b *Brief) (*Brief, error) {
	created := *b
	created.ID = uuid.NewString()
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt

	_, err := db.conn.Exec(
		`INSERT INTO briefs (`+briefColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID, created.UserID, created.Title,
		encodeList(created.Missions), encodeList(created.HardSkills), encodeList(created.SoftSkills),
		created.ProjectContext, created.Location, encodeList(created.Constraints),
		created.ConversationData, created.BriefSummary, created.IsComplete,
		nullString(created.GeneratedJobPostingID), created.CreatedAt, created.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create brief: %w", err)
	}

	return &created, nil
}

// UpdateBrief overwrites every field of an existing brief (last write wins)
func (db *DB) UpdateBrief(b *Brief) (*Brief, error) {
	result, err := db.conn.Exec(
		`UPDATE briefs SET title = ?, missions = ?, hard_skills = ?, soft_skills = ?, project_context = ?,
			location = ?, constraints = ?, conversation_data = ?, brief_summary = ?, is_complete = ?,
			generated_job_posting_id = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		b.Title, encodeList(b.Missions), encodeList(b.HardSkills), encodeList(b.SoftSkills), b.ProjectContext,
		b.Location, encodeList(b.Constraints), b.ConversationData, b.BriefSummary, b.IsComplete,
		nullString(b.GeneratedJobPostingID), time.Now(),
		b.ID, b.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update brief: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("failed to update brief %s: %w", b.ID, ErrNotFound)
	}

	return db.GetBrief(b.ID)
}

// GetBrief retrieves a brief by ID
func (db *DB) GetBrief(id string) (*Brief, error) {
	b, err := scanBrief(db.conn.QueryRow("SELECT "+briefColumns+" FROM briefs WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("brief %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get brief: %w", err)
	}
	return b, nil
}

// ListBriefs retrieves a user's briefs, newest first
func (db *DB) ListBriefs(userID string, limit, offset int) ([]*Brief, error) {
	rows, err := db.conn.Query(
		"SELECT "+briefColumns+" FROM briefs WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?",
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list briefs: %w", err)
	}
	defer rows.Close()

	var briefs []*Brief
	for rows.Next() {
		b, err := scanBrief(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan brief: %w", err)
		}
		briefs = append(briefs, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate briefs: %w", err)
	}

	return briefs, nil
}

// DeleteBrief deletes a brief; job postings generated from it keep existing
func (db *DB) DeleteBrief(userID, id string) error {
	result, err := db.conn.Exec("DELETE FROM briefs WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete brief: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("failed to delete brief %s: %w", id, ErrNotFound)
	}
	return nil
}

// CountBriefs returns the number of briefs owned by userID
func (db *DB) CountBriefs(userID string) (int64, error) {
	var count int64
	err := db.conn.QueryRow("SELECT COUNT(*) FROM briefs WHERE user_id = ?", userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count briefs: %w", err)
	}
	return count, nil
}
