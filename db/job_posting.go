package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const jobPostingColumns = `id, user_id, title, description, requirements, missions, hard_skills, soft_skills,
	location, source_brief_id, created_at`

func scanJobPosting(row rowScanner) (*JobPosting, error) {
	var p JobPosting
	var requirements, missions, hardSkills, softSkills string
	var sourceBriefID sql.NullString
	err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &requirements, &missions, &hardSkills, &softSkills,
		&p.Location, &sourceBriefID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Requirements = decodeList(requirements)
	p.Missions = decodeList(missions)
	p.HardSkills = decodeList(hardSkills)
	p.SoftSkills = decodeList(softSkills)
	p.SourceBriefID = sourceBriefID.String
	return &p, nil
}

// CreateJobPosting inserts a job posting draft
func (db *DB) CreateJobPosting(p *JobPosting) (*JobPosting, error) {
	created := *p
	created.ID = uuid.NewString()
	created.CreatedAt = time.Now()

	_, err := db.conn.Exec(
		`INSERT INTO job_postings (`+jobPostingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID, created.UserID, created.Title, created.Description,
		encodeList(created.Requirements), encodeList(created.Missions),
		encodeList(created.HardSkills), encodeList(created.SoftSkills),
		created.Location, nullString(created.SourceBriefID), created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job posting: %w", err)
	}

	return &created, nil
}

// GetJobPosting retrieves a job posting by ID
func (db *DB) GetJobPosting(id string) (*JobPosting, error) {
	p, err := scanJobPosting(db.conn.QueryRow("SELECT "+jobPostingColumns+" FROM job_postings WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job posting %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job posting: %w", err)
	}
	return p, nil
}

// ListJobPostings retrieves a user's job postings, newest first
func (db *DB) ListJobPostings(userID string) ([]*JobPosting, error) {
	rows, err := db.conn.Query(
		"SELECT "+jobPostingColumns+" FROM job_postings WHERE user_id = ? ORDER BY created_at DESC, rowid DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list job postings: %w", err)
	}
	defer rows.Close()

	var postings []*JobPosting
	for rows.Next() {
		p, err := scanJobPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job posting: %w", err)
		}
		postings = append(postings, p)
	}

	return postings, rows.Err()
}
