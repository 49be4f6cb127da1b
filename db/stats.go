package db

import "fmt"

// BriefStats holds the dashboard counters for one user
type BriefStats struct {
	TotalBriefs      int64
	CompleteBriefs   int64
	InProgressBriefs int64
	JobPostings      int64
	DBSizeBytes      int64
}

// GetStats returns brief and job posting counters plus the database size
func (db *DB) GetStats(userID string) (*BriefStats, error) {
	stats := &BriefStats{}

	err := db.conn.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN is_complete THEN 1 ELSE 0 END), 0)
		FROM briefs
		WHERE user_id = ?
	`, userID).Scan(&stats.TotalBriefs, &stats.CompleteBriefs)
	if err != nil {
		return nil, fmt.Errorf("failed to count briefs: %w", err)
	}
	stats.InProgressBriefs = stats.TotalBriefs - stats.CompleteBriefs

	err = db.conn.QueryRow("SELECT COUNT(*) FROM job_postings WHERE user_id = ?", userID).Scan(&stats.JobPostings)
	if err != nil {
		return nil, fmt.Errorf("failed to count job postings: %w", err)
	}

	// page_count * page_size
	var pageCount, pageSize int64
	if err := db.conn.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}
	if err := db.conn.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return nil, fmt.Errorf("failed to get page size: %w", err)
	}
	stats.DBSizeBytes = pageCount * pageSize

	return stats, nil
}
