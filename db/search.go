package db

import "fmt"

// SearchResult represents a search result
type SearchResult struct {
	Brief   *Brief
	Snippet string
}

// SearchBriefs performs full-text search over brief titles, context and conversations
func (db *DB) SearchBriefs(userID, query string, limit int) ([]*SearchResult, error) {
	rows, err := db.conn.Query(`
		SELECT `+prefixedBriefColumns+`,
		       snippet(briefs_fts, '<mark>', '</mark>', '...', -1, 32) AS snippet
		FROM briefs_fts
		JOIN briefs b ON briefs_fts.docid = b.rowid
		WHERE briefs_fts MATCH ? AND b.user_id = ?
		ORDER BY b.updated_at DESC
		LIMIT ?
	`, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search briefs: %w", err)
	}
	defer rows.Close()

	var results []*SearchResult
	for rows.Next() {
		var snippet string
		b, err := scanBrief(snippetScanner{rows: rows, snippet: &snippet})
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		results = append(results, &SearchResult{Brief: b, Snippet: snippet})
	}

	return results, rows.Err()
}

const prefixedBriefColumns = `b.id, b.user_id, b.title, b.missions, b.hard_skills, b.soft_skills, b.project_context,
	b.location, b.constraints, b.conversation_data, b.brief_summary, b.is_complete, b.generated_job_posting_id,
	b.created_at, b.updated_at`

// snippetScanner appends the snippet column to the brief columns scanBrief reads
type snippetScanner struct {
	rows    rowScanner
	snippet *string
}

func (s snippetScanner) Scan(dest ...interface{}) error {
	return s.rows.Scan(append(dest, s.snippet)...)
}
