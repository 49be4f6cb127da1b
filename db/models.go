package db

import (
	"encoding/json"
	"time"
)

// Brief is a persisted recruitment brief (one chat session plus its requirement summary)
type Brief struct {
	ID             string   `json:"id"`
	UserID         string   `json:"user_id"`
	Title          string   `json:"title"`
	Missions       []string `json:"missions"`
	HardSkills     []string `json:"hard_skills"`
	SoftSkills     []string `json:"soft_skills"`
	ProjectContext string   `json:"project_context"`
	Location       string   `json:"location"`
	Constraints    []string `json:"constraints"`

	// ConversationData is the JSON message log; BriefSummary the JSON completion flags
	ConversationData      string    `json:"conversation_data"`
	BriefSummary          string    `json:"brief_summary"`
	IsComplete            bool      `json:"is_complete"`
	GeneratedJobPostingID string    `json:"generated_job_posting_id,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// JobPosting is a job offer draft generated from a complete brief
type JobPosting struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Requirements  []string  `json:"requirements"`
	Missions      []string  `json:"missions"`
	HardSkills    []string  `json:"hard_skills"`
	SoftSkills    []string  `json:"soft_skills"`
	Location      string    `json:"location"`
	SourceBriefID string    `json:"source_brief_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// encodeList stores a string list as a JSON array; nil becomes []
func encodeList(list []string) string {
	if list == nil {
		return "[]"
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// decodeList is lenient: empty or malformed columns decode to an empty list
func decodeList(raw string) []string {
	list := []string{}
	if raw == "" {
		return list
	}
	if err := json.Unmarshal([]byte(raw), &list); err != nil || list == nil {
		return []string{}
	}
	return list
}
