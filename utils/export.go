package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"brief-copilot/db"
)

// ExportFormat represents the export format
type ExportFormat string

const (
	FormatJSON     ExportFormat = "json"
	FormatMarkdown ExportFormat = "markdown"
)

// ParseExportFormat accepts json, markdown or md
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// BriefExport represents a brief export structure
type BriefExport struct {
	ID                    string            `json:"id"`
	Title                 string            `json:"title"`
	IsComplete            bool              `json:"is_complete"`
	Missions              []string          `json:"missions"`
	HardSkills            []string          `json:"hard_skills"`
	SoftSkills            []string          `json:"soft_skills"`
	ProjectContext        string            `json:"project_context"`
	Location              string            `json:"location"`
	Constraints           []string          `json:"constraints"`
	Flags                 map[string]bool   `json:"flags"`
	GeneratedJobPostingID string            `json:"generated_job_posting_id,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
	Messages              []MessageExport   `json:"messages"`
	Metadata              map[string]string `json:"metadata,omitempty"`
}

// MessageExport has the same shape as a stored conversation message
type MessageExport struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	IsAI      bool      `json:"isAI"`
	Timestamp time.Time `json:"timestamp"`
}

func newBriefExport(b *db.Brief) (BriefExport, error) {
	export := BriefExport{
		ID:                    b.ID,
		Title:                 b.Title,
		IsComplete:            b.IsComplete,
		Missions:              b.Missions,
		HardSkills:            b.HardSkills,
		SoftSkills:            b.SoftSkills,
		ProjectContext:        b.ProjectContext,
		Location:              b.Location,
		Constraints:           b.Constraints,
		Flags:                 map[string]bool{},
		GeneratedJobPostingID: b.GeneratedJobPostingID,
		CreatedAt:             b.CreatedAt,
		UpdatedAt:             b.UpdatedAt,
		Messages:              []MessageExport{},
	}

	if b.ConversationData != "" && b.ConversationData != "null" {
		if err := json.Unmarshal([]byte(b.ConversationData), &export.Messages); err != nil {
			return export, fmt.Errorf("failed to decode messages of brief %s: %w", b.ID, err)
		}
	}
	if b.BriefSummary != "" && b.BriefSummary != "null" {
		if err := json.Unmarshal([]byte(b.BriefSummary), &export.Flags); err != nil {
			return export, fmt.Errorf("failed to decode flags of brief %s: %w", b.ID, err)
		}
	}
	if export.Messages == nil {
		export.Messages = []MessageExport{}
	}
	if export.Flags == nil {
		export.Flags = map[string]bool{}
	}
	return export, nil
}

// ExportBriefToJSON exports a single brief to JSON format
func ExportBriefToJSON(database *db.DB, briefID string, path string) error {
	b, err := database.GetBrief(briefID)
	if err != nil {
		return fmt.Errorf("failed to get brief: %w", err)
	}

	export, err := newBriefExport(b)
	if err != nil {
		return err
	}
	export.Metadata = map[string]string{
		"export_version": "1.0",
		"export_date":    time.Now().Format(time.RFC3339),
		"app_name":       "Brief Copilot",
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// ExportBriefToMarkdown exports a single brief to Markdown format
func ExportBriefToMarkdown(database *db.DB, briefID string, path string) error {
	b, err := database.GetBrief(briefID)
	if err != nil {
		return fmt.Errorf("failed to get brief: %w", err)
	}

	export, err := newBriefExport(b)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(RenderBriefMarkdown(export)), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// RenderBriefMarkdown renders the requirement summary followed by the conversation
func RenderBriefMarkdown(export BriefExport) string {
	var sb strings.Builder

	title := export.Title
	if title == "" {
		title = "Brief sans titre"
	}
	status := "En cours"
	if export.IsComplete {
		status = "Terminé"
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("**Statut**: %s\n", status))
	sb.WriteString(fmt.Sprintf("**Créé le**: %s\n", export.CreatedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("**Mis à jour le**: %s\n\n", export.UpdatedAt.Format("2006-01-02 15:04:05")))

	sb.WriteString("## Résumé du besoin\n\n")
	writeSection(&sb, "Missions principales", export.Missions)
	writeSection(&sb, "Hard skills requis", export.HardSkills)
	writeSection(&sb, "Soft skills attendus", export.SoftSkills)
	writeSection(&sb, "Contexte projet", nonEmpty(export.ProjectContext))
	writeSection(&sb, "Localisation", nonEmpty(export.Location))
	writeSection(&sb, "Contraintes", export.Constraints)
	sb.WriteString("---\n\n")

	sb.WriteString("## Conversation\n\n")
	for i, msg := range export.Messages {
		roleIcon := "👤"
		roleName := "Vous"
		if msg.IsAI {
			roleIcon = "🤖"
			roleName = "Assistant"
		}

		sb.WriteString(fmt.Sprintf("### %s %s\n\n", roleIcon, roleName))
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")

		if i < len(export.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exporté le %s*\n", time.Now().Format("2006-01-02 15:04:05")))
	sb.WriteString("*Outil d'export : Brief Copilot*\n")

	return sb.String()
}

func writeSection(sb *strings.Builder, label string, items []string) {
	sb.WriteString(fmt.Sprintf("### %s\n\n", label))
	if len(items) == 0 {
		sb.WriteString("_Non renseigné_\n\n")
		return
	}
	for _, item := range items {
		sb.WriteString(fmt.Sprintf("- %s\n", item))
	}
	sb.WriteString("\n")
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

// ExportAllBriefs exports every brief of userID to a single JSON file
func ExportAllBriefs(database *db.DB, userID string, path string) (int, error) {
	total, err := database.CountBriefs(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count briefs: %w", err)
	}

	briefs, err := database.ListBriefs(userID, int(total), 0)
	if err != nil {
		return 0, fmt.Errorf("failed to list briefs: %w", err)
	}

	exports := make([]BriefExport, 0, len(briefs))
	for _, b := range briefs {
		export, err := newBriefExport(b)
		if err != nil {
			return 0, err
		}
		exports = append(exports, export)
	}

	wrapper := map[string]interface{}{
		"metadata": map[string]string{
			"export_version": "1.0",
			"export_date":    time.Now().Format(time.RFC3339),
			"app_name":       "Brief Copilot",
			"total_count":    fmt.Sprintf("%d", len(exports)),
		},
		"briefs": exports,
	}

	data, err := json.MarshalIndent(wrapper, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return 0, fmt.Errorf("failed to write file: %w", err)
	}

	return len(exports), nil
}

// ImportBrief imports a brief exported with ExportBriefToJSON as a new brief of userID
func ImportBrief(database *db.DB, userID string, path string) (*db.Brief, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var export BriefExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	if len(export.Messages) == 0 {
		return nil, fmt.Errorf("invalid export: no messages")
	}

	conversationData, err := json.Marshal(export.Messages)
	if err != nil {
		return nil, fmt.Errorf("failed to encode messages: %w", err)
	}
	flags := export.Flags
	if flags == nil {
		flags = map[string]bool{}
	}
	summary, err := json.Marshal(flags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode flags: %w", err)
	}

	// The job posting reference belongs to the source database
	b, err := database.CreateBrief(&db.Brief{
		UserID:           userID,
		Title:            export.Title,
		Missions:         export.Missions,
		HardSkills:       export.HardSkills,
		SoftSkills:       export.SoftSkills,
		ProjectContext:   export.ProjectContext,
		Location:         export.Location,
		Constraints:      export.Constraints,
		ConversationData: string(conversationData),
		BriefSummary:     string(summary),
		IsComplete:       export.IsComplete,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create brief: %w", err)
	}

	return b, nil
}

// GenerateExportFilename generates a filename for export
func GenerateExportFilename(title string, format ExportFormat) string {
	if title == "" {
		title = "brief"
	}

	// Sanitize title for filename
	sanitized := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' || r == '"' || r == '<' || r == '>' || r == '|' {
			return '_'
		}
		return r
	}, title)

	// Truncate on a rune boundary
	if runes := []rune(sanitized); len(runes) > 50 {
		sanitized = string(runes[:50])
	}

	timestamp := time.Now().Format("20060102_150405")
	ext := string(format)
	if format == FormatMarkdown {
		ext = "md"
	}

	return fmt.Sprintf("%s_%s.%s", sanitized, timestamp, ext)
}

// GetDefaultExportPath returns the default export directory
func GetDefaultExportPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	exportDir := filepath.Join(homeDir, "Documents", "Brief_Exports")

	// Create directory if it doesn't exist
	if err := os.MkdirAll(exportDir, 0755); err != nil {
		return "", err
	}

	return exportDir, nil
}
