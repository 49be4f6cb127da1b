package brief

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"brief-copilot/db"
)

// Conversation is the persisted aggregate of one brief session
type Conversation struct {
	ID                    string
	Title                 string
	Messages              []Message
	Requirements          Requirements
	Flags                 map[string]bool
	IsComplete            bool
	GeneratedJobPostingID string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// BriefStore is the conversation store the bridge writes to
type BriefStore interface {
	CreateBrief(b *db.Brief) (*db.Brief, error)
	UpdateBrief(b *db.Brief) (*db.Brief, error)
	GetBrief(id string) (*db.Brief, error)
}

// Bridge maps conversations to and from stored briefs
type Bridge struct {
	store  BriefStore
	userID string
}

// NewBridge creates a bridge writing briefs owned by userID
func NewBridge(store BriefStore, userID string) *Bridge {
	return &Bridge{store: store, userID: userID}
}

// UserID returns the owner of the briefs written by this bridge
func (b *Bridge) UserID() string {
	return b.userID
}

// Save creates the brief when conv has no ID and otherwise overwrites the whole
// record. The returned conversation carries the ID the caller must adopt.
func (b *Bridge) Save(ctx context.Context, conv Conversation) (Conversation, error) {
	if err := ctx.Err(); err != nil {
		return Conversation{}, err
	}

	record, err := b.toBrief(conv)
	if err != nil {
		return Conversation{}, err
	}

	var stored *db.Brief
	if conv.ID == "" {
		stored, err = b.store.CreateBrief(record)
	} else {
		stored, err = b.store.UpdateBrief(record)
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("failed to save brief: %w", err)
	}

	return fromBrief(stored)
}

// Load fetches a brief and rebuilds the conversation from it
func (b *Bridge) Load(ctx context.Context, id string) (Conversation, error) {
	if err := ctx.Err(); err != nil {
		return Conversation{}, err
	}

	stored, err := b.store.GetBrief(id)
	if err != nil {
		return Conversation{}, fmt.Errorf("failed to load brief: %w", err)
	}

	return fromBrief(stored)
}

func (b *Bridge) toBrief(conv Conversation) (*db.Brief, error) {
	messages := conv.Messages
	if messages == nil {
		messages = []Message{}
	}
	conversationData, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("failed to encode messages: %w", err)
	}

	flags := conv.Flags
	if flags == nil {
		flags = map[string]bool{}
	}
	summary, err := json.Marshal(flags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode completion flags: %w", err)
	}

	req := conv.Requirements.Clone()
	return &db.Brief{
		ID:                    conv.ID,
		UserID:                b.userID,
		Title:                 conv.Title,
		Missions:              req.Missions,
		HardSkills:            req.HardSkills,
		SoftSkills:            req.SoftSkills,
		ProjectContext:        req.Context,
		Location:              req.Location,
		Constraints:           req.Constraints,
		ConversationData:      string(conversationData),
		BriefSummary:          string(summary),
		IsComplete:            conv.IsComplete,
		GeneratedJobPostingID: conv.GeneratedJobPostingID,
	}, nil
}

func fromBrief(stored *db.Brief) (Conversation, error) {
	messages := []Message{}
	if err := decodeBlob(stored.ConversationData, &messages); err != nil {
		return Conversation{}, fmt.Errorf("failed to decode messages of brief %s: %w", stored.ID, err)
	}
	if messages == nil {
		messages = []Message{}
	}

	flags := map[string]bool{}
	if err := decodeBlob(stored.BriefSummary, &flags); err != nil {
		return Conversation{}, fmt.Errorf("failed to decode completion flags of brief %s: %w", stored.ID, err)
	}
	if flags == nil {
		flags = map[string]bool{}
	}

	return Conversation{
		ID:       stored.ID,
		Title:    stored.Title,
		Messages: messages,
		Requirements: Requirements{
			Missions:    cloneList(stored.Missions),
			HardSkills:  cloneList(stored.HardSkills),
			SoftSkills:  cloneList(stored.SoftSkills),
			Context:     stored.ProjectContext,
			Location:    stored.Location,
			Constraints: cloneList(stored.Constraints),
		},
		Flags:                 flags,
		IsComplete:            stored.IsComplete,
		GeneratedJobPostingID: stored.GeneratedJobPostingID,
		CreatedAt:             stored.CreatedAt,
		UpdatedAt:             stored.UpdatedAt,
	}, nil
}

// decodeBlob leaves v untouched for empty or null blobs
func decodeBlob(raw string, v interface{}) error {
	if raw == "" || raw == "null" {
		return nil
	}
	return json.Unmarshal([]byte(raw), v)
}
