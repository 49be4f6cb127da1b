package brief

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"brief-copilot/db"
	"brief-copilot/llm"
	"brief-copilot/utils"
)

const (
	// Greeting opens every new brief conversation
	Greeting = "Bonjour ! Je suis votre assistant IA spécialisé en recrutement. Je vais vous aider à définir " +
		"précisément le profil que vous recherchez. Pour commencer, pouvez-vous me parler de votre besoin de " +
		"recrutement ? Même si vous n'êtes pas encore sûr des détails, décrivez-moi simplement la situation."

	// FallbackReply replaces the assistant answer when the chat endpoint cannot be reached
	FallbackReply = "Désolé, je n'arrive pas à joindre le service pour le moment. " +
		"Pouvez-vous réessayer dans quelques instants ?"

	// DefaultJobTitle is used when neither the brief nor the model provides a title
	DefaultJobTitle = "Nouveau poste"
)

// Suggestions are prompts the user can pick to fill the input
var Suggestions = []string{
	"Souhaitez-vous préciser le niveau d'expérience souhaité ?",
	"Voulez-vous qu'on parle du budget / salaire ?",
	"Devons-nous explorer plusieurs scénarios de profils ?",
	"Quel est le contexte du projet ou de l'équipe ?",
}

var (
	// ErrSendInProgress is returned when a message is sent while a reply is still streaming
	ErrSendInProgress = errors.New("a message is already being sent")
	// ErrIncomplete is returned when generation is requested before every category is confirmed
	ErrIncomplete = errors.New("brief is not complete")
)

// Streamer opens the chat stream for one user message
type Streamer interface {
	Stream(ctx context.Context, conversationID, content string, onUpdate func(id, content string)) (string, error)
}

// Titler generates a job title from the conversation
type Titler interface {
	GenerateTitle(ctx context.Context, messages []llm.Message) (string, error)
}

// JobPostingStore stores job posting drafts
type JobPostingStore interface {
	CreateJobPosting(p *db.JobPosting) (*db.JobPosting, error)
}

// SessionOptions holds the collaborators of a Session
type SessionOptions struct {
	Streamer  Streamer
	Extractor Extractor
	Bridge    *Bridge
	Notifier  Notifier
	Logger    *utils.Logger
	Titler    Titler
	Postings  JobPostingStore
}

// Session is one open brief conversation
type Session struct {
	streamer  Streamer
	extractor Extractor
	bridge    *Bridge
	notifier  Notifier
	logger    *utils.Logger
	titler    Titler
	postings  JobPostingStore
	now       func() time.Time

	store   *MessageStore
	tracker *CompletionTracker
	sending atomic.Bool

	mu           sync.Mutex
	id           string
	title        string
	requirements Requirements
	jobPosting   string
	createdAt    time.Time

	observersMu sync.Mutex
	observers   []func()
}

// NewSession creates a session seeded with the greeting message
func NewSession(opts SessionOptions) *Session {
	s := &Session{
		streamer:     opts.Streamer,
		extractor:    opts.Extractor,
		bridge:       opts.Bridge,
		notifier:     opts.Notifier,
		logger:       opts.Logger,
		titler:       opts.Titler,
		postings:     opts.Postings,
		now:          time.Now,
		store:        NewMessageStore(),
		tracker:      NewCompletionTracker(Categories),
		requirements: Requirements{}.Clone(),
	}
	if s.extractor == nil {
		s.extractor = NewKeywordExtractor()
	}
	if s.notifier == nil {
		s.notifier = discardNotifier{}
	}
	if s.logger == nil {
		s.logger = utils.NewLoggerWithWriter(io.Discard)
	}

	s.store.Append(Message{ID: "1", Content: Greeting, IsAI: true, Timestamp: s.now()})
	s.store.OnChange(func([]Message) { s.changed() })
	return s
}

// OnChange registers fn to run after any change to messages, requirements, flags or identity
func (s *Session) OnChange(fn func()) {
	s.observersMu.Lock()
	defer s.observersMu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Session) changed() {
	s.observersMu.Lock()
	observers := append([]func(){}, s.observers...)
	s.observersMu.Unlock()
	for _, fn := range observers {
		fn()
	}
}

// Sending reports whether a reply is currently streaming
func (s *Session) Sending() bool {
	return s.sending.Load()
}

// Send appends the user message, streams the assistant reply into the log and
// then pre-fills requirements from the message. Transport failures are
// replaced by a fallback reply and a notification; they are not returned.
func (s *Session) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if !s.sending.CompareAndSwap(false, true) {
		return ErrSendInProgress
	}
	defer func() {
		s.sending.Store(false)
		s.changed()
	}()

	s.store.Append(NewUserMessage(text, s.now()))
	s.notify(LevelSuccess, titleSent, "")

	if err := s.stream(ctx, text); err != nil {
		s.logger.Error("Chat stream failed for brief %s: %v", s.conversationID(), err)
		s.store.Append(Message{
			ID:        strconv.FormatInt(s.now().UnixMilli(), 10) + "-fallback",
			Content:   FallbackReply,
			IsAI:      true,
			Timestamp: s.now(),
		})
		s.notify(LevelError, titleStreamFailed, err.Error())
	}

	s.extract(text)
	return nil
}

func (s *Session) stream(ctx context.Context, text string) (err error) {
	if s.streamer == nil {
		return errors.New("no chat endpoint configured")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while streaming: %v", r)
		}
	}()

	_, err = s.streamer.Stream(ctx, s.conversationID(), text, s.store.UpsertInProgress)
	return err
}

func (s *Session) extract(text string) {
	s.mu.Lock()
	req := s.requirements.Clone()
	s.extractor.Extract(text, &req)
	s.requirements = req
	s.mu.Unlock()
	s.changed()
}

func (s *Session) conversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == "" {
		return llm.TempConversationID
	}
	return s.id
}

// ID returns the stored brief ID, empty until the first save
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Title returns the brief title
func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

// SetTitle sets the brief title
func (s *Session) SetTitle(title string) {
	s.mu.Lock()
	s.title = strings.TrimSpace(title)
	s.mu.Unlock()
	s.changed()
}

// Messages returns a snapshot of the conversation
func (s *Session) Messages() []Message {
	return s.store.Messages()
}

// Requirements returns a copy of the requirement draft
func (s *Session) Requirements() Requirements {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requirements.Clone()
}

// UpdateRequirements applies a user edit to the requirement draft
func (s *Session) UpdateRequirements(fn func(req *Requirements)) {
	s.mu.Lock()
	req := s.requirements.Clone()
	fn(&req)
	s.requirements = req
	s.mu.Unlock()
	s.changed()
}

// SetCategory records the user's confirmation of one category
func (s *Session) SetCategory(name string, completed bool) {
	s.tracker.Set(name, completed)
	s.changed()
}

// IsComplete reports whether every category is confirmed
func (s *Session) IsComplete() bool {
	return s.tracker.IsComplete()
}

// Flags returns the completion flags
func (s *Session) Flags() map[string]bool {
	return s.tracker.Flags()
}

// Progress returns the percentage of confirmed categories
func (s *Session) Progress() int {
	return s.tracker.Progress()
}

// JobPostingID returns the generated job posting reference, if any
func (s *Session) JobPostingID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobPosting
}

func (s *Session) snapshot() Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Conversation{
		ID:                    s.id,
		Title:                 s.title,
		Messages:              s.store.Messages(),
		Requirements:          s.requirements.Clone(),
		Flags:                 s.tracker.Flags(),
		IsComplete:            s.tracker.IsComplete(),
		GeneratedJobPostingID: s.jobPosting,
		CreatedAt:             s.createdAt,
	}
}

// Save writes the whole conversation and adopts the stored ID. On failure the
// in-memory state is kept and the user is notified.
func (s *Session) Save(ctx context.Context) error {
	if err := s.save(ctx); err != nil {
		s.logger.Error("Failed to save brief: %v", err)
		s.notify(LevelError, titleSaveFailed, err.Error())
		return err
	}
	s.notify(LevelSuccess, TitleSaved, "")
	return nil
}

func (s *Session) save(ctx context.Context) error {
	if s.bridge == nil {
		return errors.New("no brief store configured")
	}

	saved, err := s.bridge.Save(ctx, s.snapshot())
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.id = saved.ID
	s.createdAt = saved.CreatedAt
	s.mu.Unlock()
	s.changed()

	s.logger.Debug("Saved brief %s", saved.ID)
	return nil
}

// Load replaces the whole session state with a stored brief. On failure the
// current state is kept and the user is notified.
func (s *Session) Load(ctx context.Context, id string) error {
	if s.bridge == nil {
		err := errors.New("no brief store configured")
		s.notify(LevelError, titleLoadFailed, err.Error())
		return err
	}

	conv, err := s.bridge.Load(ctx, id)
	if err != nil {
		s.logger.Error("Failed to load brief %s: %v", id, err)
		s.notify(LevelError, titleLoadFailed, err.Error())
		return err
	}

	s.mu.Lock()
	s.id = conv.ID
	s.title = conv.Title
	s.requirements = conv.Requirements.Clone()
	s.jobPosting = conv.GeneratedJobPostingID
	s.createdAt = conv.CreatedAt
	s.tracker.Restore(conv.Flags)
	s.mu.Unlock()

	// Replace notifies observers
	s.store.Replace(conv.Messages)
	s.logger.Info("Loaded brief %s (%d messages)", conv.ID, len(conv.Messages))
	return nil
}

// GenerateJobPosting creates a job posting draft from a complete brief and
// links it to the brief.
func (s *Session) GenerateJobPosting(ctx context.Context) (*db.JobPosting, error) {
	if !s.IsComplete() {
		return nil, ErrIncomplete
	}
	posting, err := s.generateJobPosting(ctx)
	if err != nil {
		s.logger.Error("Failed to generate job posting: %v", err)
		s.notify(LevelError, titleGenerateFail, err.Error())
		return nil, err
	}
	s.notify(LevelSuccess, titleGenerated, posting.Title)
	return posting, nil
}

func (s *Session) generateJobPosting(ctx context.Context) (*db.JobPosting, error) {
	if s.postings == nil {
		return nil, errors.New("no job posting store configured")
	}
	if err := s.save(ctx); err != nil {
		return nil, err
	}

	title := s.Title()
	if title == "" {
		title = s.generateTitle(ctx)
		s.SetTitle(title)
	}

	req := s.Requirements()
	requirements := append(cloneList(req.HardSkills), req.SoftSkills...)
	posting, err := s.postings.CreateJobPosting(&db.JobPosting{
		UserID:        s.bridge.UserID(),
		Title:         title,
		Description:   req.Context,
		Requirements:  requirements,
		Missions:      cloneList(req.Missions),
		HardSkills:    cloneList(req.HardSkills),
		SoftSkills:    cloneList(req.SoftSkills),
		Location:      req.Location,
		SourceBriefID: s.ID(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create job posting: %w", err)
	}

	s.mu.Lock()
	s.jobPosting = posting.ID
	s.mu.Unlock()

	if err := s.save(ctx); err != nil {
		return posting, fmt.Errorf("failed to link job posting: %w", err)
	}
	return posting, nil
}

func (s *Session) generateTitle(ctx context.Context) string {
	if s.titler == nil {
		return DefaultJobTitle
	}
	title, err := s.titler.GenerateTitle(ctx, ToLLMMessages(s.Messages()))
	if err != nil {
		s.logger.Warn("Failed to generate job title: %v", err)
		return DefaultJobTitle
	}
	if title = strings.TrimSpace(title); title == "" {
		return DefaultJobTitle
	}
	return title
}

func (s *Session) notify(level Level, title, message string) {
	s.notifier.Notify(Notification{Level: level, Title: title, Message: message})
}

// ToLLMMessages converts the conversation to model messages
func ToLLMMessages(msgs []Message) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		role := "user"
		if m.IsAI {
			role = "assistant"
		}
		out = append(out, llm.Message{Role: role, Content: m.Content})
	}
	return out
}
