package brief

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"brief-copilot/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStreamer struct {
	mu      sync.Mutex
	ids     []string
	frames  []string
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeStreamer) Stream(ctx context.Context, conversationID, content string, onUpdate func(id, content string)) (string, error) {
	f.mu.Lock()
	f.ids = append(f.ids, conversationID)
	f.mu.Unlock()

	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return "", f.err
	}
	acc := ""
	for _, frame := range f.frames {
		acc += frame
		onUpdate("stream-ai", acc)
	}
	return acc, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	items []Notification
}

func (r *recordingNotifier) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *recordingNotifier) titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.items {
		out = append(out, n.Title)
	}
	return out
}

type fakeTitler struct {
	title string
	err   error
}

func (f fakeTitler) GenerateTitle(ctx context.Context, messages []llm.Message) (string, error) {
	return f.title, f.err
}

func TestNewSessionStartsWithGreeting(t *testing.T) {
	s := NewSession(SessionOptions{})
	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].IsAI)
	assert.Equal(t, Greeting, msgs[0].Content)
	assert.False(t, s.IsComplete())
	assert.Empty(t, s.ID())
}

func TestSendStreamsReplyAndExtracts(t *testing.T) {
	streamer := &fakeStreamer{frames: []string{"Par", "fait", " !"}}
	notifier := &recordingNotifier{}
	s := NewSession(SessionOptions{Streamer: streamer, Notifier: notifier})

	var contents []string
	s.OnChange(func() {
		msgs := s.Messages()
		if last := msgs[len(msgs)-1]; last.ID == "stream-ai" {
			contents = append(contents, last.Content)
		}
	})

	require.NoError(t, s.Send(context.Background(), "  Nous cherchons un développeur  "))

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "Nous cherchons un développeur", msgs[1].Content)
	assert.False(t, msgs[1].IsAI)
	assert.Equal(t, "Parfait !", msgs[2].Content)
	assert.True(t, msgs[2].IsAI)

	require.NotEmpty(t, contents)
	for i := 1; i < len(contents); i++ {
		assert.True(t, strings.HasPrefix(contents[i], contents[i-1]))
	}

	assert.Equal(t, []string{llm.TempConversationID}, streamer.ids)
	assert.Equal(t, []string{"JavaScript", "React", "Node.js"}, s.Requirements().HardSkills)
	for _, done := range s.Flags() {
		assert.False(t, done)
	}
	assert.Equal(t, []string{titleSent}, notifier.titles())
}

func TestSendIgnoresBlankInput(t *testing.T) {
	streamer := &fakeStreamer{}
	s := NewSession(SessionOptions{Streamer: streamer})
	require.NoError(t, s.Send(context.Background(), "   "))
	assert.Len(t, s.Messages(), 1)
	assert.Empty(t, streamer.ids)
}

func TestSendFallsBackOnTransportError(t *testing.T) {
	notifier := &recordingNotifier{}
	s := NewSession(SessionOptions{
		Streamer: &fakeStreamer{err: errors.New("dial tcp: connection refused")},
		Notifier: notifier,
	})

	require.NoError(t, s.Send(context.Background(), "Un product manager en télétravail"))

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.True(t, msgs[2].IsAI)
	assert.Equal(t, FallbackReply, msgs[2].Content)
	assert.Equal(t, []string{titleSent, titleStreamFailed}, notifier.titles())

	// Extraction still runs
	assert.Equal(t, "Télétravail possible", s.Requirements().Location)
	assert.False(t, s.Sending())
}

func TestSendFallsBackOnNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	s := NewSession(SessionOptions{Streamer: llm.NewChatClient(server.URL, "token")})
	require.NoError(t, s.Send(context.Background(), "Bonjour"))

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, FallbackReply, msgs[2].Content)
}

func TestSendOverHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for _, frame := range []string{"data: Bonj\n", "data: our\n", "data: [DONE]\n"} {
			fmt.Fprint(w, frame)
			flusher.Flush()
		}
	}))
	defer server.Close()

	s := NewSession(SessionOptions{Streamer: llm.NewChatClient(server.URL, "token")})
	require.NoError(t, s.Send(context.Background(), "Salut"))

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "Bonjour", msgs[2].Content)
	assert.True(t, strings.HasSuffix(msgs[2].ID, "-ai"))
}

func TestSecondSendWhileStreamingIsRejected(t *testing.T) {
	streamer := &fakeStreamer{
		frames:  []string{"ok"},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := NewSession(SessionOptions{Streamer: streamer})

	done := make(chan error, 1)
	go func() { done <- s.Send(context.Background(), "premier") }()
	<-streamer.started

	assert.True(t, s.Sending())
	assert.ErrorIs(t, s.Send(context.Background(), "second"), ErrSendInProgress)

	close(streamer.release)
	require.NoError(t, <-done)

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "premier", msgs[1].Content)
	assert.False(t, s.Sending())
}

func TestSaveAdoptsIDAndStreamsWithIt(t *testing.T) {
	streamer := &fakeStreamer{frames: []string{"ok"}}
	notifier := &recordingNotifier{}
	s := NewSession(SessionOptions{
		Streamer: streamer,
		Bridge:   NewBridge(newTestStore(t), "user-1"),
		Notifier: notifier,
	})

	require.NoError(t, s.Save(context.Background()))
	id := s.ID()
	require.NotEmpty(t, id)

	require.NoError(t, s.Send(context.Background(), "Bonjour"))
	assert.Equal(t, []string{id}, streamer.ids)

	require.NoError(t, s.Save(context.Background()))
	assert.Equal(t, id, s.ID())
	assert.Contains(t, notifier.titles(), TitleSaved)
}

func TestSaveWithoutStoreKeepsState(t *testing.T) {
	notifier := &recordingNotifier{}
	s := NewSession(SessionOptions{Notifier: notifier})
	s.SetCategory(CategoryMissions, true)

	assert.Error(t, s.Save(context.Background()))
	assert.Empty(t, s.ID())
	assert.True(t, s.Flags()[CategoryMissions])
	assert.Equal(t, []string{titleSaveFailed}, notifier.titles())
}

func TestLoadRestoresSession(t *testing.T) {
	ctx := context.Background()
	bridge := NewBridge(newTestStore(t), "user-1")
	saved, err := bridge.Save(ctx, sampleConversation())
	require.NoError(t, err)

	s := NewSession(SessionOptions{Bridge: bridge})
	require.NoError(t, s.Load(ctx, saved.ID))

	assert.Equal(t, saved.ID, s.ID())
	assert.Equal(t, "Développeur React", s.Title())
	assert.Len(t, s.Messages(), 3)
	assert.Equal(t, "Télétravail possible", s.Requirements().Location)
	assert.True(t, s.Flags()[CategoryMissions])
	assert.False(t, s.Flags()[CategoryContext])
}

func TestLoadFailureKeepsState(t *testing.T) {
	notifier := &recordingNotifier{}
	s := NewSession(SessionOptions{Bridge: NewBridge(newTestStore(t), "user-1"), Notifier: notifier})

	assert.Error(t, s.Load(context.Background(), "missing"))
	assert.Len(t, s.Messages(), 1)
	assert.Equal(t, []string{titleLoadFailed}, notifier.titles())
}

func TestGenerateJobPostingRequiresCompleteBrief(t *testing.T) {
	store := newTestStore(t)
	s := NewSession(SessionOptions{Bridge: NewBridge(store, "user-1"), Postings: store})

	for _, c := range Categories[:len(Categories)-1] {
		s.SetCategory(c, true)
	}
	_, err := s.GenerateJobPosting(context.Background())
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Empty(t, s.ID())
}

func TestGenerateJobPosting(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	s := NewSession(SessionOptions{
		Streamer: &fakeStreamer{frames: []string{"ok"}},
		Bridge:   NewBridge(store, "user-1"),
		Postings: store,
		Titler:   fakeTitler{title: "Développeur Full-Stack"},
	})

	require.NoError(t, s.Send(ctx, "Nous cherchons un développeur en remote"))
	s.UpdateRequirements(func(req *Requirements) {
		req.Context = "Refonte de la plateforme"
		req.SoftSkills = []string{"Autonomie"}
	})
	for _, c := range Categories {
		s.SetCategory(c, true)
	}
	require.True(t, s.IsComplete())

	posting, err := s.GenerateJobPosting(ctx)
	require.NoError(t, err)

	assert.Equal(t, "Développeur Full-Stack", posting.Title)
	assert.Equal(t, "Refonte de la plateforme", posting.Description)
	assert.Equal(t, []string{"JavaScript", "React", "Node.js", "Autonomie"}, posting.Requirements)
	assert.Equal(t, "Télétravail possible", posting.Location)
	assert.Equal(t, s.ID(), posting.SourceBriefID)
	assert.Equal(t, posting.ID, s.JobPostingID())

	stored, err := store.GetBrief(s.ID())
	require.NoError(t, err)
	assert.Equal(t, posting.ID, stored.GeneratedJobPostingID)
	assert.True(t, stored.IsComplete)
	assert.Equal(t, "Développeur Full-Stack", stored.Title)
}

func TestGenerateJobPostingTitleFallback(t *testing.T) {
	store := newTestStore(t)
	s := NewSession(SessionOptions{
		Bridge:   NewBridge(store, "user-1"),
		Postings: store,
		Titler:   fakeTitler{err: errors.New("no api key")},
	})
	for _, c := range Categories {
		s.SetCategory(c, true)
	}

	posting, err := s.GenerateJobPosting(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultJobTitle, posting.Title)
}

func TestToLLMMessages(t *testing.T) {
	out := ToLLMMessages([]Message{{Content: "a", IsAI: true}, {Content: "b"}})
	assert.Equal(t, []llm.Message{{Role: "assistant", Content: "a"}, {Role: "user", Content: "b"}}, out)
}
