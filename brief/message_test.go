package brief

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageStoreAppendKeepsOrderAndDuplicates(t *testing.T) {
	s := NewMessageStore()
	m := Message{ID: "1", Content: "a"}
	s.Append(m)
	s.Append(Message{ID: "2", Content: "b"})
	s.Append(m)

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"1", "2", "1"}, []string{msgs[0].ID, msgs[1].ID, msgs[2].ID})
}

func TestMessageStoreUpsertInProgress(t *testing.T) {
	s := NewMessageStore()
	s.Append(NewUserMessage("Bonjour", time.UnixMilli(10)))

	var seen []string
	s.OnChange(func(msgs []Message) {
		seen = append(seen, msgs[len(msgs)-1].Content)
	})

	s.UpsertInProgress("10-ai", "Bon")
	s.UpsertInProgress("10-ai", "Bonjour")
	s.UpsertInProgress("10-ai", "Bonjour !")

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.True(t, msgs[1].IsAI)
	assert.Equal(t, "10-ai", msgs[1].ID)
	assert.Equal(t, "Bonjour !", msgs[1].Content)
	assert.Equal(t, []string{"Bon", "Bonjour", "Bonjour !"}, seen)
}

func TestMessageStoreSnapshotIsACopy(t *testing.T) {
	s := NewMessageStore()
	s.Append(Message{ID: "1", Content: "original"})

	msgs := s.Messages()
	msgs[0].Content = "changed"

	assert.Equal(t, "original", s.Messages()[0].Content)
}

func TestMessageStoreReplaceAndLast(t *testing.T) {
	s := NewMessageStore()
	s.Append(Message{ID: "old"})

	s.Replace([]Message{
		{ID: "1", Content: "salut", IsAI: true},
		{ID: "2", Content: "je cherche un dev"},
		{ID: "3", Content: "très bien", IsAI: true},
	})
	assert.Equal(t, 3, s.Len())

	user, ok := s.Last(false)
	require.True(t, ok)
	assert.Equal(t, "2", user.ID)

	ai, ok := s.Last(true)
	require.True(t, ok)
	assert.Equal(t, "3", ai.ID)

	s.Replace(nil)
	_, ok = s.Last(false)
	assert.False(t, ok)
}

func TestObserverMayReadStore(t *testing.T) {
	s := NewMessageStore()
	var lens []int
	s.OnChange(func([]Message) {
		lens = append(lens, s.Len())
	})
	s.Append(Message{ID: "1"})
	s.UpsertInProgress("2", strings.Repeat("x", 3))
	assert.Equal(t, []int{1, 2}, lens)
}

func TestObserverRegisteredDuringNotifyWaitsForNextChange(t *testing.T) {
	s := NewMessageStore()
	var late []int
	registered := false
	s.OnChange(func([]Message) {
		if registered {
			return
		}
		registered = true
		s.OnChange(func(msgs []Message) {
			late = append(late, len(msgs))
		})
	})

	s.Append(Message{ID: "1"})
	assert.Empty(t, late)

	s.Append(Message{ID: "2"})
	assert.Equal(t, []int{2}, late)
}
