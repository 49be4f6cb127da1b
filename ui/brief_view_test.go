package ui

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"brief-copilot/brief"
	"brief-copilot/db"
	"brief-copilot/utils"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedStreamer struct {
	updates []string
}

func (s *scriptedStreamer) Stream(ctx context.Context, conversationID, content string, onUpdate func(id, content string)) (string, error) {
	var last string
	for _, u := range s.updates {
		last = u
		onUpdate("1700000000000-ai", u)
	}
	return last, nil
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	fyneApp := test.NewTempApp(t)

	database, err := db.New(filepath.Join(t.TempDir(), "briefs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return &App{
		fyneApp: fyneApp,
		window:  fyneApp.NewWindow("test"),
		db:      database,
		logger:  utils.NewLoggerWithWriter(io.Discard),
		userID:  "user-1",
		ctx:     ctx,
		cancel:  cancel,
	}
}

func newTestView(t *testing.T, streamer brief.Streamer) (*BriefView, *brief.Session) {
	t.Helper()
	app := newTestApp(t)
	session := brief.NewSession(brief.SessionOptions{
		Streamer: streamer,
		Bridge:   brief.NewBridge(app.db, app.userID),
		Postings: app.db,
	})
	view := NewBriefView(app, session)
	app.window.SetContent(view.Build())
	return view, session
}

func TestBriefViewRendersGreeting(t *testing.T) {
	view, _ := newTestView(t, nil)

	require.Len(t, view.rows, 1)
	assert.True(t, view.rows[0].isAI)
	assert.Equal(t, brief.Greeting, view.rows[0].content.Text)
	assert.True(t, view.generateButton.Disabled())
	assert.Zero(t, view.progress.Value)
	assert.Equal(t, "Non renseigné", view.itemLabels[brief.CategoryHardSkills].Text)
}

func TestBriefViewStreamingReusesRows(t *testing.T) {
	view, session := newTestView(t, &scriptedStreamer{updates: []string{"Bon", "Bonjour"}})
	greeting := view.rows[0]

	require.NoError(t, session.Send(context.Background(), "Je cherche un développeur"))
	view.refresh()

	require.Len(t, view.rows, 3)
	assert.Same(t, greeting, view.rows[0])
	assert.False(t, view.rows[1].isAI)
	assert.Equal(t, "Bonjour", view.rows[2].content.Text)
	assert.Equal(t, "• JavaScript\n• React\n• Node.js", view.itemLabels[brief.CategoryHardSkills].Text)
}

func TestBriefViewChecksDriveCompletion(t *testing.T) {
	view, session := newTestView(t, nil)

	for _, category := range brief.Categories {
		view.checks[category].SetChecked(true)
	}
	view.refresh()

	assert.True(t, session.IsComplete())
	assert.Equal(t, 100, session.Progress())
	assert.False(t, view.generateButton.Disabled())

	view.checks[brief.CategoryLocation].SetChecked(false)
	view.refresh()
	assert.False(t, session.IsComplete())
	assert.True(t, view.generateButton.Disabled())
}

func TestBriefViewRefreshDoesNotEchoChecks(t *testing.T) {
	view, session := newTestView(t, nil)

	session.SetCategory(brief.CategoryMissions, true)
	view.refresh()

	assert.True(t, view.checks[brief.CategoryMissions].Checked)
	assert.Equal(t, map[string]bool{
		brief.CategoryMissions:    true,
		brief.CategoryHardSkills:  false,
		brief.CategorySoftSkills:  false,
		brief.CategoryContext:     false,
		brief.CategoryLocation:    false,
		brief.CategoryConstraints: false,
	}, session.Flags())
}

func TestBriefViewSendIgnoresBlankInput(t *testing.T) {
	view, session := newTestView(t, &scriptedStreamer{})

	view.inputEntry.SetText("   ")
	view.sendMessage()

	assert.Equal(t, "   ", view.inputEntry.Text)
	assert.Len(t, session.Messages(), 1)
}

func TestBriefViewShowsJobPosting(t *testing.T) {
	view, session := newTestView(t, nil)
	assert.False(t, view.viewPosting.Visible())

	session.UpdateRequirements(func(req *brief.Requirements) {
		req.SetItems(brief.CategoryHardSkills, []string{"SQL"})
		req.SetItems(brief.CategoryContext, []string{"Équipe data"})
	})
	session.SetTitle("Data Engineer")
	for _, category := range brief.Categories {
		session.SetCategory(category, true)
	}
	posting, err := session.GenerateJobPosting(context.Background())
	require.NoError(t, err)
	view.refresh()

	assert.True(t, view.viewPosting.Visible())
	assert.Equal(t, "Data Engineer", view.titleEntry.Text)

	text := renderJobPosting(posting)
	assert.Contains(t, text, "Équipe data")
	assert.Contains(t, text, "• SQL")
}
