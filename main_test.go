package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"brief-copilot/db"
	"brief-copilot/utils"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerFlagsComplete(t *testing.T) {
	f := NewServerFlags()
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	f.BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--listen", ":9999"}))

	cfg := utils.DefaultConfig()
	cfg.Server.ListenAddr = ":7000"
	cfg.Server.MetricsAddr = ""
	cfg.Server.Token = "relay-secret"
	cfg.Server.Provider = "openai"
	f.complete(fs, cfg)

	// explicit flags win over the config file
	assert.Equal(t, ":9999", f.ListenAddr)
	assert.Empty(t, f.MetricsAddr)
	assert.Equal(t, "relay-secret", f.Token)
	assert.Equal(t, "openai", f.Provider)
	assert.Equal(t, cfg.Data.MaxHistory, f.MaxTurns)
	assert.NoError(t, f.Validate())

	f.MaxTurns = -1
	assert.Error(t, f.Validate())
}

func TestProviderConfig(t *testing.T) {
	cfg := utils.DefaultConfig()

	_, ok := providerConfig(cfg, "openai")
	assert.False(t, ok, "disabled providers are ignored")
	_, ok = providerConfig(cfg, "missing")
	assert.False(t, ok)

	pc := cfg.LLMProviders["openai"]
	pc.Enabled = true
	pc.APIKey = "sk-test"
	cfg.LLMProviders["openai"] = pc

	got, ok := providerConfig(cfg, "openai")
	require.True(t, ok)
	assert.Equal(t, "openai", got.ProviderName)
	assert.Equal(t, "sk-test", got.APIKey)
	assert.Equal(t, "gpt-4o-mini", got.Model)
}

// writeTestConfig writes a config whose database and log live in a temp dir
func writeTestConfig(t *testing.T) (string, *db.DB) {
	t.Helper()
	dir := t.TempDir()

	cfg := utils.DefaultConfig()
	cfg.Data.DBPath = filepath.Join(dir, "briefs.db")
	cfg.Log.Path = filepath.Join(dir, "test.log")
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, utils.SaveConfig(path, cfg))

	database, err := db.New(cfg.Data.DBPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return path, database
}

func TestExportCommand(t *testing.T) {
	configPath, database := writeTestConfig(t)
	b, err := database.CreateBrief(&db.Brief{
		UserID:           "local",
		Title:            "Product Owner",
		Missions:         []string{"Gestion de produit"},
		ConversationData: `[{"id":"1","content":"Bonjour !","isAI":true,"timestamp":"2024-03-04T10:00:00Z"}]`,
	})
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "brief.md")
	cmd := NewExportCommand(&rootOptions{ConfigPath: configPath})
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{b.ID, "--format", "md", "--out", out})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Product Owner")
	assert.Contains(t, string(data), "- Gestion de produit")
	assert.Contains(t, stdout.String(), "exported to "+out)
}

func TestExportCommandScopedToUser(t *testing.T) {
	configPath, database := writeTestConfig(t)
	b, err := database.CreateBrief(&db.Brief{UserID: "user-2", Title: "Autre recruteur"})
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "brief.json")
	cmd := NewExportCommand(&rootOptions{ConfigPath: configPath})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{b.ID, "--out", out})
	err = cmd.Execute()
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.NoFileExists(t, out)

	cmd = NewExportCommand(&rootOptions{ConfigPath: configPath})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{b.ID, "--user", "user-2", "--out", out})
	require.NoError(t, cmd.Execute())
	assert.FileExists(t, out)
}

func TestExportCommandAll(t *testing.T) {
	configPath, database := writeTestConfig(t)
	for _, title := range []string{"Product Owner", "Data Engineer"} {
		_, err := database.CreateBrief(&db.Brief{UserID: "local", Title: title})
		require.NoError(t, err)
	}

	out := filepath.Join(t.TempDir(), "all.json")
	cmd := NewExportCommand(&rootOptions{ConfigPath: configPath})
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"--out", out})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, stdout.String(), "2 briefs exported")

	cmd = NewExportCommand(&rootOptions{ConfigPath: configPath})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "markdown"})
	assert.Error(t, cmd.Execute(), "exporting every brief only supports json")
}

func TestPostingsCommandJSON(t *testing.T) {
	configPath, database := writeTestConfig(t)
	_, err := database.CreateJobPosting(&db.JobPosting{UserID: "local", Title: "Data Engineer"})
	require.NoError(t, err)

	cmd := NewPostingsCommand(&rootOptions{ConfigPath: configPath})
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"-o", "json"})
	require.NoError(t, cmd.Execute())

	var postings []db.JobPosting
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &postings))
	require.Len(t, postings, 1)
	assert.Equal(t, "Data Engineer", postings[0].Title)
}
