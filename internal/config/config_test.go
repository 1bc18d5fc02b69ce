package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spacyboard/internal/application"
	"spacyboard/internal/domain/entities"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, TransportSSE, cfg.Transport)
	assert.Equal(t, "http://localhost:8080/facts", cfg.StreamURL)
	assert.Equal(t, "fr", cfg.Locale)
	assert.Equal(t, application.NotifySponsor, cfg.NotifyMode)
	assert.True(t, cfg.Replay)
	assert.Empty(t, cfg.Slots())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("BOARD_SERVER", "https://spacy.example.org")
	t.Setenv("BOARD_TRANSPORT", "WebSocket")
	t.Setenv("BOARD_VIEWER", "alice")
	t.Setenv("BOARD_ROOMS", "R1, R2")
	t.Setenv("BOARD_TIMES", "10:00;11:00")
	t.Setenv("BOARD_NOTIFY_MODE", "schedule")
	t.Setenv("BOARD_NOTIFY_FACTS", "session-scheduled,up-next")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "wss://spacy.example.org/facts", cfg.StreamURL)
	assert.Equal(t, "alice", cfg.Viewer)
	assert.Equal(t, application.NotifySchedule, cfg.NotifyMode)
	assert.Equal(t, []entities.FactType{entities.FactSessionScheduled, entities.FactUpNext}, cfg.NotifyFacts)
	assert.Equal(t, []entities.Slot{
		{Room: "R1", Time: "10:00"},
		{Room: "R2", Time: "10:00"},
		{Room: "R1", Time: "11:00"},
		{Room: "R2", Time: "11:00"},
	}, cfg.Slots())
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"server scheme":      {"BOARD_SERVER": "ftp://spacy"},
		"transport":          {"BOARD_TRANSPORT": "carrier-pigeon"},
		"postgres needs dsn": {"BOARD_TRANSPORT": "postgres"},
		"notify mode":        {"BOARD_NOTIFY_MODE": "loud"},
		"notify facts":       {"BOARD_NOTIFY_FACTS": "coffee-break"},
		"rooms without time": {"BOARD_ROOMS": "R1"},
		"discord user":       {"BOARD_DISCORD_TOKEN": "x", "BOARD_DISCORD_USER_ID": "abc"},
		"locale":             {"BOARD_LOCALE": "!!"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load(viper.New())
			assert.Error(t, err)
		})
	}
}

func TestLoad_Postgres(t *testing.T) {
	t.Setenv("BOARD_TRANSPORT", "postgres")
	t.Setenv("BOARD_DATABASE_URL", "postgres://localhost:5432/spacy?sslmode=disable")

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.NoError(t, cfg.RequireDatabase())
	assert.Equal(t, "board_facts", cfg.ListenChannel)
}
