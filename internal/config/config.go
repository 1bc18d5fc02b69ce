package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"spacyboard/internal/application"
	"spacyboard/internal/domain/entities"
)

// Transports of the fact stream.
const (
	TransportSSE       = "sse"
	TransportWebSocket = "websocket"
	TransportPostgres  = "postgres"
)

// EnvPrefix prefixes every environment variable (BOARD_SERVER, ...).
const EnvPrefix = "BOARD"

type Config struct {
	Server        string
	StreamURL     string
	Transport     string
	DatabaseURL   string
	ListenChannel string
	Replay        bool

	Viewer   string
	Locale   string
	Timezone string
	Rooms    []string
	Times    []string

	NotifyMode  application.NotifyMode
	NotifyFacts []entities.FactType

	ScheduleURL string

	DiscordToken  string
	DiscordUserID string

	LogLevel  string
	LogFormat string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server", "http://localhost:8080")
	v.SetDefault("transport", TransportSSE)
	v.SetDefault("listen_channel", "board_facts")
	v.SetDefault("replay", true)
	v.SetDefault("locale", "fr")
	v.SetDefault("timezone", "Europe/Paris")
	v.SetDefault("notify_mode", string(application.NotifySponsor))
	v.SetDefault("log_level", "info")
}

// Load charge la configuration depuis .env, l'environnement (BOARD_*) et les
// flags liés à v, puis la valide.
func Load(v *viper.Viper) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env est optionnel lorsque les variables sont fournies par l'environnement (Docker, CI, etc.).
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	cfg := &Config{
		Server:        strings.TrimSpace(v.GetString("server")),
		StreamURL:     strings.TrimSpace(v.GetString("stream_url")),
		Transport:     strings.ToLower(strings.TrimSpace(v.GetString("transport"))),
		DatabaseURL:   strings.TrimSpace(v.GetString("database_url")),
		ListenChannel: strings.TrimSpace(v.GetString("listen_channel")),
		Replay:        v.GetBool("replay"),
		Viewer:        strings.TrimSpace(v.GetString("viewer")),
		Locale:        strings.TrimSpace(v.GetString("locale")),
		Timezone:      strings.TrimSpace(v.GetString("timezone")),
		Rooms:         splitList(v.GetString("rooms")),
		Times:         splitList(v.GetString("times")),
		ScheduleURL:   strings.TrimSpace(v.GetString("schedule_url")),
		DiscordToken:  strings.TrimSpace(v.GetString("discord_token")),
		DiscordUserID: strings.TrimSpace(v.GetString("discord_user_id")),
		LogLevel:      v.GetString("log_level"),
		LogFormat:     v.GetString("log_format"),
	}

	mode, err := application.ParseNotifyMode(v.GetString("notify_mode"))
	if err != nil {
		return nil, fmt.Errorf("config: BOARD_NOTIFY_MODE invalide: %w", err)
	}
	cfg.NotifyMode = mode

	for _, name := range splitList(v.GetString("notify_facts")) {
		t, ok := entities.ParseFactType(name)
		if !ok {
			return nil, fmt.Errorf("config: BOARD_NOTIFY_FACTS contient un type inconnu (%q)", name)
		}
		cfg.NotifyFacts = append(cfg.NotifyFacts, t)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate applique toutes les règles sur la configuration chargée.
func (c *Config) validate() error {
	if err := validateHTTPURL("BOARD_SERVER", c.Server); err != nil {
		return err
	}

	switch c.Transport {
	case TransportSSE, TransportWebSocket:
		if c.StreamURL == "" {
			c.StreamURL = strings.TrimRight(c.Server, "/") + "/facts"
			if c.Transport == TransportWebSocket {
				c.StreamURL = strings.Replace(c.StreamURL, "http", "ws", 1)
			}
		}
		parsed, err := url.Parse(c.StreamURL)
		if err != nil || parsed.Host == "" {
			return fmt.Errorf("config: BOARD_STREAM_URL invalide (%q)", c.StreamURL)
		}
	case TransportPostgres:
		if err := c.RequireDatabase(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("config: BOARD_TRANSPORT doit valoir sse, websocket ou postgres (%q)", c.Transport)
	}

	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("config: BOARD_LOCALE invalide (%q): %w", c.Locale, err)
	}

	if len(c.Rooms) > 0 && len(c.Times) == 0 {
		return fmt.Errorf("config: BOARD_TIMES est requis lorsque BOARD_ROOMS est défini")
	}
	if len(c.Times) > 0 && len(c.Rooms) == 0 {
		return fmt.Errorf("config: BOARD_ROOMS est requis lorsque BOARD_TIMES est défini")
	}

	if c.ScheduleURL != "" {
		if err := validateHTTPURL("BOARD_SCHEDULE_URL", c.ScheduleURL); err != nil {
			return err
		}
	}

	if c.DiscordToken != "" {
		if c.DiscordUserID == "" {
			return fmt.Errorf("config: BOARD_DISCORD_USER_ID est requis avec BOARD_DISCORD_TOKEN")
		}
		for _, r := range c.DiscordUserID {
			if r < '0' || r > '9' {
				return fmt.Errorf("config: BOARD_DISCORD_USER_ID doit être un ID Discord (chiffres uniquement)")
			}
		}
	}

	return nil
}

// RequireDatabase checks the settings of the Postgres fact log.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: BOARD_DATABASE_URL est requis et ne peut pas être vide")
	}
	parsed, err := url.Parse(c.DatabaseURL)
	if err != nil {
		return fmt.Errorf("config: BOARD_DATABASE_URL invalide (%q): %w", c.DatabaseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("config: BOARD_DATABASE_URL invalide (%q): scheme ou host manquant", c.DatabaseURL)
	}
	return nil
}

// Slots is the grid of the board: every room at every time, rooms first.
func (c *Config) Slots() []entities.Slot {
	slots := make([]entities.Slot, 0, len(c.Rooms)*len(c.Times))
	for _, at := range c.Times {
		for _, room := range c.Rooms {
			slots = append(slots, entities.Slot{Room: room, Time: at})
		}
	}
	return slots
}

func validateHTTPURL(name, raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("config: %s invalide (%q): %w", name, raw, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("config: %s invalide (%q): scheme http(s) ou host manquant", name, raw)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
