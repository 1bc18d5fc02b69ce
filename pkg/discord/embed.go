package discord

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"spacyboard/internal/domain/entities"
)

const (
	embedColor   = 0x5865F2
	colorGreen   = 0x57F287
	colorYellow  = 0xFEE75C
	colorRed     = 0xED4245
	embedFooter  = "Spacy board"
	defaultTitle = "🔔 Tableau des sessions"
)

var factStyles = map[entities.FactType]struct {
	title string
	color int
}{
	entities.FactSessionSuggested: {"📝 Session proposée", embedColor},
	entities.FactSessionScheduled: {"📅 Session planifiée", colorGreen},
	entities.FactSessionMoved:     {"🔀 Session déplacée", colorYellow},
	entities.FactSessionDeleted:   {"🗑️ Session supprimée", colorRed},
	entities.FactUpNext:           {"⏭️ À ton tour", colorGreen},
}

// BuildNotificationEmbed builds the DM embed of one board notification.
func BuildNotificationEmbed(fact entities.FactType, text string, at time.Time, loc *time.Location) *discordgo.MessageEmbed {
	style, ok := factStyles[fact]
	if !ok {
		style.title, style.color = defaultTitle, embedColor
	}
	embed := &discordgo.MessageEmbed{
		Title:       style.title,
		Description: text,
		Color:       style.color,
		Footer:      &discordgo.MessageEmbedFooter{Text: embedFooter},
	}
	if !at.IsZero() {
		embed.Timestamp = at.UTC().Format(time.RFC3339)
		embed.Footer.Text = fmt.Sprintf("%s • %s", embedFooter, FormatDateTime(at, loc))
		embed.Fields = []*discordgo.MessageEmbedField{
			{Name: "Reçu", Value: Timestamp(at, StyleRelative), Inline: true},
		}
	}
	return embed
}
