package discord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"spacyboard/internal/logging"
	"spacyboard/internal/ports/output"
	pkgdiscord "spacyboard/pkg/discord"
)

var _ output.NotificationView = (*Notifier)(nil)

// dmSession is the part of *discordgo.Session the notifier uses.
type dmSession interface {
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
}

// Notifier mirrors the notification panel into a direct message: showing a
// notification sends an embed, clearing deletes it.
type Notifier struct {
	session  dmSession
	closer   func() error
	userID   string
	location *time.Location
	now      func() time.Time
	logger   *zerolog.Logger

	mu        sync.Mutex
	channelID string
	messageID string
}

// NewNotifier creates a bot session that DMs userID.
func NewNotifier(token, userID string, location *time.Location, logger *zerolog.Logger) (*Notifier, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la création de la session Discord: %w", err)
	}
	n := newNotifier(s, userID, location, logger)
	n.closer = s.Close
	return n, nil
}

func newNotifier(s dmSession, userID string, location *time.Location, logger *zerolog.Logger) *Notifier {
	if location == nil {
		location = time.UTC
	}
	return &Notifier{
		session:  s,
		userID:   userID,
		location: location,
		now:      time.Now,
		logger:   logging.Component(logger, "discord"),
	}
}

// Open resolves the DM channel of the user.
func (n *Notifier) Open(ctx context.Context) error {
	user, err := n.session.User(n.userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("utilisateur Discord %s: %w", n.userID, err)
	}
	ch, err := n.session.UserChannelCreate(n.userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("erreur lors de l'ouverture du DM: %w", err)
	}

	n.mu.Lock()
	n.channelID = ch.ID
	n.mu.Unlock()

	n.logger.Info().Str("user", resolveDisplayName(user)).Msg("🤖 Discord notifications enabled")
	return nil
}

func (n *Notifier) Show(ctx context.Context, notif output.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.channelID == "" {
		n.logger.Warn().Msg("⚠️ DM channel not open, notification skipped")
		return
	}

	embed := pkgdiscord.BuildNotificationEmbed(notif.Fact, notif.Text, n.now(), n.location)
	msg, err := n.session.ChannelMessageSendEmbed(n.channelID, embed, discordgo.WithContext(ctx))
	if err != nil {
		n.logger.Error().Err(err).Str("fact", string(notif.Fact)).Msg("❌ Could not send DM")
		return
	}
	n.messageID = msg.ID
}

func (n *Notifier) Clear(ctx context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.messageID == "" {
		return
	}
	if err := n.session.ChannelMessageDelete(n.channelID, n.messageID, discordgo.WithContext(ctx)); err != nil {
		n.logger.Warn().Err(err).Str("message", n.messageID).Msg("⚠️ Could not delete DM")
	}
	n.messageID = ""
}

// Close closes the bot session.
func (n *Notifier) Close() error {
	if n.closer == nil {
		return nil
	}
	return n.closer()
}
