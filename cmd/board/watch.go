package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"spacyboard/internal/adapters/console"
	"spacyboard/internal/adapters/discord"
	"spacyboard/internal/adapters/formbridge"
	"spacyboard/internal/adapters/include"
	"spacyboard/internal/adapters/sse"
	"spacyboard/internal/adapters/websocket"
	"spacyboard/internal/application"
	"spacyboard/internal/bus"
	"spacyboard/internal/config"
	"spacyboard/internal/domain"
	"spacyboard/internal/infrastructure/database"
	"spacyboard/internal/infrastructure/i18n"
	"spacyboard/internal/ports/output"
	"spacyboard/pkg/tz"
)

func newWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the fact stream and draw the board",
		Long: `watch opens the fact stream and keeps the board up to date until
interrupted. The grid is the product of --rooms and --times.

On a terminal, typing "<room> <time>" claims that slot when it shows your
claim action.`,
		RunE: a.runWatch,
	}
	cmd.Flags().String("rooms", "", "comma separated rooms of the grid")
	cmd.Flags().String("times", "", "comma separated times of the grid")
	cmd.Flags().String("schedule-url", "", "URL of the full schedule view to keep included")
	cmd.Flags().String("notify-mode", "", "notifications: sponsor, schedule or all")
	cmd.Flags().String("notify-facts", "", "comma separated fact types that notify")
	cmd.Flags().String("timezone", "", "display time zone")
	cmd.Flags().Bool("replay", true, "replay the fact log on open (postgres transport)")
	a.bindFlags(cmd, "rooms", "times", "schedule-url", "notify-mode", "notify-facts", "timezone", "replay")
	return cmd
}

func (a *app) runWatch(cmd *cobra.Command, _ []string) error {
	cfg, logger := a.cfg, a.logger
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	loc, err := tz.Load(cfg.Timezone)
	if err != nil {
		logger.Warn().Err(err).Str("timezone", cfg.Timezone).Msg("⚠️ Unknown time zone, using UTC")
	}

	screen := console.New(os.Stdout, cfg.Slots(), isatty.IsTerminal(os.Stdout.Fd()))
	bridge := formbridge.New(http.DefaultClient, logger)
	defer bridge.Wait()

	views := notificationViews{screen}
	if cfg.DiscordToken != "" {
		notifier, err := discord.NewNotifier(cfg.DiscordToken, cfg.DiscordUserID, loc, logger)
		if err != nil {
			return a.fail("discord", err)
		}
		defer notifier.Close()
		if err := notifier.Open(ctx); err != nil {
			logger.Error().Err(err).Msg("❌ Discord notifications disabled")
		} else {
			views = append(views, notifier)
		}
	}

	var schedule output.ScheduleInclude
	if cfg.ScheduleURL != "" {
		inc := include.New(cfg.ScheduleURL, http.DefaultClient, screen.SetSchedule, logger)
		defer inc.Wait()
		schedule = inc
	}

	b := bus.New(logger)
	board := application.NewBoard(application.BoardDeps{
		Viewer: cfg.Viewer,
		Slots:  cfg.Slots(),
		Locale: cfg.Locale,
		Notifications: application.NotificationsConfig{
			Mode:     cfg.NotifyMode,
			Facts:    cfg.NotifyFacts,
			Location: loc,
		},
		QueueView:        screen,
		SlotView:         screen,
		StatusView:       screen,
		NotificationView: views,
		Include:          schedule,
		Translator:       i18n.NewTranslator(cfg.Locale, logger),
		Submitter:        bridge,
		Server:           cfg.Server,
	}, logger)
	if err := board.Attach(b); err != nil {
		logger.Info().Err(err).Msg("Board attached with some components disabled")
	}
	defer board.Detach()
	board.Queue.Announce()

	stream, closeStream, err := openStream(ctx, cfg, a)
	if err != nil {
		return a.fail("stream", err)
	}
	defer closeStream()

	source := application.NewFactSource(stream, b, logger)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.Run(gctx)
	})
	g.Go(func() error {
		defer cancel()
		return source.Run(gctx)
	})

	if f, ok := cmd.InOrStdin().(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		go readClaims(gctx, f, board.Grid, board.Status, logger)
	}

	logger.Info().
		Str("transport", cfg.Transport).
		Str("viewer", cfg.Viewer).
		Int("slots", len(cfg.Slots())).
		Msg("🤖 Board online, CTRL+C to quit")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return a.fail("watch", err)
	}
	return nil
}

// openStream builds the fact stream of the configured transport.
func openStream(ctx context.Context, cfg *config.Config, a *app) (output.FactStream, func(), error) {
	switch cfg.Transport {
	case config.TransportSSE:
		return sse.New(cfg.StreamURL, http.DefaultClient, a.logger), func() {}, nil
	case config.TransportWebSocket:
		return websocket.New(cfg.StreamURL, nil, a.logger), func() {}, nil
	case config.TransportPostgres:
		pool, err := database.NewPool(ctx, cfg.DatabaseURL, a.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
		}
		return database.NewListenStream(pool, cfg.ListenChannel, cfg.Replay, a.logger), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("transport %q: %w", cfg.Transport, domain.ErrMissingCollaborator)
	}
}

// notificationViews shows every notification on each of its views.
type notificationViews []output.NotificationView

func (vs notificationViews) Show(ctx context.Context, n output.Notification) {
	for _, v := range vs {
		v.Show(ctx, n)
	}
}

func (vs notificationViews) Clear(ctx context.Context) {
	for _, v := range vs {
		v.Clear(ctx)
	}
}
