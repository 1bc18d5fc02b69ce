package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"spacyboard/internal/config"
	"spacyboard/internal/logging"
	"spacyboard/pkg/discord"
)

// app is what every subcommand needs once the root command has loaded the
// configuration.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "board",
		Short: "Live session board",
		Long: `board follows the facts pushed by a Spacy server and keeps a live
session board: the waiting queue, the slot grid, the up-next status and
the viewer's notifications. It also submits the board's forms.

Every flag can be set through the environment with the BOARD_ prefix
(BOARD_SERVER, BOARD_VIEWER, ...) or in a .env file.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.String("server", "", "base URL of the Spacy server")
	flags.String("viewer", "", "sponsor name of the viewing user")
	flags.String("locale", "", "message locale (fr, en)")
	flags.String("transport", "", "fact stream transport: sse, websocket or postgres")
	flags.String("stream-url", "", "fact stream URL (defaults to <server>/facts)")
	flags.String("database-url", "", "PostgreSQL URL of the fact log")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (console, json)")
	for _, name := range []string{"server", "viewer", "locale", "transport", "stream-url", "database-url", "log-level", "log-format"} {
		if err := a.v.BindPFlag(viperKey(name), flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}

	root.AddCommand(
		newWatchCmd(a),
		newSuggestCmd(a),
		newClaimCmd(a),
		newDeleteCmd(a),
		newMoveCmd(a),
		newMigrateCmd(a),
		newEmitCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.v)
	if err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		return err
	}
	a.cfg = cfg

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr})
	logging.SetDefault(logger)
	a.logger = logging.Default()
	cmd.SetContext(logging.WithLogger(cmd.Context(), a.logger))
	return nil
}

// bindFlags binds the local flags of cmd to the configuration.
func (a *app) bindFlags(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := a.v.BindPFlag(viperKey(name), cmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}

// fail reports err the way a user should read it and returns it for the
// exit status.
func (a *app) fail(action string, err error) error {
	msg := discord.DomainErrorMessage(err)
	if msg == "" {
		msg = err.Error()
	}
	fmt.Fprintf(os.Stderr, "❌ %s: %s\n", action, msg)
	if a.logger != nil {
		a.logger.Debug().Err(err).Str("action", action).Msg("Command failed")
	}
	return err
}

func viperKey(flag string) string {
	return strings.ReplaceAll(flag, "-", "_")
}
