package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"spacyboard/internal/domain/entities"
	"spacyboard/internal/infrastructure/database"
	"spacyboard/internal/infrastructure/wire"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the fact log schema",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := a.cfg.RequireDatabase(); err != nil {
				return a.fail("migrate", err)
			}
			if err := database.RunMigrations(a.cfg.DatabaseURL, a.logger); err != nil {
				return a.fail("migrate", err)
			}
			return nil
		},
	}
}

func newEmitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emit <fact-type>",
		Short: "Append a fact to the fact log by hand",
		Long: `emit appends one fact to the board_facts log; boards listening with
the postgres transport receive it at once. Useful to rehearse a schedule
without a server.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.RequireDatabase(); err != nil {
				return a.fail("emit", err)
			}

			fields := make(map[string]string)
			for _, flag := range []string{"sponsor", "id", "title", "room", "time"} {
				fields[flag], _ = cmd.Flags().GetString(flag)
			}
			fact, err := buildFact(args[0], fields)
			if err != nil {
				return a.fail("emit", err)
			}

			pool, err := database.NewPool(cmd.Context(), a.cfg.DatabaseURL, a.logger)
			if err != nil {
				return a.fail("emit", err)
			}
			defer pool.Close()

			row, err := database.AppendFact(cmd.Context(), pool, fact)
			if err != nil {
				return a.fail("emit", err)
			}
			fmt.Printf("✅ %s logged as #%d\n", fact.Type(), row)
			return nil
		},
	}
	cmd.Flags().String("sponsor", "", "sponsor of the session")
	cmd.Flags().String("id", "", "session id")
	cmd.Flags().String("title", "", "session title")
	cmd.Flags().String("room", "", "room of the slot")
	cmd.Flags().String("time", "", "time of the slot")
	return cmd
}

// buildFact turns emit's flag values into a decoded fact, so a fact the
// boards would drop is refused before it reaches the log.
func buildFact(factType string, fields map[string]string) (entities.Fact, error) {
	envelope := map[string]any{wire.KeyFact: factType}
	for flag, key := range map[string]string{"sponsor": wire.KeySponsor, "room": wire.KeyRoom, "time": wire.KeyTime} {
		if v := fields[flag]; v != "" {
			envelope[key] = v
		}
	}
	if id := fields["id"]; id != "" {
		envelope[wire.KeySession] = map[string]any{wire.KeyID: id, wire.KeyTitle: fields["title"]}
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, err
	}
	return wire.Decode(data)
}
