package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"spacyboard/internal/adapters/formbridge"
	"spacyboard/internal/application"
	"spacyboard/internal/domain/entities"
)

// withCommands runs do against the session commands of the viewer and
// waits for the form to be sent.
func (a *app) withCommands(action string, do func(*application.SessionCommands) error) error {
	bridge := formbridge.New(http.DefaultClient, a.logger)
	commands := application.NewSessionCommands(a.cfg.Server, a.cfg.Viewer, bridge, a.logger)
	if err := do(commands); err != nil {
		return a.fail(action, err)
	}
	bridge.Wait()
	fmt.Printf("✅ %s submitted\n", action)
	return nil
}

func newSuggestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest <title>",
		Short: "Suggest a session; it joins the waiting queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description, _ := cmd.Flags().GetString("description")
			return a.withCommands("suggest", func(c *application.SessionCommands) error {
				return c.Suggest(cmd.Context(), args[0], description)
			})
		},
	}
	cmd.Flags().String("description", "", "session description")
	return cmd
}

func newClaimCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim <session-id>",
		Short: "Schedule the up-next session into a slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot := slotFlags(cmd)
			return a.withCommands("claim", func(c *application.SessionCommands) error {
				return c.Claim(cmd.Context(), slot, entities.SessionID(args[0]))
			})
		},
	}
	addSlotFlags(cmd)
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Withdraw a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCommands("delete", func(c *application.SessionCommands) error {
				return c.Delete(cmd.Context(), entities.SessionID(args[0]))
			})
		},
	}
}

func newMoveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <session-id>",
		Short: "Move a scheduled session to another slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot := slotFlags(cmd)
			return a.withCommands("move", func(c *application.SessionCommands) error {
				return c.Move(cmd.Context(), entities.SessionID(args[0]), slot)
			})
		},
	}
	addSlotFlags(cmd)
	return cmd
}

func addSlotFlags(cmd *cobra.Command) {
	cmd.Flags().String("room", "", "room of the slot")
	cmd.Flags().String("time", "", "time of the slot")
}

func slotFlags(cmd *cobra.Command) entities.Slot {
	room, _ := cmd.Flags().GetString("room")
	at, _ := cmd.Flags().GetString("time")
	return entities.Slot{Room: room, Time: at}
}
