package discord

import (
	"github.com/bwmarrin/discordgo"
)

// GlobalName > Username
func resolveDisplayName(user *discordgo.User) string {
	if user == nil {
		return ""
	}
	if user.GlobalName != "" {
		return user.GlobalName
	}
	return user.Username
}
