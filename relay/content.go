package relay

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const spoilerPrefix = "SPOILER_"

// allowedMentions keeps user pings working but never re-fires @everyone, @here or roles.
var allowedMentions = &discordgo.MessageAllowedMentions{
	Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers},
}

// DisplayName is the name shown for u in a guild: nickname, then global name, then username.
func DisplayName(u *discordgo.User, mem *discordgo.Member) string {
	if mem != nil && mem.Nick != "" {
		return mem.Nick
	}
	if u == nil {
		return ""
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// AvatarURL is the avatar shown for the author of m, preferring the guild avatar.
func AvatarURL(m *discordgo.Message) string {
	if m.Author == nil {
		return ""
	}
	if mem := m.Member; mem != nil && mem.Avatar != "" && m.GuildID != "" {
		if strings.HasPrefix(mem.Avatar, "a_") {
			return discordgo.EndpointGuildMemberAvatarAnimated(m.GuildID, m.Author.ID, mem.Avatar)
		}
		return discordgo.EndpointGuildMemberAvatar(m.GuildID, m.Author.ID, mem.Avatar)
	}
	return m.Author.AvatarURL("")
}

// ReplyAnnotation returns "(reply to <name>) " when m replies to a message that came along
// with the event, and "" otherwise.
func ReplyAnnotation(m *discordgo.Message) string {
	if m.MessageReference == nil || m.ReferencedMessage == nil || m.ReferencedMessage.Author == nil {
		return ""
	}
	ref := m.ReferencedMessage
	return fmt.Sprintf("(reply to %s) ", DisplayName(ref.Author, ref.Member))
}

// Content is the text posted through the webhook.
func Content(m *discordgo.Message) string {
	return ReplyAnnotation(m) + m.Content
}

// IsSpoiler reports whether a was posted as a spoiler. Discord marks spoilers by filename.
func IsSpoiler(a *discordgo.MessageAttachment) bool {
	return IsSpoilerName(a.Filename)
}

func IsSpoilerName(name string) bool {
	return strings.HasPrefix(name, spoilerPrefix)
}

// buildParams assembles the webhook payload for m.
func buildParams(m *discordgo.Message, files []*discordgo.File) *discordgo.WebhookParams {
	return &discordgo.WebhookParams{
		Content:         Content(m),
		Username:        DisplayName(m.Author, m.Member),
		AvatarURL:       AvatarURL(m),
		Files:           files,
		AllowedMentions: allowedMentions,
	}
}
