package relay

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		user *discordgo.User
		mem  *discordgo.Member
		want string
	}{
		{"nickname", &discordgo.User{Username: "bob", GlobalName: "Bob"}, &discordgo.Member{Nick: "Bobby"}, "Bobby"},
		{"global name", &discordgo.User{Username: "bob", GlobalName: "Bob"}, &discordgo.Member{}, "Bob"},
		{"username", &discordgo.User{Username: "bob"}, nil, "bob"},
		{"nothing", nil, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(tt.user, tt.mem))
		})
	}
}

func TestAvatarURL(t *testing.T) {
	user := &discordgo.User{ID: "1", Avatar: "abc"}

	m := &discordgo.Message{GuildID: "g", Author: user}
	assert.Equal(t, user.AvatarURL(""), AvatarURL(m))

	m.Member = &discordgo.Member{Avatar: "def"}
	assert.Equal(t, discordgo.EndpointGuildMemberAvatar("g", "1", "def"), AvatarURL(m))

	m.Member = &discordgo.Member{Avatar: "a_def"}
	assert.Equal(t, discordgo.EndpointGuildMemberAvatarAnimated("g", "1", "a_def"), AvatarURL(m))

	assert.Empty(t, AvatarURL(&discordgo.Message{}))
}

func TestContent(t *testing.T) {
	alice := &discordgo.Message{Author: &discordgo.User{Username: "alice", GlobalName: "Alice"}}
	ref := &discordgo.MessageReference{MessageID: "1"}

	tests := []struct {
		name string
		msg  *discordgo.Message
		want string
	}{
		{"plain", &discordgo.Message{Content: "hello"}, "hello"},
		{"empty", &discordgo.Message{}, ""},
		{"reply", &discordgo.Message{Content: "hi", MessageReference: ref, ReferencedMessage: alice}, "(reply to Alice) hi"},
		{"reply without text", &discordgo.Message{MessageReference: ref, ReferencedMessage: alice}, "(reply to Alice) "},
		{"unresolved reply", &discordgo.Message{Content: "hi", MessageReference: ref}, "hi"},
		{"reply uses nickname", &discordgo.Message{Content: "hi", MessageReference: ref, ReferencedMessage: &discordgo.Message{
			Author: &discordgo.User{Username: "alice"},
			Member: &discordgo.Member{Nick: "Al"},
		}}, "(reply to Al) hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Content(tt.msg))
		})
	}
}

func TestIsSpoiler(t *testing.T) {
	assert.True(t, IsSpoiler(&discordgo.MessageAttachment{Filename: "SPOILER_a.png"}))
	assert.False(t, IsSpoiler(&discordgo.MessageAttachment{Filename: "a.png"}))
	assert.False(t, IsSpoiler(&discordgo.MessageAttachment{Filename: "spoiler_a.png"}))
}
