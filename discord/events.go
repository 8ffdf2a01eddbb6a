package discord

import "github.com/bwmarrin/discordgo"

func onReady(d *Discord) func(s *discordgo.Session, r *discordgo.Ready) {
	return func(s *discordgo.Session, r *discordgo.Ready) {
		d.track(s)
		d.Events <- r
	}
}

func onDisconnect(e chan interface{}) func(s *discordgo.Session, d *discordgo.Disconnect) {
	return func(s *discordgo.Session, d *discordgo.Disconnect) {
		e <- d
	}
}

func onMessageCreate(d *Discord) func(s *discordgo.Session, m *discordgo.MessageCreate) {
	return func(s *discordgo.Session, m *discordgo.MessageCreate) {
		d.track(s)
		d.Events <- m
	}
}
