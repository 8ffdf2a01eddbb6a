package discord

import "github.com/bwmarrin/discordgo"

// Channel looks the channel up in the state of every shard and falls back to the API.
func (d *Discord) Channel(cid string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	for _, s := range d.Sessions() {
		if ch, err := s.State.Channel(cid); err == nil {
			return ch, nil
		}
	}
	s, err := d.rest()
	if err != nil {
		return nil, err
	}
	return s.Channel(cid, options...)
}

func (d *Discord) ChannelWebhooks(cid string, options ...discordgo.RequestOption) ([]*discordgo.Webhook, error) {
	s, err := d.rest()
	if err != nil {
		return nil, err
	}
	return s.ChannelWebhooks(cid, options...)
}

func (d *Discord) WebhookCreate(cid, name, avatar string, options ...discordgo.RequestOption) (*discordgo.Webhook, error) {
	s, err := d.rest()
	if err != nil {
		return nil, err
	}
	return s.WebhookCreate(cid, name, avatar, options...)
}

func (d *Discord) WebhookThreadExecute(webhookID, token string, wait bool, threadID string, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	s, err := d.rest()
	if err != nil {
		return nil, err
	}
	return s.WebhookThreadExecute(webhookID, token, wait, threadID, data, options...)
}

func (d *Discord) ChannelMessageDelete(cid, mid string, options ...discordgo.RequestOption) error {
	s, err := d.rest()
	if err != nil {
		return err
	}
	return s.ChannelMessageDelete(cid, mid, options...)
}
