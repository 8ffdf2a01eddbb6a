package relay

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const acquireTimeout = 30 * time.Second

// WebhookCache maps a text channel to the webhook used to relay into it. Entries are added on
// first use and live for the lifetime of the process. Concurrent misses for the same channel
// share a single lookup, so a channel never gets two webhooks from one process.
type WebhookCache struct {
	sess  Session
	name  string
	log   *zap.Logger
	group singleflight.Group

	mu    sync.RWMutex
	hooks map[string]*discordgo.Webhook
}

func NewWebhookCache(sess Session, name string, log *zap.Logger) *WebhookCache {
	return &WebhookCache{
		sess:  sess,
		name:  name,
		log:   log,
		hooks: make(map[string]*discordgo.Webhook),
	}
}

func (c *WebhookCache) Get(channelID string) (*discordgo.Webhook, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	wh, ok := c.hooks[channelID]
	return wh, ok
}

func (c *WebhookCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.hooks)
}

// GetOrCreate returns the cached webhook for channelID. On a miss it takes the first usable
// webhook already on the channel, or creates one. Failures leave the cache unchanged.
func (c *WebhookCache) GetOrCreate(ctx context.Context, channelID string) (*discordgo.Webhook, error) {
	if wh, ok := c.Get(channelID); ok {
		return wh, nil
	}

	ch := c.group.DoChan(channelID, func() (interface{}, error) {
		if wh, ok := c.Get(channelID); ok {
			return wh, nil
		}

		// shared by every waiter, so it outlives the caller that started it
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), acquireTimeout)
		defer cancel()

		wh, err := c.acquire(shared, channelID)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.hooks[channelID] = wh
		c.mu.Unlock()
		return wh, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*discordgo.Webhook), nil
	case <-ctx.Done():
		return nil, newStepError(StepAcquire, ctx.Err())
	}
}

func (c *WebhookCache) acquire(ctx context.Context, channelID string) (*discordgo.Webhook, error) {
	hooks, err := c.sess.ChannelWebhooks(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, newStepError(StepAcquire, err)
	}
	for _, wh := range hooks {
		if usable(wh) {
			c.log.Debug("reusing channel webhook", zap.String("channel.id", channelID), zap.String("webhook.id", wh.ID))
			return wh, nil
		}
	}

	wh, err := c.sess.WebhookCreate(channelID, c.name, "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, newStepError(StepAcquire, err)
	}
	c.log.Info("created channel webhook", zap.String("channel.id", channelID), zap.String("webhook.id", wh.ID))
	return wh, nil
}

// usable reports whether the bot can execute wh. Channel follower and application webhooks
// come back without a token.
func usable(wh *discordgo.Webhook) bool {
	return wh != nil && wh.Token != "" && (wh.Type == 0 || wh.Type == discordgo.WebhookTypeIncoming)
}
