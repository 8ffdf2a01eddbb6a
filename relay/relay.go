package relay

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const DefaultWebhookName = "MessageReposter"

type Config struct {
	Session     Session
	Fetcher     Fetcher
	Log         *zap.Logger
	AllowList   map[string]struct{}
	WebhookName string
}

// Relayer reposts messages through channel webhooks under the author's name and avatar, then
// deletes the originals.
type Relayer struct {
	sess     Session
	fetcher  Fetcher
	log      *zap.Logger
	allow    map[string]struct{}
	webhooks *WebhookCache
}

func NewRelayer(c *Config) *Relayer {
	log := c.Log
	if log == nil {
		log = zap.NewNop()
	}
	fetcher := c.Fetcher
	if fetcher == nil {
		fetcher = NewHTTPFetcher(30*time.Second, 0)
	}
	name := c.WebhookName
	if name == "" {
		name = DefaultWebhookName
	}
	return &Relayer{
		sess:     c.Session,
		fetcher:  fetcher,
		log:      log,
		allow:    c.AllowList,
		webhooks: NewWebhookCache(c.Session, name, log.Named("webhooks")),
	}
}

func (r *Relayer) Webhooks() *WebhookCache {
	return r.webhooks
}

type Skip string

const (
	NotSkipped       Skip = ""
	SkipAuthor       Skip = "author is a bot or webhook"
	SkipAllowList    Skip = "channel is not allowed"
	SkipChannelKind  Skip = "destination is not a text channel"
	SkipEmptyMessage Skip = "nothing to repost"
)

// Result describes what happened to one message.
type Result struct {
	Skip Skip

	ChannelID string
	ThreadID  string
	Webhook   *discordgo.Webhook

	// Sent is set once the webhook accepted the copy.
	Sent        bool
	Copy        *discordgo.Message
	Attachments int
	Dropped     int

	// Deleted is set once the original is gone. A send followed by a failed delete leaves
	// DeleteErr set and both messages visible.
	Deleted   bool
	DeleteErr error
}

func (r *Result) Duplicate() bool {
	return r.Sent && !r.Deleted
}

func (r *Result) CopyID() string {
	if r.Copy == nil {
		return ""
	}
	return r.Copy.ID
}

type destination struct {
	channel *discordgo.Channel
	thread  *discordgo.Channel
}

// Relay runs the whole pipeline for m: filter, resolve, acquire, build, send, delete. A skipped
// message returns a Result with Skip set and no error. A failure before the copy is sent returns
// a *StepError and leaves the original alone.
func (r *Relayer) Relay(ctx context.Context, m *discordgo.Message) (*Result, error) {
	res := &Result{}

	if m.Author == nil || m.Author.Bot || m.WebhookID != "" {
		res.Skip = SkipAuthor
		return res, nil
	}
	if len(r.allow) > 0 {
		if _, ok := r.allow[m.ChannelID]; !ok {
			res.Skip = SkipAllowList
			return res, nil
		}
	}

	dest, err := r.resolve(ctx, m.ChannelID)
	if err != nil {
		return res, err
	}
	if !webhookChannel(dest.channel) {
		res.Skip = SkipChannelKind
		return res, nil
	}
	res.ChannelID = dest.channel.ID
	if dest.thread != nil {
		res.ThreadID = dest.thread.ID
	}

	wh, err := r.webhooks.GetOrCreate(ctx, dest.channel.ID)
	if err != nil {
		return res, err
	}
	res.Webhook = wh

	files, dropped := r.fetchAttachments(ctx, m)
	res.Attachments = len(files)
	res.Dropped = dropped

	params := buildParams(m, files)
	if params.Content == "" && len(params.Files) == 0 {
		res.Skip = SkipEmptyMessage
		return res, nil
	}

	cp, err := r.sess.WebhookThreadExecute(wh.ID, wh.Token, true, res.ThreadID, params, discordgo.WithContext(ctx))
	if err != nil {
		return res, newStepError(StepSend, err)
	}
	res.Sent = true
	res.Copy = cp

	if err := r.sess.ChannelMessageDelete(m.ChannelID, m.ID, discordgo.WithContext(ctx)); err != nil {
		res.DeleteErr = newStepError(StepDelete, err)
		return res, nil
	}
	res.Deleted = true
	return res, nil
}

// webhookChannel reports whether ch is a channel webhooks can post into: a standard text channel or
// an announcement channel.
func webhookChannel(ch *discordgo.Channel) bool {
	return ch.Type == discordgo.ChannelTypeGuildText || ch.Type == discordgo.ChannelTypeGuildNews
}

// resolve finds the channel a webhook has to live in. Webhooks belong to the parent of a thread
// and post into the thread by id.
func (r *Relayer) resolve(ctx context.Context, channelID string) (*destination, error) {
	ch, err := r.sess.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, newStepError(StepResolve, err)
	}
	if !ch.IsThread() {
		return &destination{channel: ch}, nil
	}

	parent, err := r.sess.Channel(ch.ParentID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, newStepError(StepResolve, err)
	}
	return &destination{channel: parent, thread: ch}, nil
}

// Handle relays m and logs the outcome. It never fails; the returned Result is for callers that
// keep a record of relays.
func (r *Relayer) Handle(ctx context.Context, m *discordgo.Message) *Result {
	res, err := r.Relay(ctx, m)

	fields := []zap.Field{
		zap.String("message.id", m.ID),
		zap.String("channel.id", m.ChannelID),
	}
	if m.Author != nil {
		fields = append(fields, zap.String("author.id", m.Author.ID))
	}
	if res.Webhook != nil {
		fields = append(fields, zap.String("webhook.id", res.Webhook.ID))
	}

	switch {
	case err != nil && PermissionDenied(err):
		r.log.Warn("relay abandoned, missing permission", append(fields, zap.Error(err))...)
	case err != nil:
		r.log.Error("relay abandoned", append(fields, zap.Error(err))...)
	case res.Skip != NotSkipped:
		r.log.Debug("message skipped", append(fields, zap.String("reason", string(res.Skip)))...)
	case res.DeleteErr != nil:
		r.log.Warn("relayed copy kept alongside original", append(fields, zap.Error(res.DeleteErr))...)
	default:
		r.log.Debug("relayed message", append(fields,
			zap.String("copy.id", res.CopyID()),
			zap.Int("attachments", res.Attachments),
			zap.Int("attachments.dropped", res.Dropped))...)
	}
	return res
}
