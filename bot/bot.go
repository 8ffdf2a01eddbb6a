package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/meido/pkg/mio"
	"github.com/intrntsrfr/meido/pkg/utils"
	"github.com/intrntsrfr/reposter/discord"
	"github.com/intrntsrfr/reposter/journal"
	"github.com/intrntsrfr/reposter/logger"
	"github.com/intrntsrfr/reposter/relay"
	"go.uber.org/zap"
)

const relayTimeout = 2 * time.Minute

type Bot struct {
	Bot       *mio.Bot
	logger    mio.Logger
	log       *zap.Logger
	disc      *discord.Discord
	relayer   *relay.Relayer
	journal   journal.Journal
	config    *Config
	startTime time.Time
}

type Config struct {
	Log         *zap.Logger
	Journal     journal.Journal
	Fetcher     relay.Fetcher
	Token       string
	Shards      int
	Prefix      string
	WebhookName string
	AllowList   map[string]struct{}
}

func NewBot(c *Config) (*Bot, error) {
	if c.Journal == nil {
		c.Journal = journal.Nop{}
	}
	if c.Shards < 1 {
		shards, err := discord.RecommendedShards(c.Token)
		if err != nil {
			return nil, err
		}
		c.Shards = shards
	}

	cfg := utils.NewConfig()
	cfg.Set("token", c.Token)
	cfg.Set("shards", c.Shards)

	zl := logger.NewZapLogger(c.Log)
	mb := mio.NewBotBuilder(cfg).
		WithDefaultHandlers().
		WithLogger(zl).
		Build()

	disc := discord.NewDiscord(c.Log.Named("discord"))
	b := &Bot{
		Bot:     mb,
		logger:  zl,
		log:     c.Log,
		disc:    disc,
		journal: c.Journal,
		config:  c,
		relayer: relay.NewRelayer(&relay.Config{
			Session:     disc,
			Fetcher:     c.Fetcher,
			Log:         c.Log.Named("relay"),
			AllowList:   c.AllowList,
			WebhookName: c.WebhookName,
		}),
		startTime: time.Now(),
	}
	return b, nil
}

func (b *Bot) Run(ctx context.Context) error {
	b.registerModules()
	b.registerDiscordHandlers()
	go b.listen(b.disc.Events)
	return b.Bot.Run(ctx)
}

func (b *Bot) Close() {
	b.log.Info("shutting down bot")
	b.Bot.Close()
}

func (b *Bot) registerModules() {
	modules := []mio.Module{
		NewModule(b.Bot, b.config.Prefix, b.logger),
	}
	for _, mod := range modules {
		b.Bot.RegisterModule(mod)
	}
}

func (b *Bot) registerDiscordHandlers() {
	for _, h := range b.disc.Handlers() {
		b.Bot.Discord.AddEventHandler(h)
	}
}

func (b *Bot) listen(evtCh <-chan interface{}) {
	for evt := range evtCh {
		switch e := evt.(type) {
		case *discordgo.Ready:
			go b.readyHandler(e)
		case *discordgo.Disconnect:
			go b.disconnectHandler(e)
		case *discordgo.MessageCreate:
			go b.messageCreateHandler(e)
		}
	}
}

func (b *Bot) readyHandler(r *discordgo.Ready) {
	b.log.Info("logged in", zap.String("user", r.User.String()), zap.Int("guilds", len(r.Guilds)))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	dups, err := b.journal.Duplicates(ctx)
	if err != nil {
		b.log.Error("failed to read relay journal", zap.Error(err))
		return
	}
	if len(dups) > 0 {
		b.log.Warn("relayed messages still have their original", zap.Int("count", len(dups)))
	}
}

func (b *Bot) disconnectHandler(_ *discordgo.Disconnect) {
	b.log.Info("disconnected", zap.Duration("uptime", time.Since(b.startTime).Round(time.Second)))
}

func (b *Bot) messageCreateHandler(m *discordgo.MessageCreate) {
	// commands are answered by the module and stay where they were posted
	if isCommand(b.config.Prefix, m.Message) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), relayTimeout)
	defer cancel()

	res := b.relayer.Handle(ctx, m.Message)

	authorID := ""
	if m.Author != nil {
		authorID = m.Author.ID
	}
	entry := journal.NewEntry(m.GuildID, m.ID, authorID, res)
	if entry == nil {
		return
	}
	if err := b.journal.Record(ctx, entry); err != nil {
		b.log.Error("failed to record relay", zap.String("message.id", m.ID), zap.Error(err))
	}
}
