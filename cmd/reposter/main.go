package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/intrntsrfr/reposter/bot"
	"github.com/intrntsrfr/reposter/config"
	"github.com/intrntsrfr/reposter/journal"
	"github.com/intrntsrfr/reposter/logger"
	"github.com/intrntsrfr/reposter/relay"
	"go.uber.org/zap"
)

const flushTimeout = 2 * time.Second

func main() {
	os.Exit(run())
}

// run starts the bot and blocks until the process is signalled. It returns the exit code once
// every deferred close and flush has run.
func run() int {
	path := os.Getenv("REPOSTER_CONFIG")
	if path == "" {
		path = config.DefaultPath
	}

	c, err := config.Load(path)
	if err != nil {
		z, _ := logger.New("info", nil)
		if errors.Is(err, config.ErrMissingToken) {
			return fatal(z, "no token provided, set DISCORD_TOKEN")
		}
		return fatal(z, "failed to load config", zap.Error(err))
	}

	var hub *sentry.Hub
	if c.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: c.SentryDSN}); err != nil {
			z, _ := logger.New("info", nil)
			return fatal(z, "failed to init sentry", zap.Error(err))
		}
		hub = sentry.CurrentHub()
	}

	z, err := logger.New(c.LogLevel, hub)
	if err != nil {
		z, _ = logger.New("info", hub)
		return fatal(z, "bad log level", zap.String("level", c.LogLevel), zap.Error(err))
	}
	defer z.Sync()

	j, err := journal.Open(c.JournalPath, c.JournalDSN, z.Named("journal"))
	if err != nil {
		return fatal(z, "failed to open relay journal", zap.Error(err))
	}
	defer j.Close()

	b, err := bot.NewBot(&bot.Config{
		Log:         z.Named("bot"),
		Journal:     j,
		Fetcher:     relay.NewHTTPFetcher(time.Duration(c.AttachmentTimeout), c.MaxAttachmentSize),
		Token:       c.Token,
		Shards:      c.Shards,
		Prefix:      c.Prefix,
		WebhookName: c.WebhookName,
		AllowList:   c.AllowList(),
	})
	if err != nil {
		return fatal(z, "failed to create bot", zap.Error(err))
	}
	defer b.Close()

	if err := b.Run(context.Background()); err != nil {
		return fatal(z, "failed to run bot", zap.Error(err))
	}
	z.Info("reposter is running", zap.Int("allowed_channels", len(c.AllowedChannels)))

	// block until ctrl-c
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
	<-sc
	sentry.Flush(flushTimeout)
	return 0
}

// fatal logs a startup failure and flushes Sentry before the process exits with status 1.
func fatal(z *zap.Logger, msg string, fields ...zap.Field) int {
	z.Error(msg, fields...)
	sentry.Flush(flushTimeout)
	return 1
}
