// Package journal keeps a record of relayed messages, so duplicate states (a copy was posted but
// the original could not be removed) can be found after the fact.
package journal

import (
	"context"
	"time"

	"github.com/intrntsrfr/reposter/relay"
	"go.uber.org/zap"
)

type Entry struct {
	MessageID   string    `db:"message_id"`
	GuildID     string    `db:"guild_id"`
	ChannelID   string    `db:"channel_id"`
	ThreadID    string    `db:"thread_id"`
	AuthorID    string    `db:"author_id"`
	WebhookID   string    `db:"webhook_id"`
	CopyID      string    `db:"copy_id"`
	Deleted     bool      `db:"deleted"`
	DeleteError string    `db:"delete_error"`
	RelayedAt   time.Time `db:"relayed_at"`
}

// NewEntry builds an entry for a sent relay. It returns nil when nothing was sent.
func NewEntry(guildID, messageID, authorID string, res *relay.Result) *Entry {
	if res == nil || !res.Sent {
		return nil
	}
	e := &Entry{
		MessageID: messageID,
		GuildID:   guildID,
		ChannelID: res.ChannelID,
		ThreadID:  res.ThreadID,
		AuthorID:  authorID,
		CopyID:    res.CopyID(),
		Deleted:   res.Deleted,
		RelayedAt: time.Now().UTC(),
	}
	if res.Webhook != nil {
		e.WebhookID = res.Webhook.ID
	}
	if res.DeleteErr != nil {
		e.DeleteError = res.DeleteErr.Error()
	}
	return e
}

type Journal interface {
	Record(ctx context.Context, e *Entry) error
	// Duplicates returns the entries whose original message was not deleted.
	Duplicates(ctx context.Context) ([]*Entry, error)
	Close() error
}

// Nop is used when no journal is configured.
type Nop struct{}

func (Nop) Record(context.Context, *Entry) error { return nil }

func (Nop) Duplicates(context.Context) ([]*Entry, error) { return nil, nil }

func (Nop) Close() error { return nil }

// Open picks the journal backend: postgres when dsn is set, badger when path is set, otherwise
// a journal that keeps nothing.
func Open(path, dsn string, log *zap.Logger) (Journal, error) {
	switch {
	case dsn != "":
		return NewPsql(dsn, log)
	case path != "":
		return NewBadger(path, log)
	default:
		return Nop{}, nil
	}
}
