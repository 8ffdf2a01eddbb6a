package journal

import (
	"context"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const schemaRelays = `
CREATE TABLE IF NOT EXISTS relays (
	channel_id   TEXT NOT NULL,
	message_id   TEXT NOT NULL,
	guild_id     TEXT NOT NULL,
	thread_id    TEXT NOT NULL,
	author_id    TEXT NOT NULL,
	webhook_id   TEXT NOT NULL,
	copy_id      TEXT NOT NULL,
	deleted      BOOLEAN NOT NULL,
	delete_error TEXT NOT NULL,
	relayed_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (channel_id, message_id)
);
`

type Psql struct {
	pool *sqlx.DB
	log  *zap.Logger
}

func NewPsql(connStr string, log *zap.Logger) (*Psql, error) {
	pool, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		log.Error("unable to connect to db", zap.Error(err))
		return nil, err
	}
	if _, err := pool.Exec(schemaRelays); err != nil {
		pool.Close()
		return nil, err
	}
	return &Psql{pool: pool, log: log}, nil
}

func (p *Psql) Close() error {
	return p.pool.Close()
}

func (p *Psql) Record(ctx context.Context, e *Entry) error {
	_, err := p.pool.NamedExecContext(ctx, `
INSERT INTO relays (channel_id, message_id, guild_id, thread_id, author_id, webhook_id, copy_id, deleted, delete_error, relayed_at)
VALUES (:channel_id, :message_id, :guild_id, :thread_id, :author_id, :webhook_id, :copy_id, :deleted, :delete_error, :relayed_at)
ON CONFLICT (channel_id, message_id) DO UPDATE SET
	copy_id = excluded.copy_id,
	deleted = excluded.deleted,
	delete_error = excluded.delete_error,
	relayed_at = excluded.relayed_at;`, e)
	return err
}

func (p *Psql) get(ctx context.Context, channelID, messageID string) (*Entry, error) {
	var e Entry
	err := p.pool.GetContext(ctx, &e, "SELECT * FROM relays WHERE channel_id=$1 AND message_id=$2;", channelID, messageID)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (p *Psql) Duplicates(ctx context.Context) ([]*Entry, error) {
	var entries []*Entry
	err := p.pool.SelectContext(ctx, &entries, "SELECT * FROM relays WHERE NOT deleted ORDER BY relayed_at;")
	return entries, err
}
