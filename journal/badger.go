package journal

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/dgraph-io/badger/options"
	"github.com/intrntsrfr/reposter/logger"
	"go.uber.org/zap"
)

const (
	entryTTL   = 7 * 24 * time.Hour
	gcInterval = time.Hour
	keyPrefix  = "relay:"
)

// Badger is an embedded journal. Entries expire after a week.
type Badger struct {
	db   *badger.DB
	log  *zap.Logger
	stop chan struct{}
}

func NewBadger(path string, log *zap.Logger) (*Badger, error) {
	opts := badger.DefaultOptions(path).WithLogger(logger.NewZapLogger(log.Named("badger")))
	opts.Truncate = true
	opts.ValueLogLoadingMode = options.FileIO
	opts.NumVersionsToKeep = 1

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	s := &Badger{
		db:   db,
		log:  log,
		stop: make(chan struct{}),
	}
	go s.runGC()
	return s, nil
}

func (s *Badger) runGC() {
	gcTimer := time.NewTicker(gcInterval)
	defer gcTimer.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-gcTimer.C:
			if err := s.db.RunValueLogGC(0.5); err != nil && err != badger.ErrNoRewrite {
				s.log.Error("failed to run gc", zap.Error(err))
			}
		}
	}
}

func (s *Badger) Close() error {
	close(s.stop)
	return s.db.Close()
}

func entryKey(e *Entry) []byte {
	return []byte(fmt.Sprintf("%v%v:%v", keyPrefix, e.ChannelID, e.MessageID))
}

func (s *Badger) Record(_ context.Context, e *Entry) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(entryKey(e), buf.Bytes()).WithTTL(entryTTL))
	})
}

// get returns the entry for a relayed message, or badger.ErrKeyNotFound.
func (s *Badger) get(_ context.Context, channelID, messageID string) (*Entry, error) {
	var body []byte
	if err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(entryKey(&Entry{ChannelID: channelID, MessageID: messageID}))
		if err != nil {
			return err
		}
		body, err = item.ValueCopy(nil)
		return err
	}); err != nil {
		return nil, err
	}

	e := &Entry{}
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Badger) Duplicates(_ context.Context) ([]*Entry, error) {
	var entries []*Entry
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			body, err := it.Item().ValueCopy(nil)
			if err != nil {
				s.log.Error("failed to read entry", zap.Error(err))
				continue
			}
			e := &Entry{}
			if err := gob.NewDecoder(bytes.NewReader(body)).Decode(e); err != nil {
				s.log.Error("failed to decode entry", zap.Error(err))
				continue
			}
			if !e.Deleted {
				entries = append(entries, e)
			}
		}
		return nil
	})
	return entries, err
}
