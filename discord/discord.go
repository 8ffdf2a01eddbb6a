package discord

import (
	"errors"
	"sort"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

var ErrNoSession = errors.New("no shard session is connected yet")

// Discord tracks the shard sessions opened by the gateway owner and fans their Ready, Disconnect
// and MessageCreate events into Events.
type Discord struct {
	mu       sync.RWMutex
	sessions map[int]*discordgo.Session
	log      *zap.Logger

	Events chan interface{}
}

func NewDiscord(log *zap.Logger) *Discord {
	return &Discord{
		sessions: make(map[int]*discordgo.Session),
		log:      log,
		Events:   make(chan interface{}, 256),
	}
}

// Handlers returns the event handlers to add to every shard.
func (d *Discord) Handlers() []interface{} {
	return []interface{}{
		onReady(d),
		onDisconnect(d.Events),
		onMessageCreate(d),
	}
}

func (d *Discord) track(s *discordgo.Session) {
	if s == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.sessions[s.ShardID]; ok {
		return
	}
	d.sessions[s.ShardID] = s
	d.log.Debug("tracking session", zap.Int("shard", s.ShardID), zap.Int("shards", s.ShardCount))
}

// Sessions returns the tracked sessions ordered by shard id.
func (d *Discord) Sessions() []*discordgo.Session {
	d.mu.RLock()
	defer d.mu.RUnlock()
	list := make([]*discordgo.Session, 0, len(d.sessions))
	for _, s := range d.sessions {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ShardID < list[j].ShardID })
	return list
}

// rest returns the session used for REST calls. Every shard shares the token, so any will do.
func (d *Discord) rest() (*discordgo.Session, error) {
	list := d.Sessions()
	if len(list) == 0 {
		return nil, ErrNoSession
	}
	return list[0], nil
}

// RecommendedShards asks discord for the recommended shardcount for the bot.
func RecommendedShards(token string) (int, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return -1, err
	}

	resp, err := s.GatewayBot()
	if err != nil {
		return -1, err
	}
	if resp.Shards < 1 {
		return 1, nil
	}
	return resp.Shards, nil
}
