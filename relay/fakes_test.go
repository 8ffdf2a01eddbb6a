package relay

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
)

var (
	errForbidden = &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusForbidden, Status: "403 Forbidden"},
		Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeMissingPermissions, Message: "Missing Permissions"},
	}
	errServer = &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusInternalServerError, Status: "500 Internal Server Error"},
	}
)

type sentMessage struct {
	webhookID string
	threadID  string
	params    *discordgo.WebhookParams
	files     map[string]string
}

type fakeSession struct {
	mu       sync.Mutex
	channels map[string]*discordgo.Channel
	hooks    map[string][]*discordgo.Webhook

	listErr   error
	createErr error
	sendErr   error
	deleteErr error

	// listGate, when set, blocks ChannelWebhooks until it is closed.
	listGate chan struct{}
	// listEntered, when set, receives once ChannelWebhooks is called.
	listEntered chan struct{}
	// listCtxErr is the state of the request context when the last list went out.
	listCtxErr error

	calls   []string
	lists   int
	creates int
	sent    []sentMessage
	deleted []string
}

func newFakeSession(channels ...*discordgo.Channel) *fakeSession {
	f := &fakeSession{
		channels: make(map[string]*discordgo.Channel),
		hooks:    make(map[string][]*discordgo.Webhook),
	}
	for _, ch := range channels {
		f.channels[ch.ID] = ch
	}
	return f
}

func (f *fakeSession) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeSession) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("channel " + channelID)
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound}}
	}
	return ch, nil
}

func (f *fakeSession) ChannelWebhooks(channelID string, options ...discordgo.RequestOption) ([]*discordgo.Webhook, error) {
	if f.listEntered != nil {
		f.listEntered <- struct{}{}
	}
	if f.listGate != nil {
		<-f.listGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCtxErr = requestContext(options).Err()
	f.record("list " + channelID)
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.hooks[channelID], nil
}

func (f *fakeSession) WebhookCreate(channelID, name, _ string, _ ...discordgo.RequestOption) (*discordgo.Webhook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create " + channelID)
	f.creates++
	if f.createErr != nil {
		return nil, f.createErr
	}
	wh := &discordgo.Webhook{
		ID:        "wh-" + channelID,
		Type:      discordgo.WebhookTypeIncoming,
		ChannelID: channelID,
		Name:      name,
		Token:     "token",
	}
	f.hooks[channelID] = append(f.hooks[channelID], wh)
	return wh, nil
}

func (f *fakeSession) WebhookThreadExecute(webhookID, _ string, _ bool, threadID string, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("send " + webhookID)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	files := make(map[string]string)
	for _, file := range data.Files {
		b, _ := io.ReadAll(file.Reader)
		files[file.Name] = string(b)
	}
	f.sent = append(f.sent, sentMessage{
		webhookID: webhookID,
		threadID:  threadID,
		params:    data,
		files:     files,
	})
	return &discordgo.Message{ID: "copy-" + webhookID, WebhookID: webhookID, Content: data.Content}, nil
}

func (f *fakeSession) ChannelMessageDelete(channelID, messageID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete " + messageID)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, channelID+"/"+messageID)
	return nil
}

// requestContext returns the context the options would attach to a request.
func requestContext(options []discordgo.RequestOption) context.Context {
	cfg := &discordgo.RequestConfig{Request: httptest.NewRequest(http.MethodGet, "/", nil)}
	for _, opt := range options {
		opt(cfg)
	}
	return cfg.Request.Context()
}

func (f *fakeSession) webhookCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists + f.creates
}

type fakeFetcher struct {
	fail map[string]bool
}

func (f *fakeFetcher) Fetch(_ context.Context, a *discordgo.MessageAttachment) (*discordgo.File, error) {
	if f.fail[a.ID] {
		return nil, errors.New("connection reset")
	}
	return &discordgo.File{
		Name:        a.Filename,
		ContentType: a.ContentType,
		Reader:      bytes.NewReader([]byte(strings.ToUpper(a.Filename))),
	}, nil
}

func textChannel(id string) *discordgo.Channel {
	return &discordgo.Channel{ID: id, GuildID: "g", Type: discordgo.ChannelTypeGuildText}
}

func thread(id, parentID string) *discordgo.Channel {
	return &discordgo.Channel{ID: id, GuildID: "g", ParentID: parentID, Type: discordgo.ChannelTypeGuildPublicThread}
}

func message(id, channelID, content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        id,
		ChannelID: channelID,
		GuildID:   "g",
		Content:   content,
		Author: &discordgo.User{
			ID:         "u1",
			Username:   "bob",
			GlobalName: "Bob",
			Avatar:     "abc",
		},
	}
}
