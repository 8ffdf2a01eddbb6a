package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const fetchConcurrency = 4

var ErrAttachmentTooLarge = errors.New("attachment is too large")

// Fetcher downloads an attachment into a file that can be sent again.
type Fetcher interface {
	Fetch(ctx context.Context, a *discordgo.MessageAttachment) (*discordgo.File, error)
}

type HTTPFetcher struct {
	client  *http.Client
	maxSize int
}

// NewHTTPFetcher returns a fetcher that refuses attachments bigger than maxSize bytes.
// A maxSize of zero or less means no limit.
func NewHTTPFetcher(timeout time.Duration, maxSize int) *HTTPFetcher {
	return &HTTPFetcher{
		client:  &http.Client{Timeout: timeout},
		maxSize: maxSize,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, a *discordgo.MessageAttachment) (*discordgo.File, error) {
	if f.maxSize > 0 && a.Size > f.maxSize {
		return nil, ErrAttachmentTooLarge
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return nil, err
	}
	res, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %v", res.StatusCode)
	}

	var body io.Reader = res.Body
	if f.maxSize > 0 {
		body = io.LimitReader(res.Body, int64(f.maxSize)+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if f.maxSize > 0 && len(data) > f.maxSize {
		return nil, ErrAttachmentTooLarge
	}

	return &discordgo.File{
		Name:        a.Filename,
		ContentType: a.ContentType,
		Reader:      bytes.NewReader(data),
	}, nil
}

// fetchAttachments downloads every attachment of m, keeping their order. An attachment that
// fails is logged and left out; the rest are still returned.
func (r *Relayer) fetchAttachments(ctx context.Context, m *discordgo.Message) ([]*discordgo.File, int) {
	if len(m.Attachments) == 0 {
		return nil, 0
	}

	fetched := make([]*discordgo.File, len(m.Attachments))
	var g errgroup.Group
	g.SetLimit(fetchConcurrency)
	for i, a := range m.Attachments {
		g.Go(func() error {
			f, err := r.fetcher.Fetch(ctx, a)
			if err != nil {
				r.log.Warn("failed to fetch attachment",
					zap.String("message.id", m.ID),
					zap.String("attachment.id", a.ID),
					zap.String("attachment.name", a.Filename),
					zap.Error(err))
				return nil
			}
			if IsSpoiler(a) && !IsSpoilerName(f.Name) {
				f.Name = spoilerPrefix + f.Name
			}
			fetched[i] = f
			return nil
		})
	}
	_ = g.Wait()

	files := make([]*discordgo.File, 0, len(fetched))
	for _, f := range fetched {
		if f != nil {
			files = append(files, f)
		}
	}
	return files, len(m.Attachments) - len(files)
}
