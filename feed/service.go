// Package feed turns a recipient's posts into display-ready items.
package feed

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/dataport/core"
	"github.com/poiesic/dataport/future"
	"github.com/poiesic/dataport/storage"
)

const (
	defaultPreviewWidth = 40
	ellipsis            = "…"
)

// Item is one display-ready feed entry.
type Item struct {
	ID      core.ID
	From    string
	Body    string
	Preview string // Body collapsed to one line and cut to the preview width
}

// Service builds feeds. It depends only on the data port.
type Service struct {
	port         storage.AsyncRepository
	previewWidth int
	logger       *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithPreviewWidth sets the number of runes kept in Item.Preview.
// Non-positive widths are ignored.
func WithPreviewWidth(width int) Option {
	return func(s *Service) {
		if width > 0 {
			s.previewWidth = width
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a feed service over port.
func NewService(port storage.AsyncRepository, opts ...Option) *Service {
	s := &Service{
		port:         port,
		previewWidth: defaultPreviewWidth,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "feed")
	return s
}

// Build resolves the feed of username in backend order. A missing recipient
// or an unavailable backend resolves an empty feed; mapping failures fail
// the Future.
func (s *Service) Build(ctx context.Context, username string) *future.Future[[]Item] {
	posts := s.port.FindPostsForRecipient(ctx, username)

	items := future.Map(posts, func(posts []*core.Post) ([]Item, error) {
		out := make([]Item, 0, len(posts))
		for _, p := range posts {
			out = append(out, s.item(p))
		}
		return out, nil
	})

	return items.Catch(func(err error) ([]Item, error) {
		switch {
		case storage.IsMapping(err):
			s.logger.Error("feed record unusable", "username", username, "error", err)
			return nil, err
		case storage.IsNotFound(err):
			return []Item{}, nil
		case storage.IsBackendUnavailable(err):
			s.logger.Warn("backend unavailable while building feed", "username", username, "error", err)
			return []Item{}, nil
		default:
			return nil, err
		}
	})
}

// BuildSync blocks until Build settles or ctx is done.
func (s *Service) BuildSync(ctx context.Context, username string) ([]Item, error) {
	return s.Build(ctx, username).Await(ctx)
}

func (s *Service) item(p *core.Post) Item {
	return Item{
		ID:      p.Id,
		From:    p.Author,
		Body:    p.Content,
		Preview: preview(p.Content, s.previewWidth),
	}
}

// preview collapses whitespace and keeps at most width runes, marking the cut
// with an ellipsis that counts toward the width.
func preview(body string, width int) string {
	flat := strings.Join(strings.Fields(body), " ")
	if utf8.RuneCountInString(flat) <= width {
		return flat
	}
	runes := []rune(flat)
	return strings.TrimRight(string(runes[:width-1]), " ") + ellipsis
}
