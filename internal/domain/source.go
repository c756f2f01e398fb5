package domain

import (
	"bytes"
	"context"
	"log/slog"
)

// Fetcher performs a single GET against a feed URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// SourceState tracks whether a Source is serving its own feed or its
// jurisdiction's fallback.
type SourceState int

const (
	StateNormal SourceState = iota
	StateFallenBack
)

func (s SourceState) String() string {
	if s == StateFallenBack {
		return "fallen_back"
	}
	return "normal"
}

// Source holds the latest payload fetched for one jurisdiction.
//
// When the home feed comes back empty and the jurisdiction has a fallback,
// the source moves to StateFallenBack and serves the fallback's payload and
// attribution. It stays there across refreshes until the home feed returns
// data again. Source is not safe for concurrent use; refreshes are expected
// to run one at a time.
type Source struct {
	home    Jurisdiction
	active  Jurisdiction
	state   SourceState
	payload []byte

	fetcher Fetcher
	logger  *slog.Logger
}

// NewSource creates a Source for j. No fetch happens until Refresh.
func NewSource(j Jurisdiction, fetcher Fetcher, logger *slog.Logger) *Source {
	return &Source{
		home:    j,
		active:  j,
		fetcher: fetcher,
		logger:  logger,
	}
}

// Refresh fetches the home feed and, if it is empty, the fallback feed.
// Transport failures are logged and leave the payload absent.
func (s *Source) Refresh(ctx context.Context) {
	payload := s.fetch(ctx, s.home)
	if payload != nil || s.home.Fallback == nil {
		if s.state == StateFallenBack {
			s.logger.Info("feed has data again, leaving fallback",
				"jurisdiction", s.home.Key,
				"fallback", s.active.Key,
			)
		}
		s.state = StateNormal
		s.active = s.home
		s.payload = payload
		return
	}

	fallback := *s.home.Fallback
	if s.state == StateFallenBack {
		s.logger.Debug("feed still empty, using fallback",
			"jurisdiction", s.home.Key,
			"fallback", fallback.Key,
		)
	} else {
		s.logger.Warn("feed returned no data, falling back",
			"jurisdiction", s.home.Key,
			"fallback", fallback.Key,
		)
	}
	s.state = StateFallenBack
	s.active = fallback
	s.payload = s.fetch(ctx, fallback)
}

// Payload returns the latest payload and whether one is present.
func (s *Source) Payload() ([]byte, bool) {
	return s.payload, s.payload != nil
}

// Attribution returns the attribution of the jurisdiction currently served.
func (s *Source) Attribution() string { return s.active.Attribution }

// Jurisdiction returns the jurisdiction currently served.
func (s *Source) Jurisdiction() Jurisdiction { return s.active }

// State reports whether the source is serving its fallback.
func (s *Source) State() SourceState { return s.state }

// ExtraMetadata returns the envelope timestamps of the current payload for
// jurisdictions that publish them. It is empty when there is no payload or
// the payload does not parse.
func (s *Source) ExtraMetadata() map[string]string {
	if !s.active.Timestamps || s.payload == nil {
		return map[string]string{}
	}
	feed, err := ParseFeed(s.payload)
	if err != nil {
		return map[string]string{}
	}
	return feed.Metadata()
}

// fetch returns nil for a failed fetch or a blank body.
func (s *Source) fetch(ctx context.Context, j Jurisdiction) []byte {
	body, err := s.fetcher.Fetch(ctx, j.URL)
	if err != nil {
		s.logger.Warn("feed fetch failed",
			"jurisdiction", j.Key,
			"url", j.URL,
			"error", err,
		)
		return nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return body
}
