package pipeline

import (
	"context"
	"log/slog"
	"maps"

	"github.com/couchcryptid/fire-danger-service/internal/domain"
)

// FeedSource supplies the raw payload for a refresh. *domain.Source implements it.
type FeedSource interface {
	Refresh(ctx context.Context)
	Payload() ([]byte, bool)
	Attribution() string
	ExtraMetadata() map[string]string
	State() domain.SourceState
}

// Outcome classifies a refresh for logging and metrics.
type Outcome string

const (
	OutcomeOK              Outcome = "ok"
	OutcomeUnavailable     Outcome = "unavailable"
	OutcomeMalformed       Outcome = "malformed"
	OutcomeConversionError Outcome = "conversion_error"
	OutcomeNotFound        Outcome = "not_found"
)

// Result is the product of one refresh.
type Result struct {
	Reading     domain.Reading
	Outcome     Outcome
	SourceState domain.SourceState
}

// Sensor turns the configured district of a feed into a reading.
type Sensor struct {
	source      FeedSource
	district    string
	forceUpdate bool
	logger      *slog.Logger
}

// NewSensor creates a Sensor reporting district from source.
func NewSensor(source FeedSource, district string, forceUpdate bool, logger *slog.Logger) *Sensor {
	return &Sensor{
		source:      source,
		district:    district,
		forceUpdate: forceUpdate,
		logger:      logger,
	}
}

// Initial returns the reading shown before the first refresh completes.
func (s *Sensor) Initial() domain.Reading {
	return s.newReading(s.baseAttributes())
}

// Refresh fetches fresh data and rebuilds the reading from scratch. It never
// fails: transport, parse and conversion errors all degrade to an unknown
// state with only the base attributes.
func (s *Sensor) Refresh(ctx context.Context) Result {
	s.source.Refresh(ctx)

	attrs := s.baseAttributes()
	for k, v := range s.source.ExtraMetadata() {
		attrs[k] = v
	}

	reading := s.newReading(attrs)
	reading.RefreshedAt = clock.Now()

	payload, ok := s.source.Payload()
	reading.Available = ok

	outcome := OutcomeUnavailable
	if ok {
		reading.State, outcome = s.apply(payload, attrs)
	}

	return Result{
		Reading:     reading,
		Outcome:     outcome,
		SourceState: s.source.State(),
	}
}

// apply adds the district's converted fields to attrs and returns the
// primary state. attrs is left untouched on any failure.
func (s *Sensor) apply(payload []byte, attrs domain.Attributes) (string, Outcome) {
	feed, err := domain.ParseFeed(payload)
	if err != nil {
		s.logger.Warn("unable to parse feed", "district", s.district, "error", err)
		return domain.StateUnknown, OutcomeMalformed
	}

	rec, found := feed.Lookup(s.district)
	if !found {
		s.logger.Warn("district not found in feed",
			"district", s.district,
			"envelope", feed.Envelope.String(),
			"districts", feed.Len(),
		)
		return domain.StateUnknown, OutcomeNotFound
	}

	mapped, err := domain.MapFields(rec)
	if err != nil {
		s.logger.Warn("unable to convert district fields", "district", s.district, "error", err)
		return domain.StateUnknown, OutcomeConversionError
	}

	maps.Copy(attrs, mapped)
	return domain.PrimaryValue(attrs), OutcomeOK
}

func (s *Sensor) baseAttributes() domain.Attributes {
	return domain.Attributes{
		domain.AttrDistrict:    s.district,
		domain.AttrAttribution: s.source.Attribution(),
	}
}

func (s *Sensor) newReading(attrs domain.Attributes) domain.Reading {
	return domain.Reading{
		Name:        domain.ReadingName(s.district),
		State:       domain.StateUnknown,
		Icon:        domain.Icon,
		ForceUpdate: s.forceUpdate,
		Attributes:  attrs,
	}
}
