package domain

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"golang.org/x/net/html/charset"
)

// Envelope identifies the top-level shape of a feed document.
type Envelope int

const (
	// EnvelopeMap is a bare <FireDangerMap> root holding <District> elements.
	EnvelopeMap Envelope = iota + 1
	// EnvelopeRSS wraps the FireDangerMap in <rss><channel>.
	EnvelopeRSS
)

func (e Envelope) String() string {
	switch e {
	case EnvelopeMap:
		return "map"
	case EnvelopeRSS:
		return "rss"
	default:
		return "unknown"
	}
}

// Metadata keys reported by RSS-wrapped feeds.
const (
	MetaPublishDate = "publish date"
	MetaBuildDate   = "build date"
)

const fieldName = "Name"

// Record is one district's raw fields keyed by element name.
type Record map[string]string

// Name returns the district name the record is indexed by.
func (r Record) Name() string { return r[fieldName] }

// UnmarshalXML collects every child element of <District> as a field.
// Nested markup inside a field is skipped; only its text is kept.
func (r *Record) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	rec := Record{}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var v string
			if err := d.DecodeElement(&v, &t); err != nil {
				return err
			}
			rec[t.Name.Local] = strings.TrimSpace(v)
		case xml.EndElement:
			*r = rec
			return nil
		}
	}
}

type districtList struct {
	Districts []Record `xml:"District"`
}

type rssEnvelope struct {
	Channel *struct {
		PubDate       *string       `xml:"pubDate"`
		LastBuildDate *string       `xml:"lastBuildDate"`
		FireDangerMap *districtList `xml:"FireDangerMap"`
	} `xml:"channel"`
}

// Feed is a parsed feed document with its districts indexed by name.
type Feed struct {
	Envelope Envelope

	metadata  map[string]string
	districts map[string]Record
}

// ParseFeed parses a raw payload in either supported envelope. Every failure
// is returned as a *MalformedFeedError.
func ParseFeed(payload []byte) (*Feed, error) {
	d := xml.NewDecoder(bytes.NewReader(payload))
	d.CharsetReader = charset.NewReaderLabel

	root, err := rootElement(d)
	if err != nil {
		return nil, &MalformedFeedError{Err: err}
	}

	feed := &Feed{metadata: map[string]string{}}
	var districts []Record

	switch root.Name.Local {
	case "FireDangerMap":
		var m districtList
		if err := d.DecodeElement(&m, &root); err != nil {
			return nil, &MalformedFeedError{Err: err}
		}
		feed.Envelope = EnvelopeMap
		districts = m.Districts

	case "rss":
		var env rssEnvelope
		if err := d.DecodeElement(&env, &root); err != nil {
			return nil, &MalformedFeedError{Err: err}
		}
		if env.Channel == nil || env.Channel.FireDangerMap == nil {
			return nil, &MalformedFeedError{Err: fmt.Errorf("%w: rss without channel>FireDangerMap", ErrUnsupportedEnvelope)}
		}
		feed.Envelope = EnvelopeRSS
		// A channel with a single <District> still decodes into a one-element slice.
		districts = env.Channel.FireDangerMap.Districts
		if v := env.Channel.PubDate; v != nil {
			feed.metadata[MetaPublishDate] = strings.TrimSpace(*v)
		}
		if v := env.Channel.LastBuildDate; v != nil {
			feed.metadata[MetaBuildDate] = strings.TrimSpace(*v)
		}

	default:
		return nil, &MalformedFeedError{Err: fmt.Errorf("%w: root element %q", ErrUnsupportedEnvelope, root.Name.Local)}
	}

	if err := expectEOF(d); err != nil {
		return nil, &MalformedFeedError{Err: err}
	}

	feed.districts = indexDistricts(districts)
	return feed, nil
}

// Extract parses payload and returns the record for district. A district
// missing from an otherwise valid feed is reported as found == false, not
// as an error.
func Extract(payload []byte, district string) (Record, bool, error) {
	feed, err := ParseFeed(payload)
	if err != nil {
		return nil, false, err
	}
	rec, ok := feed.Lookup(district)
	return rec, ok, nil
}

// Lookup returns the record indexed under name.
func (f *Feed) Lookup(name string) (Record, bool) {
	rec, ok := f.districts[name]
	return rec, ok
}

// Len returns the number of distinct district names in the feed.
func (f *Feed) Len() int { return len(f.districts) }

// Districts returns the indexed district names in sorted order.
func (f *Feed) Districts() []string {
	return slices.Sorted(maps.Keys(f.districts))
}

// Metadata returns the channel timestamps present in an RSS envelope, keyed
// by MetaPublishDate and MetaBuildDate. It is empty for EnvelopeMap.
func (f *Feed) Metadata() map[string]string {
	return maps.Clone(f.metadata)
}

// indexDistricts keys records by Name; a later duplicate replaces an earlier
// one. Records without a Name cannot be looked up and are dropped.
func indexDistricts(records []Record) map[string]Record {
	index := make(map[string]Record, len(records))
	for _, rec := range records {
		name, ok := rec[fieldName]
		if !ok {
			continue
		}
		index[name] = rec
	}
	return index
}

func rootElement(d *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return xml.StartElement{}, errors.New("empty document")
		}
		if err != nil {
			return xml.StartElement{}, err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se, nil
		}
	}
}

// expectEOF consumes the remainder of the document after the root element,
// rejecting a second root.
func expectEOF(d *xml.Decoder) error {
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return fmt.Errorf("unexpected element %q after document root", t.Name.Local)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return errors.New("unexpected text after document root")
			}
		}
	}
}
