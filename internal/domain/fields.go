package domain

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Attribute keys always present on a reading.
const (
	AttrDistrict    = "district"
	AttrAttribution = "attribution"
)

// Attribute keys produced by MapFields.
const (
	AttrRegionNumber        = "region_number"
	AttrCouncils            = "councils"
	AttrDangerLevelToday    = "danger_level_today"
	AttrDangerLevelTomorrow = "danger_level_tomorrow"
	AttrFireBanToday        = "fire_ban_today"
	AttrFireBanTomorrow     = "fire_ban_tomorrow"
)

// Attributes is the flat metadata mapping exposed alongside a reading.
type Attributes map[string]any

type fieldConversion struct {
	source  string
	key     string
	convert func(string) (any, error)
}

// fieldConversions is applied in order. Fields missing from a record are
// skipped without inserting a default.
var fieldConversions = []fieldConversion{
	{source: "RegionNumber", key: AttrRegionNumber, convert: toInt},
	{source: "Councils", key: AttrCouncils, convert: splitCouncils},
	{source: "DangerLevelToday", key: AttrDangerLevelToday, convert: dangerLevel},
	{source: "DangerLevelTomorrow", key: AttrDangerLevelTomorrow, convert: dangerLevel},
	{source: "FireBanToday", key: AttrFireBanToday, convert: fireBan},
	// Upstream reports "No" here even before tomorrow's danger level is
	// published. Kept as-is; the RFS website shows the same thing.
	{source: "FireBanTomorrow", key: AttrFireBanTomorrow, convert: fireBan},
}

// MapFields converts a district record into display attributes. A single
// failed conversion fails the whole mapping with a *ConversionError.
func MapFields(rec Record) (Attributes, error) {
	attrs := make(Attributes, len(fieldConversions))
	for _, fc := range fieldConversions {
		raw, ok := rec[fc.source]
		if !ok {
			continue
		}
		v, err := fc.convert(raw)
		if err != nil {
			return nil, &ConversionError{Field: fc.source, Value: raw, Err: err}
		}
		attrs[fc.key] = v
	}
	return attrs, nil
}

// PrimaryValue returns today's danger level from mapped attributes, or
// StateUnknown when it is absent.
func PrimaryValue(attrs Attributes) string {
	if v, ok := attrs[AttrDangerLevelToday].(string); ok {
		return v
	}
	return StateUnknown
}

func toInt(s string) (any, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

func splitCouncils(s string) (any, error) {
	return strings.Split(s, ";"), nil
}

// dangerLevel lowercases s and uppercases its first character:
// "VERY HIGH" becomes "Very high".
func dangerLevel(s string) (any, error) {
	s = strings.ToLower(s)
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s, nil
	}
	return string(unicode.ToUpper(r)) + s[size:], nil
}

func fireBan(s string) (any, error) {
	return s == "Yes", nil
}
