package domain

// Jurisdiction describes one authority publishing a fire danger feed.
// Values are immutable; the built-ins are RFS and ESA.
type Jurisdiction struct {
	Key         string
	URL         string
	Attribution string

	// Fallback is consulted when this jurisdiction's feed comes back empty.
	Fallback *Jurisdiction

	// Timestamps is true for feeds wrapped in an RSS channel that carries
	// pubDate and lastBuildDate.
	Timestamps bool
}

var (
	// RFS is the NSW Rural Fire Service, the primary jurisdiction.
	RFS = Jurisdiction{
		Key:         "rfs",
		URL:         "http://www.rfs.nsw.gov.au/feeds/fdrToban.xml",
		Attribution: "NSW Rural Fire Service",
	}

	// ESA is the ACT Emergency Services Agency. It publishes a blank file
	// outside the bushfire season, so it falls back to RFS.
	ESA = Jurisdiction{
		Key:         "esa",
		URL:         "https://esa.act.gov.au/feeds/firedangerrating.xml",
		Attribution: "ACT Emergency Services Agency",
		Fallback:    &RFS,
		Timestamps:  true,
	}
)

// esaDistricts lists the districts published by the ACT ESA feed.
var esaDistricts = map[string]struct{}{
	"ACT": {},
}

// JurisdictionFor returns the jurisdiction that publishes the given district.
func JurisdictionFor(district string) Jurisdiction {
	if _, ok := esaDistricts[district]; ok {
		return ESA
	}
	return RFS
}
