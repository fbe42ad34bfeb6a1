package competitor

// Query asks a discovery provider for organic competitors of Target.
type Query struct {
	Target       string
	LocationCode int
	LanguageCode string
	Limit        int
}

// MapsQuery searches local business listings around a coordinate.
type MapsQuery struct {
	Keyword      string
	Lat          float64
	Lng          float64
	Zoom         int // map zoom, provider default when 0
	LanguageCode string
	Depth        int
}

// Listing is one local business listing.
type Listing struct {
	Title    string
	URL      string
	Domain   string
	Category string
	Rating   float64
	Votes    int
	Lat      float64
	Lng      float64
}

// Candidate converts a listing with a website into a candidate keyed by host.
// ok is false when the listing has no website.
func (l Listing) Candidate() (Candidate, bool) {
	host := BareHost(l.Domain)
	if host == "" {
		host = BareHost(l.URL)
	}
	if host == "" {
		return Candidate{}, false
	}
	return Candidate{
		Domain:   host,
		URL:      l.URL,
		Title:    l.Title,
		Category: l.Category,
		Rating:   l.Rating,
		Lat:      l.Lat,
		Lng:      l.Lng,
	}, true
}
