package keyword

// IntersectQuery compares the ranked keywords of two domains.
type IntersectQuery struct {
	Target1      string
	Target2      string
	LocationCode int
	LanguageCode string
	Mode         Mode
	Limit        int
}

// IdeasQuery expands seed keywords into related keyword ideas.
type IdeasQuery struct {
	Seeds        []string
	LocationCode int
	LanguageCode string
	Limit        int
}
