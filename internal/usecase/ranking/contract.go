package ranking

import "context"

// Fetcher retrieves page text. ok is false when nothing usable came back.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (text string, ok bool)
}
