package dataforseo

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/compscope/internal/domain"
	"github.com/kailas-cloud/compscope/internal/domain/competitor"
)

type mapsResult struct {
	Items []struct {
		Type     string `json:"type"`
		Title    string `json:"title"`
		URL      string `json:"url"`
		Domain   string `json:"domain"`
		Category string `json:"category"`
		Rating   *struct {
			Value      float64 `json:"value"`
			VotesCount int     `json:"votes_count"`
		} `json:"rating"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"items"`
}

// LocalBusinesses returns map listings for a keyword near a coordinate.
func (c *Client) LocalBusinesses(ctx context.Context, req competitor.MapsQuery) ([]competitor.Listing, error) {
	zoom := req.Zoom
	if zoom <= 0 {
		zoom = 14
	}
	payload := map[string]any{
		"keyword":             req.Keyword,
		"location_coordinate": fmt.Sprintf("%.7f,%.7f,%dz", req.Lat, req.Lng, zoom),
		"language_code":       req.LanguageCode,
	}
	if req.Depth > 0 {
		payload["depth"] = req.Depth
	}

	results, err := post[mapsResult](ctx, c, endpointMaps, payload, domain.ErrDiscovery)
	if err != nil {
		return nil, err
	}

	var out []competitor.Listing
	for _, r := range results {
		for _, it := range r.Items {
			if it.Type != "" && it.Type != "maps_search" {
				continue
			}
			lb := competitor.Listing{
				Title:    it.Title,
				URL:      it.URL,
				Domain:   it.Domain,
				Category: it.Category,
				Lat:      it.Latitude,
				Lng:      it.Longitude,
			}
			if it.Rating != nil {
				lb.Rating = it.Rating.Value
				lb.Votes = it.Rating.VotesCount
			}
			out = append(out, lb)
		}
	}
	return out, nil
}
