// Package business describes the business record the analysis runs for.
package business

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Location pins the business for location-based discovery and sets the
// market for SEO data lookups.
type Location struct {
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	City         string  `json:"city,omitempty"`
	LocationCode int     `json:"location_code" validate:"required"`
	LanguageCode string  `json:"language_code" validate:"required"`
}

// Business is the input record, owned and stored by an external collaborator.
type Business struct {
	ID               string    `json:"id" validate:"required"`
	Name             string    `json:"name"`
	Domain           string    `json:"domain"`
	AlternateDomains []string  `json:"alternate_domains,omitempty"`
	SelectedRivals   []string  `json:"selected_competitors,omitempty"`
	BusinessType     string    `json:"business_type,omitempty"`
	SeedKeywords     []string  `json:"seed_keywords,omitempty"`
	Location         *Location `json:"location" validate:"required"`
	Services         []Service `json:"services,omitempty"`
}

// Service is a single offered service. Stored records carry either a bare
// string or an object whose field names vary; UnmarshalJSON accepts both
// shapes and Text always yields a plain string.
type Service struct {
	Name        string `json:"name,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// UnmarshalJSON accepts "plain string" or {"name"|"service_name", "title", "description"|"desc"|"details"}.
func (s *Service) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = Service{}
		return nil
	}

	if data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return fmt.Errorf("service string: %w", err)
		}
		*s = Service{Name: name}
		return nil
	}

	var raw struct {
		Name        string `json:"name"`
		ServiceName string `json:"service_name"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Desc        string `json:"desc"`
		Details     string `json:"details"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("service object: %w", err)
	}
	*s = Service{
		Name:        firstNonEmpty(raw.Name, raw.ServiceName),
		Title:       raw.Title,
		Description: firstNonEmpty(raw.Description, raw.Desc, raw.Details),
	}
	return nil
}

// Text joins the non-empty descriptors of a service.
func (s Service) Text() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{s.Name, s.Title, s.Description} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// ServiceProfile concatenates the text of every service. Empty when the
// business lists no usable services.
func (b *Business) ServiceProfile() string {
	parts := make([]string, 0, len(b.Services))
	for _, s := range b.Services {
		if t := s.Text(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// ReferenceDomain is the site competitors are discovered for.
func (b *Business) ReferenceDomain() string {
	return strings.TrimSpace(b.Domain)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
