package business

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kailas-cloud/compscope/internal/domain"
	"github.com/kailas-cloud/compscope/internal/domain/geo"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Requirement names what a given analysis needs from the record.
type Requirement int

// Requirements per analysis kind.
const (
	NeedsDomain Requirement = iota
	NeedsBusinessType
	NeedsSeedKeywords
)

// Validate checks the base record plus each requirement and returns a
// *domain.ValidationError naming the first missing field.
func (b *Business) Validate(reqs ...Requirement) error {
	if err := validate.Struct(b); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return domain.NewValidation(fieldName(verrs[0].Namespace()), "is required")
		}
		return domain.NewValidation("business", err.Error())
	}
	if !geo.ValidCoordinates(b.Location.Lat, b.Location.Lng) {
		return domain.NewValidation("location.lat/lng", "out of range")
	}

	for _, r := range reqs {
		switch r {
		case NeedsDomain:
			if b.ReferenceDomain() == "" {
				return domain.NewValidation("domain", "is required")
			}
		case NeedsBusinessType:
			if strings.TrimSpace(b.BusinessType) == "" {
				return domain.NewValidation("business_type", "is required")
			}
			if !geo.Known(b.Location.Lat, b.Location.Lng) {
				return domain.NewValidation("location.lat/lng", "is required")
			}
		case NeedsSeedKeywords:
			if len(nonEmpty(b.SeedKeywords)) == 0 {
				return domain.NewValidation("seed_keywords", "is required")
			}
		}
	}
	return nil
}

// SeedList returns the seed keywords without blanks.
func (b *Business) SeedList() []string {
	return nonEmpty(b.SeedKeywords)
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// fieldName turns "Business.Location.LocationCode" into "location.locationcode".
func fieldName(ns string) string {
	_, rest, ok := strings.Cut(ns, ".")
	if !ok {
		rest = ns
	}
	return strings.ToLower(rest)
}
