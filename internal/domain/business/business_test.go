package business

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/compscope/internal/domain"
)

func TestService_UnmarshalShapes(t *testing.T) {
	raw := `{
		"id": "b1",
		"services": [
			"Drain cleaning",
			{"name": "Water heaters", "description": "Install and repair"},
			{"service_name": "Leak detection", "title": "24/7", "details": "Camera inspection"},
			{"title": "Repiping", "desc": "Whole house"},
			null
		]
	}`
	var b Business
	require.NoError(t, json.Unmarshal([]byte(raw), &b))
	require.Len(t, b.Services, 5)

	assert.Equal(t, "Drain cleaning", b.Services[0].Text())
	assert.Equal(t, "Water heaters Install and repair", b.Services[1].Text())
	assert.Equal(t, "Leak detection 24/7 Camera inspection", b.Services[2].Text())
	assert.Equal(t, "Repiping Whole house", b.Services[3].Text())
	assert.Equal(t, "", b.Services[4].Text())

	assert.Equal(t,
		"Drain cleaning Water heaters Install and repair Leak detection 24/7 Camera inspection Repiping Whole house",
		b.ServiceProfile())
}

func TestService_RejectsWrongType(t *testing.T) {
	var s Service
	assert.Error(t, json.Unmarshal([]byte(`42`), &s))
}

func validBusiness() Business {
	return Business{
		ID:           "b1",
		Domain:       "acmeplumbing.com",
		BusinessType: "plumber",
		SeedKeywords: []string{"plumber"},
		Location:     &Location{Lat: 40.7, Lng: -73.9, LocationCode: 2840, LanguageCode: "en"},
	}
}

func TestValidate(t *testing.T) {
	b := validBusiness()
	assert.NoError(t, b.Validate(NeedsDomain, NeedsBusinessType, NeedsSeedKeywords))

	noLoc := validBusiness()
	noLoc.Location = nil
	err := noLoc.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "location", ve.Field)

	noCode := validBusiness()
	noCode.Location.LocationCode = 0
	assert.ErrorIs(t, noCode.Validate(), domain.ErrValidation)

	noType := validBusiness()
	noType.BusinessType = " "
	assert.ErrorIs(t, noType.Validate(NeedsBusinessType), domain.ErrValidation)
	assert.NoError(t, noType.Validate(NeedsDomain))

	noSeeds := validBusiness()
	noSeeds.SeedKeywords = []string{"", "  "}
	assert.ErrorIs(t, noSeeds.Validate(NeedsSeedKeywords), domain.ErrValidation)

	badLat := validBusiness()
	badLat.Location.Lat = 91
	err = badLat.Validate()
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "location.lat/lng", ve.Field)

	noPin := validBusiness()
	noPin.Location.Lat, noPin.Location.Lng = 0, 0
	assert.NoError(t, noPin.Validate(NeedsDomain))
	assert.ErrorIs(t, noPin.Validate(NeedsBusinessType), domain.ErrValidation)

	noDomain := validBusiness()
	noDomain.Domain = ""
	assert.ErrorIs(t, noDomain.Validate(NeedsDomain), domain.ErrValidation)
}
