package resolution

import (
	"context"
	"errors"

	"sheet_geocoder/internal/geo"
	"sheet_geocoder/internal/geocode"

	"github.com/rs/zerolog/log"
)

// Resolver performs one outbound place lookup
type Resolver interface {
	Resolve(ctx context.Context, query geo.Query) (geo.Coordinate, error)
}

// ResolveOrSentinel resolves a row's city/country, falling back to the
// sentinel coordinate on any failure. The boolean reports whether the lookup
// succeeded.
func ResolveOrSentinel(ctx context.Context, resolver Resolver, row geo.InputRow) (geo.Coordinate, bool) {
	query := row.Query()
	log.Debug().
		Int("row", row.Index).
		Str("city", query.City).
		Str("country", query.Country).
		Msg("Resolving location")

	coord, err := resolver.Resolve(ctx, query)
	if err == nil {
		return coord, true
	}

	event := log.Warn().Err(err).
		Int("row", row.Index).
		Str("city", query.City).
		Str("country", query.Country)
	if errors.Is(err, geocode.ErrNotFound) {
		event.Msg("Location could not be found, using sentinel coordinate")
	} else {
		event.Msg("Location lookup failed, using sentinel coordinate")
	}
	return geo.Sentinel, false
}
