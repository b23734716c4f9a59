// README: Google Maps integration: pickup reverse-geocoding and route ETA.
package maps

import (
	"context"
	"fmt"
	"time"

	"googlemaps.github.io/maps"

	"leash/internal/types"
)

// RouteService backs the route/ETA overlay shown while a walk is in a route
// phase, and resolves a display address for the pickup point at create time.
type RouteService struct {
	client *maps.Client
}

func NewRouteService(apiKey string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

// GetWalkETA returns the walking duration and distance string from origin to
// destination.
func (s *RouteService) GetWalkETA(ctx context.Context, origin, destination types.Point) (time.Duration, string, error) {
	r := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", origin.Lat, origin.Lng),
		Destination: fmt.Sprintf("%f,%f", destination.Lat, destination.Lng),
		Mode:        maps.TravelModeWalking,
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return 0, "", fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, "", fmt.Errorf("no route found")
	}

	leg := routes[0].Legs[0]
	return leg.Duration, leg.Distance.HumanReadable, nil
}

// ReverseGeocode resolves a human-readable address for a pickup point.
func (s *RouteService) ReverseGeocode(ctx context.Context, p types.Point) (string, error) {
	results, err := s.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: p.Lat, Lng: p.Lng},
	})
	if err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	if len(results) == 0 {
		return "", fmt.Errorf("no address found for %f,%f", p.Lat, p.Lng)
	}
	return results[0].FormattedAddress, nil
}
