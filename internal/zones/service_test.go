package zones

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sliceline/sliceline-backend/pkg/db/models"
	pkgerrors "github.com/sliceline/sliceline-backend/pkg/errors"
	"github.com/sliceline/sliceline-backend/pkg/types"
)

type stubZonesRepo struct {
	zones []models.DeliveryZone
	err   error
}

func (s *stubZonesRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubZonesRepo) ListActive(ctx context.Context) ([]models.DeliveryZone, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.zones, nil
}

func squareAround(lat, lng, half float64) types.Polygon {
	return types.Polygon{
		{Lat: lat - half, Lng: lng - half},
		{Lat: lat - half, Lng: lng + half},
		{Lat: lat + half, Lng: lng + half},
		{Lat: lat + half, Lng: lng - half},
	}
}

func newZone(id string, priority int, polygon types.Polygon) models.DeliveryZone {
	return models.DeliveryZone{
		ID:                       uuid.MustParse(id),
		Name:                     "zone " + id[:4],
		Polygon:                  polygon,
		DeliveryFee:              decimal.RequireFromString("3.50"),
		EstimatedDeliveryMinutes: 30,
		Priority:                 priority,
		IsActive:                 true,
	}
}

func TestResolvePicksHighestPriority(t *testing.T) {
	t.Parallel()

	inner := newZone("22222222-2222-4222-8222-222222222222", 10, squareAround(53.35, -6.26, 0.01))
	outer := newZone("11111111-1111-4111-8111-111111111111", 1, squareAround(53.35, -6.26, 0.1))
	svc, err := NewService(&stubZonesRepo{zones: []models.DeliveryZone{outer, inner}})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	zone, err := svc.Resolve(context.Background(), types.GeoPoint{Lat: 53.35, Lng: -6.26})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if zone.ID != inner.ID {
		t.Fatalf("expected inner zone %s, got %s", inner.ID, zone.ID)
	}
}

func TestResolveBreaksPriorityTiesByLowestID(t *testing.T) {
	t.Parallel()

	a := newZone("11111111-1111-4111-8111-111111111111", 5, squareAround(53.35, -6.26, 0.05))
	b := newZone("99999999-9999-4999-8999-999999999999", 5, squareAround(53.35, -6.26, 0.05))
	svc, err := NewService(&stubZonesRepo{zones: []models.DeliveryZone{b, a}})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	zone, err := svc.Resolve(context.Background(), types.GeoPoint{Lat: 53.35, Lng: -6.26})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if zone.ID != a.ID {
		t.Fatalf("expected lowest id zone %s, got %s", a.ID, zone.ID)
	}
}

func TestResolveOutOfRange(t *testing.T) {
	t.Parallel()

	zone := newZone("11111111-1111-4111-8111-111111111111", 1, squareAround(53.35, -6.26, 0.01))
	svc, err := NewService(&stubZonesRepo{zones: []models.DeliveryZone{zone}})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Resolve(context.Background(), types.GeoPoint{Lat: 40.0, Lng: -3.7})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeOutOfRange {
		t.Fatalf("expected OUT_OF_RANGE, got %v", err)
	}
}

func TestResolveIgnoresNonContainingZones(t *testing.T) {
	t.Parallel()

	north := newZone("11111111-1111-4111-8111-111111111111", 9, squareAround(53.45, -6.26, 0.01))
	city := newZone("22222222-2222-4222-8222-222222222222", 1, squareAround(53.35, -6.26, 0.02))
	svc, err := NewService(&stubZonesRepo{zones: []models.DeliveryZone{north, city}})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	zone, err := svc.Resolve(context.Background(), types.GeoPoint{Lat: 53.35, Lng: -6.26})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if zone.ID != city.ID {
		t.Fatalf("expected city zone despite lower priority, got %s", zone.ID)
	}
}
