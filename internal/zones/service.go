package zones

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/sliceline/sliceline-backend/pkg/errors"
	"github.com/sliceline/sliceline-backend/pkg/types"

	"github.com/sliceline/sliceline-backend/pkg/db/models"
)

// Service resolves a delivery coordinate to the zone that serves it.
type Service interface {
	Resolve(ctx context.Context, point types.GeoPoint) (*models.DeliveryZone, error)
}

type service struct {
	repo Repository
}

// NewService builds a zone resolution service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("zones repository required")
	}
	return &service{repo: repo}, nil
}

// Resolve finds the active zone containing the point. Overlaps resolve to
// the highest priority; ties break to the lexicographically smallest id so
// resolution is deterministic.
func (s *service) Resolve(ctx context.Context, point types.GeoPoint) (*models.DeliveryZone, error) {
	zones, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list delivery zones")
	}

	var winner *models.DeliveryZone
	for i := range zones {
		zone := &zones[i]
		if !zone.Polygon.Contains(point) {
			continue
		}
		if winner == nil {
			winner = zone
			continue
		}
		if zone.Priority > winner.Priority {
			winner = zone
			continue
		}
		if zone.Priority == winner.Priority &&
			strings.Compare(zone.ID.String(), winner.ID.String()) < 0 {
			winner = zone
		}
	}

	if winner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeOutOfRange, "address is outside our delivery area")
	}
	return winner, nil
}
