package types

import "github.com/sliceline/sliceline-backend/pkg/enums"

// EventEnvelope is the stable wire shape for every realtime event.
type EventEnvelope struct {
	Event enums.EventType `json:"event"`
	Data  any             `json:"data"`
}
