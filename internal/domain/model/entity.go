package model

import "partner-subscription-platform/internal/domain"

// EntityType enumerates the closed set of business-entity kinds that can be
// subscribed. The records themselves live in external directory modules; this
// core only ever sees the (type, id) pair.
type EntityType string

const (
	EntityTypeLodging    EntityType = "lodging"
	EntityTypeRestaurant EntityType = "restaurant"
	EntityTypeGuide      EntityType = "guide"
	EntityTypeTour       EntityType = "tour"
	EntityTypeTransport  EntityType = "transport"
)

var knownEntityTypes = map[EntityType]struct{}{
	EntityTypeLodging:    {},
	EntityTypeRestaurant: {},
	EntityTypeGuide:      {},
	EntityTypeTour:       {},
	EntityTypeTransport:  {},
}

func (t EntityType) Valid() bool {
	_, ok := knownEntityTypes[t]
	return ok
}

// EntityRef identifies a subscribed business record without depending on the
// owning module's schema.
type EntityRef struct {
	Type EntityType
	ID   string
}

func NewEntityRef(entityType, entityID string) (EntityRef, error) {
	t := EntityType(entityType)
	if !t.Valid() || entityID == "" {
		return EntityRef{}, domain.ErrInvalidArgument
	}
	return EntityRef{Type: t, ID: entityID}, nil
}
