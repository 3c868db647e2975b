package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/solace/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type widget struct {
	domain.BaseAggregateRoot
}

type widgetMoved struct {
	domain.BaseEvent
}

func TestBaseAggregateRoot_Events(t *testing.T) {
	w := &widget{BaseAggregateRoot: domain.NewBaseAggregateRoot()}
	assert.NotEqual(t, uuid.Nil, w.ID())
	assert.Empty(t, w.DomainEvents())

	first := &widgetMoved{BaseEvent: domain.NewBaseEvent(w.ID(), "Widget", "widget.moved")}
	second := &widgetMoved{BaseEvent: domain.NewBaseEvent(w.ID(), "Widget", "widget.moved")}
	w.AddDomainEvent(first)
	w.AddDomainEvent(second)

	events := w.DomainEvents()
	assert.Len(t, events, 2)
	assert.Equal(t, first.EventID(), events[0].EventID())
	assert.Equal(t, w.ID(), events[1].AggregateID())

	w.ClearDomainEvents()
	assert.Empty(t, w.DomainEvents())
}

func TestBaseAggregateRoot_Version(t *testing.T) {
	w := &widget{BaseAggregateRoot: domain.NewBaseAggregateRoot()}
	assert.Equal(t, 0, w.Version())
	w.IncrementVersion()
	w.IncrementVersion()
	assert.Equal(t, 2, w.Version())
}

func TestRehydrateBaseAggregateRoot(t *testing.T) {
	id := uuid.New()
	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)

	root := domain.RehydrateBaseAggregateRoot(domain.RehydrateBaseEntity(id, created, updated), 7)

	assert.Equal(t, id, root.ID())
	assert.Equal(t, created, root.CreatedAt())
	assert.Equal(t, updated, root.UpdatedAt())
	assert.Equal(t, 7, root.Version())
	assert.Empty(t, root.DomainEvents())
}

func TestBaseEntity_Touch(t *testing.T) {
	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	e := domain.RehydrateBaseEntity(uuid.New(), created, created)

	e.Touch()

	assert.Equal(t, created, e.CreatedAt())
	assert.True(t, e.UpdatedAt().After(created))
}

func TestBaseEvent_Metadata(t *testing.T) {
	aggregateID := uuid.New()
	event := &widgetMoved{BaseEvent: domain.NewBaseEvent(aggregateID, "Widget", "widget.moved")}

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, "Widget", event.AggregateType())
	assert.Equal(t, "widget.moved", event.RoutingKey())
	assert.WithinDuration(t, time.Now().UTC(), event.OccurredAt(), time.Second)

	md := domain.EventMetadata{CorrelationID: uuid.New(), CausationID: uuid.New(), ActorID: "client-1"}
	event.SetMetadata(md)
	assert.Equal(t, md, event.Metadata())
}
