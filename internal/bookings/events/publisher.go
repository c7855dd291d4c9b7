// Package events publishes booking lifecycle changes. Publishing happens
// after the transaction commits; a failed publish never undoes a booking.
package events

import (
	"context"
	"strconv"
	"time"

	"reservations/pkg/kafka"
	"reservations/pkg/logger"
	"reservations/pkg/middleware"
	"reservations/pkg/model"
)

type EventType string

const (
	BookingCreated   EventType = "booking.created"
	BookingUpdated   EventType = "booking.updated"
	BookingCancelled EventType = "booking.cancelled"
	BookingDeleted   EventType = "booking.deleted"

	SchemaVersion = "1"

	publishTimeout = 5 * time.Second
)

// BookingEvent is the JSON payload. Times are RFC 3339 in UTC.
type BookingEvent struct {
	Type       EventType           `json:"type"`
	BookingID  int64               `json:"booking_id"`
	ResourceID int64               `json:"resource_id"`
	BookedBy   string              `json:"booked_by"`
	Start      time.Time           `json:"start"`
	End        time.Time           `json:"end"`
	Status     model.BookingStatus `json:"status"`
	OccurredAt time.Time           `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, eventType EventType, booking *model.Booking)
	Close() error
}

// MessageProducer is satisfied by *kafka.Producer.
type MessageProducer interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	producer MessageProducer
	source   string
	log      *logger.Logger
	now      func() time.Time
}

func NewKafkaPublisher(producer MessageProducer, source string, log *logger.Logger) Publisher {
	return &kafkaPublisher{
		producer: producer,
		source:   source,
		log:      log,
		now:      time.Now,
	}
}

// Publish sends the event keyed by resource id, so one resource's events
// stay ordered on one partition. Failures are logged, not returned.
func (p *kafkaPublisher) Publish(ctx context.Context, eventType EventType, booking *model.Booking) {
	event := BookingEvent{
		Type:       eventType,
		BookingID:  booking.ID,
		ResourceID: booking.ResourceID,
		BookedBy:   booking.BookedBy,
		Start:      booking.Start.UTC(),
		End:        booking.End.UTC(),
		Status:     booking.Status,
		OccurredAt: p.now().UTC(),
	}

	msg := kafka.NewMessage().
		WithKey(strconv.FormatInt(booking.ResourceID, 10)).
		WithValue(event).
		WithEventType(string(eventType)).
		WithSchemaVersion(SchemaVersion).
		WithSource(p.source).
		WithCorrelationID(middleware.RequestID(ctx)).
		Build()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Warn("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
	}
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

type noopPublisher struct{}

// Noop discards every event. It is used when no brokers are configured.
func Noop() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, EventType, *model.Booking) {}

func (noopPublisher) Close() error { return nil }
