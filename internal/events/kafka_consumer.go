package events

import (
	"context"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/servicehub/service-booking/internal/application"
	bookingDomain "github.com/servicehub/service-booking/internal/domain/booking"
	"github.com/servicehub/service-booking/pkg/domain"
	"github.com/servicehub/service-booking/pkg/events"
	"github.com/servicehub/service-booking/pkg/kafka"
)

// PaymentReconciler applies verified payment outcomes to bookings.
type PaymentReconciler interface {
	ReconcilePayment(ctx context.Context, bookingID uuid.UUID, outcome bookingDomain.PaymentOutcome) (*application.BookingDTO, error)
}

// PaymentEventConsumer listens to payment events and reconciles booking payments.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	service  PaymentReconciler
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	service PaymentReconciler,
	logger *zap.Logger,
) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicPaymentEvents, logger)
	return newPaymentEventConsumer(consumer, service, logger)
}

func newPaymentEventConsumer(consumer *kafka.Consumer, service PaymentReconciler, logger *zap.Logger) *PaymentEventConsumer {
	return &PaymentEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
// A message whose reconciliation fails transiently is retried until it succeeds.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}
	return c.handleEvent(ctx, cloudEvent)
}

func (c *PaymentEventConsumer) handleEvent(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var (
		bookingID uuid.UUID
		outcome   bookingDomain.PaymentOutcome
	)

	switch cloudEvent.Type {
	case events.PaymentCaptured:
		var evt events.PaymentCapturedEvent
		if err := cloudEvent.ParseData(&evt); err != nil {
			c.logger.Error("failed to parse PaymentCapturedEvent data", zap.Error(err))
			return nil // Don't retry malformed data
		}
		paidAt := evt.PaidAt
		bookingID = evt.BookingID
		outcome = bookingDomain.PaymentOutcome{
			Result:    bookingDomain.PaymentResultPaid,
			OrderID:   evt.OrderID,
			PaymentID: evt.PaymentID,
		}
		if !paidAt.IsZero() {
			outcome.PaidAt = &paidAt
		}

	case events.PaymentFailed:
		var evt events.PaymentFailedEvent
		if err := cloudEvent.ParseData(&evt); err != nil {
			c.logger.Error("failed to parse PaymentFailedEvent data", zap.Error(err))
			return nil
		}
		bookingID = evt.BookingID
		outcome = bookingDomain.PaymentOutcome{
			Result:  bookingDomain.PaymentResultFailed,
			OrderID: evt.OrderID,
		}

	case events.PaymentRefunded:
		var evt events.PaymentRefundedEvent
		if err := cloudEvent.ParseData(&evt); err != nil {
			c.logger.Error("failed to parse PaymentRefundedEvent data", zap.Error(err))
			return nil
		}
		bookingID = evt.BookingID
		outcome = bookingDomain.PaymentOutcome{
			Result:    bookingDomain.PaymentResultRefunded,
			PaymentID: evt.PaymentID,
		}

	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}

	c.logger.Info("processing payment event",
		zap.String("type", cloudEvent.Type),
		zap.String("booking_id", bookingID.String()),
	)

	if _, err := c.service.ReconcilePayment(ctx, bookingID, outcome); err != nil {
		// Business rejections will never succeed on redelivery.
		if domain.IsNotFound(err) || domain.IsValidation(err) || domain.IsInvalidTransition(err) {
			c.logger.Warn("payment event rejected",
				zap.String("type", cloudEvent.Type),
				zap.String("booking_id", bookingID.String()),
				zap.Error(err),
			)
			return nil
		}
		c.logger.Error("failed to reconcile payment",
			zap.String("booking_id", bookingID.String()),
			zap.Error(err),
		)
		return err
	}

	return nil
}
