package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/servicehub/service-booking/internal/application"
	bookingDomain "github.com/servicehub/service-booking/internal/domain/booking"
	"github.com/servicehub/service-booking/pkg/domain"
	"github.com/servicehub/service-booking/pkg/events"
	"github.com/servicehub/service-booking/pkg/kafka"
)

type reconcileCall struct {
	bookingID uuid.UUID
	outcome   bookingDomain.PaymentOutcome
}

// fakeReconciler returns queued failures first, then err.
type fakeReconciler struct {
	calls    []reconcileCall
	failures []error
	err      error
}

func (f *fakeReconciler) ReconcilePayment(_ context.Context, bookingID uuid.UUID, outcome bookingDomain.PaymentOutcome) (*application.BookingDTO, error) {
	f.calls = append(f.calls, reconcileCall{bookingID: bookingID, outcome: outcome})
	if len(f.failures) > 0 {
		err := f.failures[0]
		f.failures = f.failures[1:]
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return &application.BookingDTO{ID: bookingID}, nil
}

func newTestConsumer(r *fakeReconciler) *PaymentEventConsumer {
	return &PaymentEventConsumer{service: r, logger: zap.NewNop()}
}

func message(t *testing.T, eventType string, data interface{}) kafkago.Message {
	t.Helper()
	ce, err := kafka.NewCloudEvent("service-payment", eventType, data)
	require.NoError(t, err)
	raw, err := json.Marshal(ce)
	require.NoError(t, err)
	return kafkago.Message{Value: raw}
}

func TestPaymentEventConsumer_Captured(t *testing.T) {
	r := &fakeReconciler{}
	c := newTestConsumer(r)
	bookingID := uuid.New()
	paidAt := time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

	err := c.handleMessage(context.Background(), message(t, events.PaymentCaptured, events.PaymentCapturedEvent{
		BookingID: bookingID,
		OrderID:   "order_1",
		PaymentID: "pay_1",
		Amount:    700,
		PaidAt:    paidAt,
	}))
	require.NoError(t, err)
	require.Len(t, r.calls, 1)

	call := r.calls[0]
	assert.Equal(t, bookingID, call.bookingID)
	assert.Equal(t, bookingDomain.PaymentResultPaid, call.outcome.Result)
	assert.Equal(t, "pay_1", call.outcome.PaymentID)
	require.NotNil(t, call.outcome.PaidAt)
	assert.True(t, paidAt.Equal(*call.outcome.PaidAt))
}

func TestPaymentEventConsumer_FailedAndRefunded(t *testing.T) {
	r := &fakeReconciler{}
	c := newTestConsumer(r)

	require.NoError(t, c.handleMessage(context.Background(), message(t, events.PaymentFailed, events.PaymentFailedEvent{
		BookingID: uuid.New(), OrderID: "order_2", Reason: "card declined",
	})))
	require.NoError(t, c.handleMessage(context.Background(), message(t, events.PaymentRefunded, events.PaymentRefundedEvent{
		BookingID: uuid.New(), PaymentID: "pay_2",
	})))

	require.Len(t, r.calls, 2)
	assert.Equal(t, bookingDomain.PaymentResultFailed, r.calls[0].outcome.Result)
	assert.Equal(t, "order_2", r.calls[0].outcome.OrderID)
	assert.Equal(t, bookingDomain.PaymentResultRefunded, r.calls[1].outcome.Result)
}

func TestPaymentEventConsumer_SkipsUnprocessableMessages(t *testing.T) {
	r := &fakeReconciler{}
	c := newTestConsumer(r)

	assert.NoError(t, c.handleMessage(context.Background(), kafkago.Message{Value: []byte("not json")}))
	assert.NoError(t, c.handleMessage(context.Background(), message(t, "payment.disputed", map[string]string{})))
	assert.Empty(t, r.calls)

	r.err = domain.NewNotFoundError("Booking", "x")
	assert.NoError(t, c.handleMessage(context.Background(), message(t, events.PaymentCaptured, events.PaymentCapturedEvent{
		BookingID: uuid.New(), PaymentID: "pay_3",
	})))
}

type scriptedReader struct {
	pending   []kafkago.Message
	committed []kafkago.Message
	cancel    context.CancelFunc
}

func (r *scriptedReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	if len(r.pending) == 0 {
		r.cancel()
		return kafkago.Message{}, ctx.Err()
	}
	msg := r.pending[0]
	r.pending = r.pending[1:]
	return msg, nil
}

func (r *scriptedReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *scriptedReader) Close() error { return nil }

func TestPaymentEventConsumer_RedeliversAfterTransientFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bookingID := uuid.New()
	captured := message(t, events.PaymentCaptured, events.PaymentCapturedEvent{
		BookingID: bookingID, PaymentID: "pay_4",
	})
	captured.Offset = 42
	reader := &scriptedReader{pending: []kafkago.Message{captured}, cancel: cancel}

	r := &fakeReconciler{failures: []error{domain.NewConflictError("stale")}}
	c := newPaymentEventConsumer(
		kafka.NewConsumerFromReader(reader, func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) }, zap.NewNop()),
		r,
		zap.NewNop(),
	)

	require.ErrorIs(t, c.Start(ctx), context.Canceled)

	require.Len(t, r.calls, 2)
	assert.Equal(t, bookingID, r.calls[0].bookingID)
	assert.Equal(t, r.calls[0], r.calls[1])
	require.Len(t, reader.committed, 1)
	assert.Equal(t, int64(42), reader.committed[0].Offset)
}

func TestPaymentEventConsumer_TransientErrorsAreReturned(t *testing.T) {
	r := &fakeReconciler{err: errors.New("connection reset")}
	c := newTestConsumer(r)

	assert.Error(t, c.handleMessage(context.Background(), message(t, events.PaymentCaptured, events.PaymentCapturedEvent{
		BookingID: uuid.New(), PaymentID: "pay_5",
	})))
}
