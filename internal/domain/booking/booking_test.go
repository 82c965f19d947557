package booking

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicehub/service-booking/pkg/domain"
)

type parties struct {
	client   Actor
	provider Actor
	stranger Actor
	admin    Actor
}

func newParties() parties {
	return parties{
		client:   NewActor(uuid.New(), RoleClient),
		provider: NewActor(uuid.New(), RoleProvider),
		stranger: NewActor(uuid.New(), RoleClient),
		admin:    NewActor(uuid.New(), RoleAdmin),
	}
}

func newTestBooking(t *testing.T, p parties) *Booking {
	t.Helper()
	b, err := NewBooking(uuid.New(), p.client.ID, p.provider.ID, time.Now().Add(48*time.Hour), 500, "leaky tap")
	require.NoError(t, err)
	return b
}

func assertTrackingConsistent(t *testing.T, b *Booking) {
	t.Helper()
	tracking := b.Tracking()
	require.NotEmpty(t, tracking)
	assert.Equal(t, b.Status(), tracking[len(tracking)-1].Status)
}

func TestNewBooking(t *testing.T) {
	p := newParties()
	b := newTestBooking(t, p)

	assert.Equal(t, StatusPending, b.Status())
	assert.Equal(t, PaymentPending, b.Payment().Status)
	assert.Equal(t, 500.0, b.TotalAmount())
	assert.Equal(t, int64(1), b.Version())
	assert.Regexp(t, `^BK-[A-Z2-9]{6}$`, b.BookingNumber())
	assert.Nil(t, b.Quote())
	assert.Nil(t, b.Rating())

	tracking := b.Tracking()
	require.Len(t, tracking, 1)
	assert.Equal(t, StatusPending, tracking[0].Status)
	assert.Equal(t, p.client.ID, tracking[0].UpdatedBy)
}

func TestNewBooking_Validation(t *testing.T) {
	client, provider, service := uuid.New(), uuid.New(), uuid.New()
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name      string
		service   uuid.UUID
		client    uuid.UUID
		provider  uuid.UUID
		scheduled time.Time
		amount    float64
	}{
		{"missing service", uuid.Nil, client, provider, future, 100},
		{"missing client", service, uuid.Nil, provider, future, 100},
		{"own service", service, client, client, future, 100},
		{"past date", service, client, provider, time.Now().Add(-time.Minute), 100},
		{"zero date", service, client, provider, time.Time{}, 100},
		{"negative amount", service, client, provider, future, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBooking(tt.service, tt.client, tt.provider, tt.scheduled, tt.amount, "")
			assert.True(t, domain.IsValidation(err), "got %v", err)
		})
	}
}

func TestBooking_HappyPathWithQuote(t *testing.T) {
	p := newParties()
	b := newTestBooking(t, p)

	require.NoError(t, b.SubmitQuote(p.provider, 700, 3, "needs a new valve"))
	assert.Equal(t, StatusQuoted, b.Status())
	assert.Equal(t, 700.0, b.TotalAmount())
	assertTrackingConsistent(t, b)

	require.NoError(t, b.RespondToQuote(p.client, true))
	assert.Equal(t, StatusConfirmed, b.Status())
	assert.Equal(t, QuoteAccepted, b.Quote().Status)
	assert.NotNil(t, b.Quote().RespondedAt)
	assert.Equal(t, b.Quote().Price, b.TotalAmount())
	assertTrackingConsistent(t, b)

	require.NoError(t, b.UpdateStatus(p.provider, StatusInProgress, "on site"))
	require.NoError(t, b.UpdateStatus(p.provider, StatusCompleted, ""))
	assertTrackingConsistent(t, b)

	require.NoError(t, b.Rate(p.client, 5, "great"))
	assert.Equal(t, 5, b.Rating().Score)
	assert.Len(t, b.Tracking(), 5)
}

func TestBooking_DeclineQuoteCancels(t *testing.T) {
	p := newParties()
	b := newTestBooking(t, p)

	require.NoError(t, b.SubmitQuote(p.provider, 900, 2, ""))
	require.NoError(t, b.RespondToQuote(p.client, false))

	assert.Equal(t, StatusCancelled, b.Status())
	assert.Equal(t, QuoteDeclined, b.Quote().Status)
	assertTrackingConsistent(t, b)
}

func TestBooking_Requote(t *testing.T) {
	p := newParties()
	b := newTestBooking(t, p)

	require.NoError(t, b.SubmitQuote(p.provider, 700, 3, ""))
	require.NoError(t, b.SubmitQuote(p.provider, 650, 3, "discount"))

	assert.Equal(t, StatusQuoted, b.Status())
	assert.Equal(t, 650.0, b.TotalAmount())
	tracking := b.Tracking()
	require.Len(t, tracking, 3)
	assert.Equal(t, StatusQuoted, tracking[1].Status)
	assert.Equal(t, StatusQuoted, tracking[2].Status)
}

func TestBooking_SubmitQuoteRejections(t *testing.T) {
	p := newParties()

	b := newTestBooking(t, p)
	assert.True(t, domain.IsForbidden(b.SubmitQuote(p.client, 700, 3, "")))
	assert.True(t, domain.IsValidation(b.SubmitQuote(p.provider, 0, 3, "")))
	assert.True(t, domain.IsValidation(b.SubmitQuote(p.provider, 700, -1, "")))
	assert.Equal(t, StatusPending, b.Status())
	assert.Nil(t, b.Quote())

	require.NoError(t, b.UpdateStatus(p.provider, StatusConfirmed, ""))
	assert.True(t, domain.IsInvalidTransition(b.SubmitQuote(p.provider, 700, 3, "")))
}

func TestBooking_RespondToQuoteRejections(t *testing.T) {
	p := newParties()
	b := newTestBooking(t, p)

	assert.True(t, domain.IsNotFound(b.RespondToQuote(p.client, true)))

	require.NoError(t, b.SubmitQuote(p.provider, 700, 3, ""))
	assert.True(t, domain.IsForbidden(b.RespondToQuote(p.provider, true)))
	assert.True(t, domain.IsForbidden(b.RespondToQuote(p.stranger, true)))

	require.NoError(t, b.RespondToQuote(p.client, true))
	assert.True(t, domain.IsValidation(b.RespondToQuote(p.client, false)))
	assert.Equal(t, StatusConfirmed, b.Status())
}

func TestBooking_UpdateStatus(t *testing.T) {
	p := newParties()

	t.Run("stranger is forbidden", func(t *testing.T) {
		b := newTestBooking(t, p)
		assert.True(t, domain.IsForbidden(b.UpdateStatus(p.stranger, StatusConfirmed, "")))
		assert.True(t, domain.IsForbidden(b.UpdateStatus(p.client, StatusConfirmed, "")))
		assert.Equal(t, StatusPending, b.Status())
	})

	t.Run("illegal edge is reported before the actor", func(t *testing.T) {
		b := newTestBooking(t, p)
		err := b.UpdateStatus(p.stranger, StatusCompleted, "")
		assert.True(t, domain.IsInvalidTransition(err))
		assert.Len(t, b.Tracking(), 1)
	})

	t.Run("quoted requires a quote", func(t *testing.T) {
		b := newTestBooking(t, p)
		assert.True(t, domain.IsValidation(b.UpdateStatus(p.provider, StatusQuoted, "")))
	})

	t.Run("open quote cannot be confirmed by the provider", func(t *testing.T) {
		b := newTestBooking(t, p)
		require.NoError(t, b.SubmitQuote(p.provider, 700, 3, ""))

		err := b.UpdateStatus(p.provider, StatusConfirmed, "")
		assert.True(t, domain.IsInvalidTransition(err))
		assert.Equal(t, StatusQuoted, b.Status())
		assert.Equal(t, QuotePending, b.Quote().Status)

		require.NoError(t, b.UpdateStatus(p.provider, StatusCancelled, "fully booked"))
	})

	t.Run("notes are recorded", func(t *testing.T) {
		b := newTestBooking(t, p)
		require.NoError(t, b.UpdateStatus(p.provider, StatusConfirmed, "see you tomorrow"))
		tracking := b.Tracking()
		assert.Equal(t, "see you tomorrow", tracking[len(tracking)-1].Notes)
		assert.Equal(t, p.provider.ID, tracking[len(tracking)-1].UpdatedBy)
	})
}

func TestBooking_Cancel(t *testing.T) {
	p := newParties()

	t.Run("pending", func(t *testing.T) {
		b := newTestBooking(t, p)
		require.NoError(t, b.Cancel(p.client, ""))
		assert.Equal(t, StatusCancelled, b.Status())
		tracking := b.Tracking()
		assert.Equal(t, "cancelled by client", tracking[len(tracking)-1].Notes)
	})

	t.Run("confirmed with reason", func(t *testing.T) {
		b := newTestBooking(t, p)
		require.NoError(t, b.UpdateStatus(p.provider, StatusConfirmed, ""))
		require.NoError(t, b.Cancel(p.client, "plans changed"))
		tracking := b.Tracking()
		assert.Equal(t, "cancelled by client: plans changed", tracking[len(tracking)-1].Notes)
	})

	t.Run("provider cannot cancel", func(t *testing.T) {
		b := newTestBooking(t, p)
		assert.True(t, domain.IsForbidden(b.Cancel(p.provider, "")))
	})

	t.Run("quoted cannot be cancelled directly", func(t *testing.T) {
		b := newTestBooking(t, p)
		require.NoError(t, b.SubmitQuote(p.provider, 700, 3, ""))
		assert.True(t, domain.IsInvalidTransition(b.Cancel(p.client, "")))
	})

	for _, path := range [][]BookingStatus{
		{StatusConfirmed, StatusInProgress},
		{StatusConfirmed, StatusInProgress, StatusCompleted},
		{StatusCancelled},
	} {
		b := newTestBooking(t, p)
		for _, s := range path {
			if s == StatusCancelled {
				require.NoError(t, b.Cancel(p.client, ""))
				continue
			}
			require.NoError(t, b.UpdateStatus(p.provider, s, ""))
		}
		before := len(b.Tracking())
		assert.True(t, domain.IsInvalidTransition(b.Cancel(p.client, "")), "from %s", b.Status())
		assert.Len(t, b.Tracking(), before)
	}
}

func TestBooking_Rate(t *testing.T) {
	p := newParties()
	b := newTestBooking(t, p)

	assert.True(t, domain.IsInvalidTransition(b.Rate(p.client, 5, "")))

	require.NoError(t, b.UpdateStatus(p.provider, StatusConfirmed, ""))
	require.NoError(t, b.UpdateStatus(p.provider, StatusInProgress, ""))
	require.NoError(t, b.UpdateStatus(p.provider, StatusCompleted, ""))

	assert.True(t, domain.IsForbidden(b.Rate(p.provider, 5, "")))
	assert.True(t, domain.IsValidation(b.Rate(p.client, 0, "")))
	assert.True(t, domain.IsValidation(b.Rate(p.client, 6, "")))
	assert.Nil(t, b.Rating())

	require.NoError(t, b.Rate(p.client, 4, "tidy work"))
	assert.True(t, domain.IsValidation(b.Rate(p.client, 5, "")))
	assert.Equal(t, 4, b.Rating().Score)
	assert.Equal(t, StatusCompleted, b.Status())
}

func TestBooking_CanBeViewedBy(t *testing.T) {
	p := newParties()
	b := newTestBooking(t, p)

	assert.True(t, b.CanBeViewedBy(p.client))
	assert.True(t, b.CanBeViewedBy(p.provider))
	assert.True(t, b.CanBeViewedBy(p.admin))
	assert.False(t, b.CanBeViewedBy(p.stranger))
}

func TestBooking_TrackingIsCopied(t *testing.T) {
	p := newParties()
	b := newTestBooking(t, p)

	tracking := b.Tracking()
	tracking[0].Notes = "tampered"
	assert.Equal(t, "Booking created", b.Tracking()[0].Notes)
}
