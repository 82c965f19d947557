package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	bookingDomain "github.com/servicehub/service-booking/internal/domain/booking"
	"github.com/servicehub/service-booking/internal/repository"
	"github.com/servicehub/service-booking/pkg/kafka"
)

type sentNotification struct {
	UserID  uuid.UUID
	Event   string
	Payload NotificationPayload
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *recordingNotifier) Publish(_ context.Context, userID uuid.UUID, event string, payload interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	p, _ := payload.(NotificationPayload)
	n.sent = append(n.sent, sentNotification{UserID: userID, Event: event, Payload: p})
	return n.err
}

func (n *recordingNotifier) last() sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return sentNotification{}
	}
	return n.sent[len(n.sent)-1]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type failingRatings struct{}

func (failingRatings) RecordRating(context.Context, uuid.UUID, int) error {
	return errors.New("catalog unavailable")
}

type testStack struct {
	bookings  *BookingService
	catalog   *CatalogService
	repo      bookingDomain.BookingRepository
	notifier  *recordingNotifier
	publisher *recordingPublisher
	client    bookingDomain.Actor
	provider  bookingDomain.Actor
	stranger  bookingDomain.Actor
	admin     bookingDomain.Actor
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repository.AutoMigrate(db))
	return db
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	return newTestStackWithRepo(t, nil)
}

// newTestStackWithRepo lets a test wrap the booking repository.
func newTestStackWithRepo(t *testing.T, wrap func(bookingDomain.BookingRepository) bookingDomain.BookingRepository) *testStack {
	t.Helper()
	db := newTestDB(t)
	log := zap.NewNop()

	var repo bookingDomain.BookingRepository = repository.NewGormBookingRepository(db)
	if wrap != nil {
		repo = wrap(repo)
	}
	catalog := NewCatalogService(repository.NewGormServiceRepository(db), log)
	notifier := &recordingNotifier{}
	publisher := &recordingPublisher{}

	return &testStack{
		bookings:  NewBookingService(repo, catalog, catalog, notifier, publisher, log),
		catalog:   catalog,
		repo:      repo,
		notifier:  notifier,
		publisher: publisher,
		client:    bookingDomain.NewActor(uuid.New(), bookingDomain.RoleClient),
		provider:  bookingDomain.NewActor(uuid.New(), bookingDomain.RoleProvider),
		stranger:  bookingDomain.NewActor(uuid.New(), bookingDomain.RoleClient),
		admin:     bookingDomain.NewActor(uuid.New(), bookingDomain.RoleAdmin),
	}
}

func (s *testStack) createService(t *testing.T, price float64) *ServiceDTO {
	t.Helper()
	svc, err := s.catalog.CreateService(context.Background(), s.provider.ID, CreateServiceRequest{
		Title:    "Bathroom plumbing",
		Category: "plumbing",
		Price:    price,
	})
	require.NoError(t, err)
	return svc
}

func (s *testStack) createBooking(t *testing.T) *BookingDTO {
	t.Helper()
	svc := s.createService(t, 500)
	bk, err := s.bookings.CreateBooking(context.Background(), s.client, CreateBookingRequest{
		ServiceID:     svc.ID,
		ScheduledDate: time.Now().Add(72 * time.Hour),
		Notes:         "second floor",
	})
	require.NoError(t, err)
	return bk
}

func requireTrackingConsistent(t *testing.T, bk *BookingDTO) {
	t.Helper()
	require.NotEmpty(t, bk.Tracking)
	require.Equal(t, bk.Status, string(bk.Tracking[len(bk.Tracking)-1].Status))
}
