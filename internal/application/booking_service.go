package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/servicehub/service-booking/internal/domain/booking"
	catalogDomain "github.com/servicehub/service-booking/internal/domain/catalog"
	"github.com/servicehub/service-booking/pkg/domain"
	"github.com/servicehub/service-booking/pkg/events"
	"github.com/servicehub/service-booking/pkg/kafka"
)

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	ServiceID     uuid.UUID `json:"serviceId" binding:"required"`
	ScheduledDate time.Time `json:"scheduledDate" binding:"required"`
	Notes         string    `json:"notes"`
}

// SubmitQuoteRequest is the provider's quote for a booking.
type SubmitQuoteRequest struct {
	Price          float64 `json:"price" binding:"required"`
	EstimatedHours float64 `json:"estimatedHours" binding:"required"`
	Notes          string  `json:"notes"`
}

// RespondToQuoteRequest carries the client's decision on a quote.
type RespondToQuoteRequest struct {
	Approved *bool `json:"approved" binding:"required"`
}

// UpdateStatusRequest asks to move a booking to a new status.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

// CancelBookingRequest carries an optional cancellation reason.
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// RateBookingRequest is the client's rating of a completed booking.
type RateBookingRequest struct {
	Score   int    `json:"score" binding:"required"`
	Comment string `json:"comment"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID            uuid.UUID                     `json:"id"`
	BookingNumber string                        `json:"bookingNumber"`
	ServiceID     uuid.UUID                     `json:"service"`
	ClientID      uuid.UUID                     `json:"client"`
	ProviderID    uuid.UUID                     `json:"provider"`
	ScheduledDate time.Time                     `json:"scheduledDate"`
	Notes         string                        `json:"notes,omitempty"`
	TotalAmount   float64                       `json:"totalAmount"`
	Currency      string                        `json:"currency"`
	Status        string                        `json:"status"`
	Payment       bookingDomain.Payment         `json:"payment"`
	Quote         *bookingDomain.Quote          `json:"quote,omitempty"`
	Tracking      []bookingDomain.TrackingEntry `json:"tracking"`
	Rating        *bookingDomain.Rating         `json:"rating,omitempty"`
	Version       int64                         `json:"version"`
	CreatedAt     time.Time                     `json:"createdAt"`
	UpdatedAt     time.Time                     `json:"updatedAt"`
}

// ServiceCatalog resolves the listing a booking is made against.
type ServiceCatalog interface {
	GetService(ctx context.Context, serviceID uuid.UUID) (*ServiceDTO, error)
}

// RatingAggregator folds a booking rating into the service's average.
type RatingAggregator interface {
	RecordRating(ctx context.Context, serviceID uuid.UUID, score int) error
}

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// BookingService is the application service orchestrating booking use cases.
// It is the only code path that mutates a booking.
type BookingService struct {
	repo     bookingDomain.BookingRepository
	catalog  ServiceCatalog
	ratings  RatingAggregator
	notifier Notifier
	producer EventPublisher
	logger   *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	catalog ServiceCatalog,
	ratings RatingAggregator,
	notifier Notifier,
	producer EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:     repo,
		catalog:  catalog,
		ratings:  ratings,
		notifier: notifier,
		producer: producer,
		logger:   logger,
	}
}

// CreateBooking books a service listing on behalf of a client. The provider
// and the initial amount come from the listing.
func (s *BookingService) CreateBooking(ctx context.Context, actor bookingDomain.Actor, req CreateBookingRequest) (*BookingDTO, error) {
	if actor.Role != bookingDomain.RoleClient {
		return nil, domain.NewForbiddenError("only clients can create bookings")
	}

	svc, err := s.catalog.GetService(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if svc.Status != string(catalogDomain.ServiceStatusActive) {
		return nil, domain.NewNotFoundError("Service", req.ServiceID.String())
	}

	bk, err := bookingDomain.NewBooking(
		svc.ID,
		actor.ID,
		svc.ProviderID,
		req.ScheduledDate,
		svc.Price,
		req.Notes,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, bk); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	evt := events.BookingCreatedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		ServiceID:     bk.ServiceID(),
		ClientID:      bk.ClientID(),
		ProviderID:    bk.ProviderID(),
		TotalAmount:   bk.TotalAmount(),
		Currency:      domain.CurrencyINR,
		ScheduledDate: bk.ScheduledDate(),
		OccurredAt:    time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCreated, bk.ID().String(), evt)
	s.notify(ctx, bk.ProviderID(), NotifyBookingCreated, bk, "")

	result := toBookingDTO(bk)
	return &result, nil
}

// SubmitQuote records the provider's quote and moves the booking to quoted.
func (s *BookingService) SubmitQuote(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID, req SubmitQuoteRequest) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := bk.SubmitQuote(actor, req.Price, req.EstimatedHours, req.Notes); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	evt := events.BookingQuotedEvent{
		BookingID:      bk.ID(),
		ClientID:       bk.ClientID(),
		ProviderID:     bk.ProviderID(),
		Price:          req.Price,
		EstimatedHours: req.EstimatedHours,
		OccurredAt:     time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingQuoted, bk.ID().String(), evt)
	s.notify(ctx, bk.ClientID(), NotifyBookingQuoted, bk, req.Notes)

	result := toBookingDTO(bk)
	return &result, nil
}

// RespondToQuote applies the client's decision on the pending quote.
func (s *BookingService) RespondToQuote(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID, approved bool) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := bk.RespondToQuote(actor, approved); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	evt := events.QuoteRespondedEvent{
		BookingID:  bk.ID(),
		ClientID:   bk.ClientID(),
		ProviderID: bk.ProviderID(),
		Accepted:   approved,
		Status:     string(bk.Status()),
		OccurredAt: time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingQuoteResponded, bk.ID().String(), evt)

	notification := NotifyQuoteDeclined
	if approved {
		notification = NotifyQuoteAccepted
	}
	s.notify(ctx, bk.ProviderID(), notification, bk, "")

	result := toBookingDTO(bk)
	return &result, nil
}

// UpdateStatus moves a booking along the workflow on behalf of its provider.
func (s *BookingService) UpdateStatus(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID, req UpdateStatusRequest) (*BookingDTO, error) {
	requested, err := bookingDomain.ParseBookingStatus(req.Status)
	if err != nil {
		return nil, err
	}

	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	from := bk.Status()
	if err := bk.UpdateStatus(actor, requested, req.Notes); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	evt := events.BookingStatusChangedEvent{
		BookingID:  bk.ID(),
		From:       string(from),
		To:         string(bk.Status()),
		ChangedBy:  actor.ID,
		Notes:      req.Notes,
		OccurredAt: time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingStatusChanged, bk.ID().String(), evt)
	s.notify(ctx, bk.ClientID(), NotifyStatusUpdated, bk, req.Notes)

	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking cancels a pending or confirmed booking on behalf of its client.
func (s *BookingService) CancelBooking(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID, reason string) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := bk.Cancel(actor, reason); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	evt := events.BookingCancelledEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		CancelledBy:   actor.ID,
		Reason:        reason,
		PaymentStatus: string(bk.Payment().Status),
		OccurredAt:    time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCancelled, bk.ID().String(), evt)
	s.notify(ctx, bk.ProviderID(), NotifyBookingCancelled, bk, reason)

	result := toBookingDTO(bk)
	return &result, nil
}

// CompleteWithRating attaches the client's rating to a completed booking and
// folds the score into the service's average rating.
func (s *BookingService) CompleteWithRating(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID, req RateBookingRequest) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := bk.Rate(actor, req.Score, req.Comment); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	if err := s.ratings.RecordRating(ctx, bk.ServiceID(), req.Score); err != nil {
		s.logger.Error("failed to record service rating",
			zap.String("booking_id", bk.ID().String()),
			zap.String("service_id", bk.ServiceID().String()),
			zap.Error(err),
		)
	}

	evt := events.BookingRatedEvent{
		BookingID:  bk.ID(),
		ServiceID:  bk.ServiceID(),
		ProviderID: bk.ProviderID(),
		Score:      req.Score,
		OccurredAt: time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingRated, bk.ID().String(), evt)
	s.notify(ctx, bk.ProviderID(), NotifyBookingRated, bk, req.Comment)

	result := toBookingDTO(bk)
	return &result, nil
}

// ReconcilePayment applies an already-verified payment outcome to a booking.
func (s *BookingService) ReconcilePayment(ctx context.Context, bookingID uuid.UUID, outcome bookingDomain.PaymentOutcome) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	// Gateways redeliver; a payment that is already on the booking changes nothing.
	if outcome.Result == bookingDomain.PaymentResultPaid && bk.HasRecordedPayment(outcome.PaymentID) {
		s.logger.Info("payment already recorded",
			zap.String("booking_id", bk.ID().String()),
			zap.String("payment_id", outcome.PaymentID),
		)
		result := toBookingDTO(bk)
		return &result, nil
	}

	promoted, err := bk.ReconcilePayment(outcome)
	if err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.logger.Info("payment reconciled",
		zap.String("booking_id", bk.ID().String()),
		zap.String("result", string(outcome.Result)),
		zap.Bool("confirmed", promoted),
	)

	evt := events.PaymentReconciledEvent{
		BookingID:     bk.ID(),
		Result:        string(outcome.Result),
		PaymentStatus: string(bk.Payment().Status),
		Status:        string(bk.Status()),
		OccurredAt:    time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingPaymentReconciled, bk.ID().String(), evt)
	s.notify(ctx, bk.ProviderID(), NotifyPaymentUpdated, bk, "")
	if promoted {
		s.notify(ctx, bk.ClientID(), NotifyStatusUpdated, bk, "payment received")
	}

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking retrieves a single booking visible to the actor.
func (s *BookingService) GetBooking(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !bk.CanBeViewedBy(actor) {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetBookingByNumber retrieves a booking by its human-readable number.
func (s *BookingService) GetBookingByNumber(ctx context.Context, actor bookingDomain.Actor, number string) (*BookingDTO, error) {
	bk, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if !bk.CanBeViewedBy(actor) {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// ListMyBookings returns the actor's bookings: those made as a client, or those
// received as a provider.
func (s *BookingService) ListMyBookings(ctx context.Context, actor bookingDomain.Actor, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	switch actor.Role {
	case bookingDomain.RoleClient:
		return s.GetClientBookings(ctx, actor.ID, page, limit)
	case bookingDomain.RoleProvider:
		return s.GetProviderBookings(ctx, actor.ID, page, limit)
	default:
		return nil, domain.NewForbiddenError("only clients and providers have bookings")
	}
}

// GetClientBookings retrieves paginated bookings made by a client.
func (s *BookingService) GetClientBookings(ctx context.Context, clientID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.FindByClientID(ctx, clientID, page, limit)
	if err != nil {
		return nil, err
	}

	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// GetProviderBookings retrieves paginated bookings received by a provider.
func (s *BookingService) GetProviderBookings(ctx context.Context, providerID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.FindByProviderID(ctx, providerID, page, limit)
	if err != nil {
		return nil, err
	}

	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ListAllBookings returns a paginated list of all bookings (admin). An empty
// status lists every booking.
func (s *BookingService) ListAllBookings(ctx context.Context, status string, page, limit int) ([]BookingDTO, int64, error) {
	var filter *bookingDomain.BookingStatus
	if status != "" {
		parsed, err := bookingDomain.ParseBookingStatus(status)
		if err != nil {
			return nil, 0, err
		}
		filter = &parsed
	}

	bookings, total, err := s.repo.ListAll(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toBookingDTOs(bookings), total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:            bk.ID(),
		BookingNumber: bk.BookingNumber(),
		ServiceID:     bk.ServiceID(),
		ClientID:      bk.ClientID(),
		ProviderID:    bk.ProviderID(),
		ScheduledDate: bk.ScheduledDate(),
		Notes:         bk.Notes(),
		TotalAmount:   bk.TotalAmount(),
		Currency:      domain.CurrencyINR,
		Status:        string(bk.Status()),
		Payment:       bk.Payment(),
		Quote:         bk.Quote(),
		Tracking:      bk.Tracking(),
		Rating:        bk.Rating(),
		Version:       bk.Version(),
		CreatedAt:     bk.CreatedAt(),
		UpdatedAt:     bk.UpdatedAt(),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}

// notify sends a real-time event to one party. Failures never fail the caller.
func (s *BookingService) notify(ctx context.Context, recipient uuid.UUID, event string, bk *bookingDomain.Booking, notes string) {
	payload := NotificationPayload{
		BookingID:     bk.ID(),
		Status:        string(bk.Status()),
		PaymentStatus: string(bk.Payment().Status),
		Notes:         notes,
	}
	if q := bk.Quote(); q != nil {
		payload.QuoteStatus = string(q.Status)
	}

	if err := s.notifier.Publish(ctx, recipient, event, payload); err != nil {
		s.logger.Warn("failed to deliver notification",
			zap.String("event", event),
			zap.String("booking_id", bk.ID().String()),
			zap.String("recipient", recipient.String()),
			zap.Error(err),
		)
	}
}

func (s *BookingService) publishEvent(ctx context.Context, topic, eventType, key string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent("service-booking", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	cloudEvent.Subject = key

	if err := s.producer.PublishEvent(ctx, topic, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
