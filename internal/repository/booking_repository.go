package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	bookingDomain "github.com/servicehub/service-booking/internal/domain/booking"
	"github.com/servicehub/service-booking/pkg/domain"
)

// BookingModel is the GORM model for the bookings table. The payment, quote,
// tracking and rating sub-documents are stored as JSONB in the row they belong
// to, so a status change and its tracking entry are written by one statement.
type BookingModel struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey"`
	BookingNumber string         `gorm:"uniqueIndex;not null;size:20"`
	ServiceID     uuid.UUID      `gorm:"type:uuid;index;not null"`
	ClientID      uuid.UUID      `gorm:"type:uuid;index;not null"`
	ProviderID    uuid.UUID      `gorm:"type:uuid;index;not null"`
	ScheduledDate time.Time      `gorm:"not null"`
	Notes         string         `gorm:"size:1000"`
	TotalAmount   float64        `gorm:"type:numeric(12,2);not null"`
	Status        string         `gorm:"not null;size:30;index"`
	Payment       datatypes.JSON `gorm:"type:jsonb;not null"`
	Quote         datatypes.JSON `gorm:"type:jsonb"`
	Tracking      datatypes.JSON `gorm:"type:jsonb;not null"`
	Rating        datatypes.JSON `gorm:"type:jsonb"`
	Version       int64          `gorm:"not null;default:1"`
	CreatedAt     time.Time      `gorm:"not null;index"`
	UpdatedAt     time.Time      `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByNumber retrieves a booking by its booking number.
func (r *GormBookingRepository) FindByNumber(ctx context.Context, number string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("booking_number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", number)
		}
		return nil, fmt.Errorf("failed to find booking by number: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByClientID retrieves bookings made by a client with pagination.
func (r *GormBookingRepository) FindByClientID(ctx context.Context, clientID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(r.db.WithContext(ctx).Where("client_id = ?", clientID), page, limit)
}

// FindByProviderID retrieves bookings addressed to a provider with pagination.
func (r *GormBookingRepository) FindByProviderID(ctx context.Context, providerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(r.db.WithContext(ctx).Where("provider_id = ?", providerID), page, limit)
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, status *bookingDomain.BookingStatus, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	query := r.db.WithContext(ctx)
	if status != nil {
		query = query.Where("status = ?", string(*status))
	}
	return r.findPage(query, page, limit)
}

func (r *GormBookingRepository) findPage(query *gorm.DB, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := query.Session(&gorm.Session{}).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}

	return bookings, total, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
// Status, tracking and the sub-documents are written in the same UPDATE.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	// IncrementVersion was called by the service, so the stored row must still hold the previous version.
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"total_amount": model.TotalAmount,
			"status":       model.Status,
			"payment":      model.Payment,
			"quote":        model.Quote,
			"tracking":     model.Tracking,
			"rating":       model.Rating,
			"version":      model.Version,
			"updated_at":   model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another request")
	}

	return nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) (*BookingModel, error) {
	paymentJSON, err := json.Marshal(bk.Payment())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment: %w", err)
	}

	trackingJSON, err := json.Marshal(bk.Tracking())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tracking: %w", err)
	}

	var quoteJSON datatypes.JSON
	if q := bk.Quote(); q != nil {
		data, err := json.Marshal(q)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal quote: %w", err)
		}
		quoteJSON = data
	}

	var ratingJSON datatypes.JSON
	if rt := bk.Rating(); rt != nil {
		data, err := json.Marshal(rt)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal rating: %w", err)
		}
		ratingJSON = data
	}

	return &BookingModel{
		ID:            bk.ID(),
		BookingNumber: bk.BookingNumber(),
		ServiceID:     bk.ServiceID(),
		ClientID:      bk.ClientID(),
		ProviderID:    bk.ProviderID(),
		ScheduledDate: bk.ScheduledDate(),
		Notes:         bk.Notes(),
		TotalAmount:   bk.TotalAmount(),
		Status:        string(bk.Status()),
		Payment:       paymentJSON,
		Quote:         quoteJSON,
		Tracking:      trackingJSON,
		Rating:        ratingJSON,
		Version:       bk.Version(),
		CreatedAt:     bk.CreatedAt(),
		UpdatedAt:     bk.UpdatedAt(),
	}, nil
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	var payment bookingDomain.Payment
	if err := json.Unmarshal(m.Payment, &payment); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payment: %w", err)
	}

	var tracking []bookingDomain.TrackingEntry
	if err := json.Unmarshal(m.Tracking, &tracking); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tracking: %w", err)
	}

	var quote *bookingDomain.Quote
	if len(m.Quote) > 0 && string(m.Quote) != "null" {
		var q bookingDomain.Quote
		if err := json.Unmarshal(m.Quote, &q); err != nil {
			return nil, fmt.Errorf("failed to unmarshal quote: %w", err)
		}
		quote = &q
	}

	var rating *bookingDomain.Rating
	if len(m.Rating) > 0 && string(m.Rating) != "null" {
		var rt bookingDomain.Rating
		if err := json.Unmarshal(m.Rating, &rt); err != nil {
			return nil, fmt.Errorf("failed to unmarshal rating: %w", err)
		}
		rating = &rt
	}

	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.BookingNumber,
		m.ServiceID,
		m.ClientID,
		m.ProviderID,
		m.ScheduledDate,
		m.Notes,
		m.TotalAmount,
		status,
		payment,
		quote,
		tracking,
		rating,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
