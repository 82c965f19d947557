package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	catalogDomain "github.com/servicehub/service-booking/internal/domain/catalog"
	"github.com/servicehub/service-booking/pkg/domain"
)

// ServiceModel is the GORM model for the services table.
type ServiceModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProviderID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Title         string    `gorm:"type:varchar(200);not null"`
	Description   string    `gorm:"type:text"`
	Category      string    `gorm:"type:varchar(50);not null;index"`
	Price         float64   `gorm:"type:numeric(12,2);not null"`
	AverageRating float64   `gorm:"type:double precision;not null;default:0"`
	RatingCount   int       `gorm:"not null;default:0"`
	Status        string    `gorm:"type:varchar(20);not null;default:'active'"`
	Version       int64     `gorm:"not null;default:1"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

func (ServiceModel) TableName() string { return "services" }

// GormServiceRepository implements ServiceRepository using GORM.
type GormServiceRepository struct {
	db *gorm.DB
}

func NewGormServiceRepository(db *gorm.DB) *GormServiceRepository {
	return &GormServiceRepository{db: db}
}

func (r *GormServiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalogDomain.Service, error) {
	var model ServiceModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Service", id.String())
		}
		return nil, err
	}
	return toServiceDomain(&model), nil
}

func (r *GormServiceRepository) FindByProviderID(ctx context.Context, providerID uuid.UUID, page, limit int) ([]*catalogDomain.Service, int64, error) {
	return r.findPage(r.db.WithContext(ctx).Where("provider_id = ?", providerID), page, limit)
}

func (r *GormServiceRepository) ListActive(ctx context.Context, category string, page, limit int) ([]*catalogDomain.Service, int64, error) {
	query := r.db.WithContext(ctx).Where("status = ?", string(catalogDomain.ServiceStatusActive))
	if category != "" {
		query = query.Where("category = ?", category)
	}
	return r.findPage(query, page, limit)
}

func (r *GormServiceRepository) findPage(query *gorm.DB, page, limit int) ([]*catalogDomain.Service, int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Model(&ServiceModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []ServiceModel
	if err := query.Session(&gorm.Session{}).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}
	services := make([]*catalogDomain.Service, len(models))
	for i := range models {
		services[i] = toServiceDomain(&models[i])
	}
	return services, total, nil
}

func (r *GormServiceRepository) Save(ctx context.Context, service *catalogDomain.Service) error {
	model := toServiceModel(service)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update writes the provider-editable columns. The rating aggregate is owned by
// RecordRating and is never overwritten from a stale read.
func (r *GormServiceRepository) Update(ctx context.Context, service *catalogDomain.Service) error {
	model := toServiceModel(service)
	previousVersion := service.Version() - 1

	result := r.db.WithContext(ctx).
		Model(&ServiceModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Updates(map[string]interface{}{
			"title":       model.Title,
			"description": model.Description,
			"category":    model.Category,
			"price":       model.Price,
			"status":      model.Status,
			"version":     model.Version,
			"updated_at":  model.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("service was modified by another request")
	}
	return nil
}

func (r *GormServiceRepository) RecordRating(ctx context.Context, id uuid.UUID, score int) error {
	result := r.db.WithContext(ctx).
		Model(&ServiceModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"average_rating": gorm.Expr("(average_rating * rating_count + ?) / (rating_count + 1.0)", float64(score)),
			"rating_count":   gorm.Expr("rating_count + 1"),
			"updated_at":     time.Now().UTC(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Service", id.String())
	}
	return nil
}

// --- Conversions ---

func toServiceModel(s *catalogDomain.Service) *ServiceModel {
	return &ServiceModel{
		ID:            s.ID(),
		ProviderID:    s.ProviderID(),
		Title:         s.Title(),
		Description:   s.Description(),
		Category:      s.Category(),
		Price:         s.Price(),
		AverageRating: s.AverageRating(),
		RatingCount:   s.RatingCount(),
		Status:        string(s.Status()),
		Version:       s.Version(),
		CreatedAt:     s.CreatedAt(),
		UpdatedAt:     s.UpdatedAt(),
	}
}

func toServiceDomain(m *ServiceModel) *catalogDomain.Service {
	return catalogDomain.Reconstruct(
		m.ID, m.ProviderID,
		m.Title, m.Description, m.Category,
		m.Price, m.AverageRating,
		m.RatingCount,
		catalogDomain.ServiceStatus(m.Status),
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	)
}
