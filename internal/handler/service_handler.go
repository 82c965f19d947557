package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/servicehub/service-booking/internal/application"
	"github.com/servicehub/service-booking/pkg/auth"
	"github.com/servicehub/service-booking/pkg/middleware"
	"github.com/servicehub/service-booking/pkg/response"
)

// ServiceHandler handles HTTP requests for service listings.
type ServiceHandler struct {
	service *application.CatalogService
}

// NewServiceHandler creates a new ServiceHandler.
func NewServiceHandler(service *application.CatalogService) *ServiceHandler {
	return &ServiceHandler{service: service}
}

// RegisterRoutes registers the catalog routes. Browsing is public; editing
// requires the owning provider.
func (h *ServiceHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	providerRole := middleware.RequireRole(auth.RoleProvider)

	services := r.Group("/api/v1/services")
	{
		services.GET("", h.ListServices)
		services.GET("/:id", h.GetService)
		services.POST("", authMW, providerRole, h.CreateService)
		services.PUT("/:id", authMW, providerRole, h.UpdateService)
		services.DELETE("/:id", authMW, providerRole, h.ArchiveService)
	}

	r.GET("/api/v1/providers/:id/services", h.ListProviderServices)
}

// CreateService handles POST /api/v1/services.
func (h *ServiceHandler) CreateService(c *gin.Context) {
	providerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateService(c.Request.Context(), providerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListServices handles GET /api/v1/services?category=.
func (h *ServiceHandler) ListServices(c *gin.Context) {
	page, limit := parsePagination(c)
	result, err := h.service.ListServices(c.Request.Context(), c.Query("category"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// ListProviderServices handles GET /api/v1/providers/:id/services.
func (h *ServiceHandler) ListProviderServices(c *gin.Context) {
	providerID, ok := parseUUIDParam(c, "id", "invalid provider ID")
	if !ok {
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.ListProviderServices(c.Request.Context(), providerID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetService handles GET /api/v1/services/:id.
func (h *ServiceHandler) GetService(c *gin.Context) {
	serviceID, ok := parseUUIDParam(c, "id", "invalid service ID")
	if !ok {
		return
	}

	result, err := h.service.GetService(c.Request.Context(), serviceID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// UpdateService handles PUT /api/v1/services/:id.
func (h *ServiceHandler) UpdateService(c *gin.Context) {
	providerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}
	serviceID, ok := parseUUIDParam(c, "id", "invalid service ID")
	if !ok {
		return
	}

	var req application.UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateService(c.Request.Context(), providerID, serviceID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ArchiveService handles DELETE /api/v1/services/:id.
func (h *ServiceHandler) ArchiveService(c *gin.Context) {
	providerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}
	serviceID, ok := parseUUIDParam(c, "id", "invalid service ID")
	if !ok {
		return
	}

	if err := h.service.ArchiveService(c.Request.Context(), providerID, serviceID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "service archived"})
}
