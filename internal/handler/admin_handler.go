package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/servicehub/service-booking/internal/application"
	bookingDomain "github.com/servicehub/service-booking/internal/domain/booking"
	"github.com/servicehub/service-booking/pkg/auth"
	"github.com/servicehub/service-booking/pkg/middleware"
	"github.com/servicehub/service-booking/pkg/response"
)

// ReconcilePaymentRequest is a manually verified payment outcome entered by an admin.
type ReconcilePaymentRequest struct {
	Result    string     `json:"result" binding:"required,oneof=paid failed refunded"`
	OrderID   string     `json:"orderId"`
	PaymentID string     `json:"paymentId"`
	PaidAt    *time.Time `json:"paidAt"`
}

// AdminBookingHandler handles admin HTTP requests for booking management.
type AdminBookingHandler struct {
	service *application.BookingService
}

// NewAdminBookingHandler creates a new AdminBookingHandler.
func NewAdminBookingHandler(service *application.BookingService) *AdminBookingHandler {
	return &AdminBookingHandler{service: service}
}

// RegisterRoutes registers admin booking routes.
func (h *AdminBookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, adminRole)
	{
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/stats/bookings", h.BookingStats)
		admin.POST("/bookings/:id/payment", h.ReconcilePayment)
	}
}

// ListBookings handles GET /api/v1/admin/bookings?status=.
func (h *AdminBookingHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)

	bookings, total, err := h.service.ListAllBookings(c.Request.Context(), c.Query("status"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, bookings, total, page, limit)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminBookingHandler) BookingStats(c *gin.Context) {
	stats, err := h.service.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// ReconcilePayment handles POST /api/v1/admin/bookings/:id/payment.
func (h *AdminBookingHandler) ReconcilePayment(c *gin.Context) {
	bookingID, ok := parseBookingID(c)
	if !ok {
		return
	}

	var req ReconcilePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ReconcilePayment(c.Request.Context(), bookingID, bookingDomain.PaymentOutcome{
		Result:    bookingDomain.PaymentResult(req.Result),
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		PaidAt:    req.PaidAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
