package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kodkids/site-api/internal/dto"
	"github.com/kodkids/site-api/internal/models"
	"github.com/kodkids/site-api/pkg/payment"
	"github.com/kodkids/site-api/pkg/response"
)

type checkoutService interface {
	Start(ctx context.Context, req dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	HandleNotification(ctx context.Context, n payment.Notification) (*models.Order, error)
}

// CheckoutHandler sells courses through the hosted payment page.
type CheckoutHandler struct {
	service checkoutService
}

// NewCheckoutHandler builds a new handler.
func NewCheckoutHandler(service checkoutService) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

// Start godoc
// @Summary Start a checkout for a course
// @Tags Checkout
// @Accept json
// @Produce json
// @Param payload body dto.CheckoutRequest true "Buyer details"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /checkout [post]
func (h *CheckoutHandler) Start(c *gin.Context) {
	var req dto.CheckoutRequest
	if !bindJSON(c, &req, "invalid checkout payload") {
		return
	}
	res, err := h.service.Start(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Notification godoc
// @Summary Payment status callback
// @Description Called by the payment provider; the signature is verified before anything is applied
// @Tags Checkout
// @Accept json
// @Produce json
// @Param payload body payment.Notification true "Provider notification"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /checkout/notifications [post]
func (h *CheckoutHandler) Notification(c *gin.Context) {
	var n payment.Notification
	if !bindJSON(c, &n, "invalid notification payload") {
		return
	}
	order, err := h.service.HandleNotification(c.Request.Context(), n)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"order_id": order.ID, "status": order.Status}, nil)
}
