package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kodkids/site-api/internal/dto"
	"github.com/kodkids/site-api/internal/models"
	appErrors "github.com/kodkids/site-api/pkg/errors"
	"github.com/kodkids/site-api/pkg/payment"
	"github.com/kodkids/site-api/pkg/validation"
)

type orderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	UpdatePayment(ctx context.Context, order *models.Order) error
}

type courseGetter interface {
	Get(ctx context.Context, id string) (*models.CourseDetail, bool, error)
}

// PaymentGateway opens hosted checkouts and authenticates their notifications.
type PaymentGateway interface {
	CreateCheckout(ctx context.Context, order payment.Order) (*payment.Checkout, error)
	VerifyNotification(n payment.Notification) bool
}

// CheckoutService sells courses through the hosted payment page.
type CheckoutService struct {
	orders    orderRepository
	courses   courseGetter
	gateway   PaymentGateway
	finishURL string
	validator *validation.Validator
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewCheckoutService constructs the service.
func NewCheckoutService(orders orderRepository, courses courseGetter, gateway PaymentGateway, finishURL string, validator *validation.Validator, metrics *MetricsService, logger *zap.Logger) *CheckoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validator == nil {
		validator = validation.New("en")
	}
	return &CheckoutService{
		orders:    orders,
		courses:   courses,
		gateway:   gateway,
		finishURL: finishURL,
		validator: validator,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Start records a pending order for the course and opens a hosted checkout for it.
func (s *CheckoutService) Start(ctx context.Context, req dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := validateStruct(s.validator, req, "please check the highlighted fields"); err != nil {
		return nil, err
	}

	course, _, err := s.courses.Get(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	if !course.IsActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	if course.PriceIDR <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course is not available for online payment")
	}

	order := &models.Order{
		ID:            "KK-" + strings.ToUpper(uuid.NewString()[:8]) + "-" + s.now().UTC().Format("060102150405"),
		CourseID:      course.ID,
		CustomerName:  req.Name,
		CustomerEmail: req.Email,
		CustomerPhone: req.Phone,
		AmountIDR:     course.PriceIDR,
		Status:        models.OrderStatusPending,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create order")
	}

	checkout, err := s.gateway.CreateCheckout(ctx, payment.Order{
		OrderID:   order.ID,
		AmountIDR: order.AmountIDR,
		ItemID:    course.ID,
		ItemName:  course.Title,
		Customer:  payment.Customer{Name: req.Name, Email: req.Email, Phone: req.Phone},
		FinishURL: s.finishURL,
	})
	if err != nil {
		s.logger.Error("checkout creation failed", zap.String("order_id", order.ID), zap.Error(err))
		order.Status = models.OrderStatusFailed
		order.GatewayStatus = optional("checkout_error")
		if uerr := s.orders.UpdatePayment(ctx, order); uerr != nil {
			s.logger.Warn("failed to mark order failed", zap.String("order_id", order.ID), zap.Error(uerr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPaymentGateway.Code, appErrors.ErrPaymentGateway.Status, appErrors.ErrPaymentGateway.Message)
	}

	order.SnapToken = optional(checkout.Token)
	if err := s.orders.UpdatePayment(ctx, order); err != nil {
		s.logger.Warn("failed to store checkout token", zap.String("order_id", order.ID), zap.Error(err))
	}
	return &dto.CheckoutResponse{OrderID: order.ID, Token: checkout.Token, RedirectURL: checkout.RedirectURL}, nil
}

// HandleNotification authenticates a gateway callback and applies the reported status.
func (s *CheckoutService) HandleNotification(ctx context.Context, n payment.Notification) (*models.Order, error) {
	if !s.gateway.VerifyNotification(n) {
		s.metrics.RecordPayment("invalid_signature")
		return nil, appErrors.Clone(appErrors.ErrInvalidSignature, "")
	}

	order, err := s.orders.FindByID(ctx, n.OrderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "order not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load order")
	}

	status := OrderStatusFromGateway(n.TransactionStatus, n.FraudStatus)
	if !orderTransitionAllowed(order, status) {
		s.metrics.RecordPayment("ignored")
		s.logger.Info("stale payment notification ignored",
			zap.String("order_id", order.ID),
			zap.String("transaction_status", n.TransactionStatus),
			zap.String("current_status", string(order.Status)),
		)
		return order, nil
	}
	order.Status = status
	order.GatewayStatus = optional(n.TransactionStatus)
	order.GatewayReference = optional(n.TransactionID)
	if status == models.OrderStatusPaid && order.PaidAt == nil {
		paidAt := s.now().UTC()
		order.PaidAt = &paidAt
	}
	if err := s.orders.UpdatePayment(ctx, order); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update order")
	}
	s.metrics.RecordPayment(string(status))
	s.logger.Info("payment notification applied",
		zap.String("order_id", order.ID),
		zap.String("transaction_status", n.TransactionStatus),
		zap.String("status", string(status)),
	)
	return order, nil
}

// orderTransitionAllowed reports whether a notification may move order to next. Notifications
// arrive out of order and are retried, so a paid order only moves on to refunded and a refunded
// order is final.
func orderTransitionAllowed(order *models.Order, next models.OrderStatus) bool {
	switch {
	case order.Status == models.OrderStatusRefunded:
		return false
	case order.Status == models.OrderStatusPaid || order.PaidAt != nil:
		return next == models.OrderStatusRefunded
	default:
		return true
	}
}

// OrderStatusFromGateway maps a Midtrans transaction status to the order status. Captures held
// for fraud review stay pending.
func OrderStatusFromGateway(transactionStatus, fraudStatus string) models.OrderStatus {
	switch transactionStatus {
	case "settlement":
		return models.OrderStatusPaid
	case "capture":
		if fraudStatus == "" || fraudStatus == "accept" {
			return models.OrderStatusPaid
		}
		if fraudStatus == "deny" {
			return models.OrderStatusFailed
		}
		return models.OrderStatusPending
	case "deny", "expire", "failure":
		return models.OrderStatusFailed
	case "cancel":
		return models.OrderStatusCancelled
	case "refund", "partial_refund":
		return models.OrderStatusRefunded
	default:
		return models.OrderStatusPending
	}
}
