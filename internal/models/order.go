package models

import "time"

// OrderStatus is the internal payment state of a checkout order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
)

// Order records a hosted checkout for a course.
type Order struct {
	ID               string      `db:"id" json:"id"`
	CourseID         string      `db:"course_id" json:"course_id"`
	CustomerName     string      `db:"customer_name" json:"customer_name"`
	CustomerEmail    string      `db:"customer_email" json:"customer_email"`
	CustomerPhone    string      `db:"customer_phone" json:"customer_phone"`
	AmountIDR        int64       `db:"amount_idr" json:"amount_idr"`
	Status           OrderStatus `db:"status" json:"status"`
	SnapToken        *string     `db:"snap_token" json:"-"`
	GatewayReference *string     `db:"gateway_reference" json:"gateway_reference,omitempty"`
	GatewayStatus    *string     `db:"gateway_status" json:"gateway_status,omitempty"`
	PaidAt           *time.Time  `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt        time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at" json:"updated_at"`
}
