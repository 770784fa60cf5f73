package payment

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

// Customer identifies the payer in the hosted checkout.
type Customer struct {
	Name  string
	Email string
	Phone string
}

// Order is a single-item checkout request.
type Order struct {
	OrderID   string
	AmountIDR int64
	ItemID    string
	ItemName  string
	Customer  Customer
	FinishURL string
}

// Checkout is the hosted checkout session returned by the provider.
type Checkout struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// Notification is the asynchronous status callback posted by Midtrans.
type Notification struct {
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"`
	TransactionID     string `json:"transaction_id"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"`
}

type snapCreator interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

// MidtransGateway creates Snap transactions and verifies notifications.
type MidtransGateway struct {
	serverKey string
	client    snapCreator
}

// NewMidtransGateway configures a Snap client for the sandbox or production environment.
func NewMidtransGateway(serverKey string, production bool) *MidtransGateway {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	var client snap.Client
	client.New(serverKey, env)
	return &MidtransGateway{serverKey: serverKey, client: &client}
}

// CreateCheckout opens a hosted checkout for the order.
func (g *MidtransGateway) CreateCheckout(ctx context.Context, order Order) (*Checkout, error) {
	if order.AmountIDR <= 0 {
		return nil, errors.New("amount must be positive")
	}
	if order.OrderID == "" {
		return nil, errors.New("order id is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	first, last := splitName(order.Customer.Name)
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  order.OrderID,
			GrossAmt: order.AmountIDR,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: first,
			LName: last,
			Email: order.Customer.Email,
			Phone: order.Customer.Phone,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:    order.ItemID,
			Name:  truncate(order.ItemName, 50),
			Price: order.AmountIDR,
			Qty:   1,
		}},
		CreditCard: &snap.CreditCardDetails{Secure: true},
	}
	if order.FinishURL != "" {
		req.Callbacks = &snap.Callbacks{Finish: order.FinishURL}
	}

	resp, mErr := g.client.CreateTransaction(req)
	if mErr != nil {
		return nil, mErr
	}
	return &Checkout{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

// VerifyNotification checks SHA512(order_id+status_code+gross_amount+server_key).
func (g *MidtransGateway) VerifyNotification(n Notification) bool {
	return VerifySignature(g.serverKey, n)
}

// VerifySignature reports whether the notification was signed with serverKey.
func VerifySignature(serverKey string, n Notification) bool {
	if n.SignatureKey == "" || serverKey == "" {
		return false
	}
	want := Sign(serverKey, n.OrderID, n.StatusCode, n.GrossAmount)
	got := strings.ToLower(n.SignatureKey)
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

// Sign computes the Midtrans notification signature.
func Sign(serverKey, orderID, statusCode, grossAmount string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
