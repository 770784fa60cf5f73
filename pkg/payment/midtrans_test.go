package payment

import (
	"context"
	"testing"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSnap struct {
	req  *snap.Request
	resp *snap.Response
	err  *midtrans.Error
}

func (f *fakeSnap) CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error) {
	f.req = req
	return f.resp, f.err
}

func TestCreateCheckout(t *testing.T) {
	fake := &fakeSnap{resp: &snap.Response{Token: "tok", RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/tok"}}
	gw := &MidtransGateway{serverKey: "srv", client: fake}

	checkout, err := gw.CreateCheckout(context.Background(), Order{
		OrderID:   "ord-1",
		AmountIDR: 150000,
		ItemID:    "course-1",
		ItemName:  "Python for Kids",
		Customer:  Customer{Name: "Dana Levi Cohen", Email: "dana@example.com", Phone: "0501234567"},
		FinishURL: "https://kodkids.example/thanks",
	})
	require.NoError(t, err)
	assert.Equal(t, "tok", checkout.Token)
	assert.Equal(t, "ord-1", fake.req.TransactionDetails.OrderID)
	assert.Equal(t, int64(150000), fake.req.TransactionDetails.GrossAmt)
	assert.Equal(t, "Dana", fake.req.CustomerDetail.FName)
	assert.Equal(t, "Levi Cohen", fake.req.CustomerDetail.LName)
	assert.Equal(t, "https://kodkids.example/thanks", fake.req.Callbacks.Finish)
}

func TestCreateCheckoutProviderError(t *testing.T) {
	fake := &fakeSnap{err: &midtrans.Error{Message: "unauthorized", StatusCode: 401}}
	gw := &MidtransGateway{serverKey: "srv", client: fake}

	_, err := gw.CreateCheckout(context.Background(), Order{OrderID: "ord-1", AmountIDR: 1})
	assert.Error(t, err)
}

func TestCreateCheckoutRejectsInvalidOrder(t *testing.T) {
	gw := &MidtransGateway{serverKey: "srv", client: &fakeSnap{}}
	_, err := gw.CreateCheckout(context.Background(), Order{OrderID: "ord-1"})
	assert.Error(t, err)
	_, err = gw.CreateCheckout(context.Background(), Order{AmountIDR: 10})
	assert.Error(t, err)
}

func TestVerifySignature(t *testing.T) {
	n := Notification{OrderID: "ord-1", StatusCode: "200", GrossAmount: "150000.00"}
	n.SignatureKey = Sign("srv", n.OrderID, n.StatusCode, n.GrossAmount)

	assert.True(t, VerifySignature("srv", n))
	assert.False(t, VerifySignature("other", n))

	n.GrossAmount = "1.00"
	assert.False(t, VerifySignature("srv", n))
	assert.False(t, VerifySignature("srv", Notification{}))
}
