package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(priceID, vendorID string, price float64, qty int) CartLine {
	return CartLine{PriceID: priceID, VendorID: vendorID, UnitPrice: price, Quantity: qty}
}

func TestCartLine_SetQuantityBounds(t *testing.T) {
	l := line("p1", "v1", 450, 3)

	assert.ErrorIs(t, l.SetQuantity(0), ErrQuantityOutOfRange)
	assert.Equal(t, 3, l.Quantity, "rejected update must leave the previous quantity")

	assert.ErrorIs(t, l.SetQuantity(21), ErrQuantityOutOfRange)
	assert.Equal(t, 3, l.Quantity)

	require.NoError(t, l.SetQuantity(1))
	require.NoError(t, l.SetQuantity(20))
	assert.Equal(t, 20, l.Quantity)
}

func TestCartLine_SubtotalRecomputed(t *testing.T) {
	l := line("p1", "v1", 450, 2)
	assert.Equal(t, 900.0, l.Subtotal())

	require.NoError(t, l.SetQuantity(5))
	assert.Equal(t, 2250.0, l.Subtotal())
}

func TestPartitionByVendor(t *testing.T) {
	lines := []CartLine{
		line("p1", "vendorA", 500, 1),
		line("p2", "vendorA", 300, 2),
		line("p3", "vendorB", 250, 1),
	}

	groups := PartitionByVendor(lines)
	require.Len(t, groups, 2)
	assert.Len(t, groups["vendorA"], 2)
	assert.Len(t, groups["vendorB"], 1)

	_, err := SingleVendor(lines)
	assert.ErrorIs(t, err, ErrMultipleVendors)
}

func TestSingleVendor(t *testing.T) {
	lines := []CartLine{
		line("p1", "vendorA", 500, 1),
		line("p2", "vendorA", 300, 2),
	}
	id, err := SingleVendor(lines)
	require.NoError(t, err)
	assert.Equal(t, "vendorA", id)

	id, err = SingleVendor(nil)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestKeepVendor(t *testing.T) {
	lines := []CartLine{
		line("p1", "vendorA", 500, 1),
		line("p2", "vendorB", 250, 1),
		line("p3", "vendorA", 300, 2),
	}
	kept := KeepVendor(lines, "vendorA")
	require.Len(t, kept, 2)
	for _, l := range kept {
		assert.Equal(t, "vendorA", l.VendorID)
	}
}

func TestCartSubtotal(t *testing.T) {
	lines := []CartLine{
		line("p1", "vendorA", 500, 2), // 1000
		line("p2", "vendorA", 150, 3), // 450
	}
	assert.Equal(t, 1450.0, CartSubtotal(lines))
}

func TestVendorCoordinates(t *testing.T) {
	lat, lng := 6.9271, 79.8612
	lines := []CartLine{
		line("p1", "vendorA", 500, 1),
		{PriceID: "p2", VendorID: "vendorA", UnitPrice: 300, Quantity: 1, VendorLat: &lat, VendorLng: &lng},
	}
	gotLat, gotLng := VendorCoordinates(lines)
	require.NotNil(t, gotLat)
	require.NotNil(t, gotLng)
	assert.Equal(t, lat, *gotLat)
	assert.Equal(t, lng, *gotLng)

	gotLat, gotLng = VendorCoordinates(lines[:1])
	assert.Nil(t, gotLat)
	assert.Nil(t, gotLng)
}

func TestStatusSets(t *testing.T) {
	assert.True(t, StatusPending.Cancellable())
	assert.True(t, StatusConfirmed.Cancellable())
	assert.False(t, StatusPreparing.Cancellable())
	assert.False(t, StatusDelivered.Cancellable())

	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusRefunded.Terminal())
	assert.False(t, StatusOutForDelivery.Terminal())
}

func TestInvoiceAvailable(t *testing.T) {
	o := Order{Status: StatusDelivered, PaymentStatus: PaymentPaid}
	assert.True(t, o.InvoiceAvailable())

	o.PaymentStatus = PaymentPending
	assert.False(t, o.InvoiceAvailable())

	o = Order{Status: StatusPending, PaymentStatus: PaymentPaid}
	assert.False(t, o.InvoiceAvailable())
}
