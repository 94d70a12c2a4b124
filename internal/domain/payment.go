package domain

import "math"

// PaymentStatus summarises how much of an order's total has been paid. It is
// always derived from the stored amounts and never set directly.
type PaymentStatus string

const (
	// PaymentStatusUnpaid indicates no payment has been received.
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	// PaymentStatusPartiallyPaid indicates a payment short of the total.
	PaymentStatusPartiallyPaid PaymentStatus = "partially-paid"
	// PaymentStatusPaidInFull indicates payments cover the total.
	PaymentStatusPaidInFull PaymentStatus = "paid-in-full"
)

// NormalizeAmount rounds fractional monetary input to the nearest whole unit
// and clamps negatives to zero.
func NormalizeAmount(amount float64) int64 {
	rounded := int64(math.Round(amount))
	if rounded < 0 {
		return 0
	}
	return rounded
}

// DerivePaymentStatus computes the payment standing from the total owed and
// the two recorded payments. Inputs are clamped to zero before comparison so
// stray negatives cannot flip the result. A non-positive total counts as paid
// in full.
func DerivePaymentStatus(total, downPayment, additional int64) PaymentStatus {
	total = clampAmount(total)
	paid := clampAmount(downPayment) + clampAmount(additional)
	switch {
	case total <= 0:
		return PaymentStatusPaidInFull
	case paid <= 0:
		return PaymentStatusUnpaid
	case paid >= total:
		return PaymentStatusPaidInFull
	default:
		return PaymentStatusPartiallyPaid
	}
}

func clampAmount(amount int64) int64 {
	if amount < 0 {
		return 0
	}
	return amount
}
