package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	domain "github.com/petalworks/api/internal/domain"
)

const (
	activityKindCreated  = "created"
	activityKindStatus   = "status"
	activityKindPayment  = "payment"
	activityKindMethod   = "payment-method"
	activityKindDelivery = "delivery"
	activityKindProduct  = "product"
	activityKindEdit     = "edit"
)

// creationActivity builds the single log entry every new order starts with.
func creationActivity(order Order, now time.Time) ActivityEntry {
	return ActivityEntry{
		Timestamp: now,
		Kind:      activityKindCreated,
		Message:   fmt.Sprintf("order created with status %s and payment %s", humanizeLabel(string(order.Status)), humanizeLabel(string(order.PaymentStatus))),
	}
}

// changeActivity compares the stored order with its updated form and produces
// one entry per changed tracked aspect, in a fixed order. A payment status
// change absorbs the monetary comparison so a single payment entry describes
// the whole money movement. When nothing tracked changed, a generic edit entry
// records that the order was touched.
func changeActivity(before, after Order, now time.Time) []ActivityEntry {
	var entries []ActivityEntry
	add := func(kind, message string) {
		entries = append(entries, ActivityEntry{Timestamp: now, Kind: kind, Message: message})
	}

	if before.Status != after.Status {
		add(activityKindStatus, fmt.Sprintf("status changed from %s to %s", humanizeLabel(string(before.Status)), humanizeLabel(string(after.Status))))
	}

	if before.PaymentStatus != after.PaymentStatus {
		add(activityKindPayment, fmt.Sprintf("payment status changed from %s to %s", humanizeLabel(string(before.PaymentStatus)), humanizeLabel(string(after.PaymentStatus))))
	} else if message := amountChangeMessage(before, after); message != "" {
		add(activityKindPayment, message)
	}

	if before.PaymentMethod != after.PaymentMethod {
		switch {
		case before.PaymentMethod == "":
			add(activityKindMethod, fmt.Sprintf("payment method set to %s", humanizeLabel(string(after.PaymentMethod))))
		case after.PaymentMethod == "":
			add(activityKindMethod, "payment method cleared")
		default:
			add(activityKindMethod, fmt.Sprintf("payment method changed from %s to %s", humanizeLabel(string(before.PaymentMethod)), humanizeLabel(string(after.PaymentMethod))))
		}
	}

	if !equalTimes(before.DeliveryAt, after.DeliveryAt) {
		switch {
		case before.DeliveryAt == nil:
			add(activityKindDelivery, fmt.Sprintf("delivery time set to %s", formatDeliveryTime(after.DeliveryAt)))
		case after.DeliveryAt == nil:
			add(activityKindDelivery, "delivery time cleared")
		default:
			add(activityKindDelivery, fmt.Sprintf("delivery time changed from %s to %s", formatDeliveryTime(before.DeliveryAt), formatDeliveryTime(after.DeliveryAt)))
		}
	}

	if before.ProductID != after.ProductID {
		add(activityKindProduct, fmt.Sprintf("product changed from %s to %s", productLabel(before), productLabel(after)))
	}

	if len(entries) == 0 {
		add(activityKindEdit, "order details edited")
	}
	return entries
}

func amountChangeMessage(before, after Order) string {
	var parts []string
	describe := func(label string, prev, next int64) {
		if prev != next {
			parts = append(parts, fmt.Sprintf("%s %s to %s", label, formatAmount(prev), formatAmount(next)))
		}
	}
	describe("down payment", before.DownPaymentAmount, after.DownPaymentAmount)
	describe("additional payment", before.AdditionalPayment, after.AdditionalPayment)
	describe("delivery price", before.DeliveryPrice, after.DeliveryPrice)
	if len(parts) == 0 {
		return ""
	}
	return "payment amounts updated: " + strings.Join(parts, ", ")
}

// appendActivity appends entries and drops the oldest ones beyond the cap.
func appendActivity(log []ActivityEntry, entries ...ActivityEntry) []ActivityEntry {
	combined := make([]ActivityEntry, 0, len(log)+len(entries))
	combined = append(combined, log...)
	combined = append(combined, entries...)
	if overflow := len(combined) - domain.MaxActivityEntries; overflow > 0 {
		combined = combined[overflow:]
	}
	return combined
}

// humanizeLabel renders machine labels for activity messages.
func humanizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "none"
	}
	label = strings.ReplaceAll(label, "-", " ")
	label = strings.ReplaceAll(label, "_", " ")
	return label
}

func productLabel(order Order) string {
	if name := strings.TrimSpace(order.ProductName); name != "" {
		return name
	}
	return order.ProductID
}

func formatAmount(amount int64) string {
	return strconv.FormatInt(amount, 10)
}

func formatDeliveryTime(value *time.Time) string {
	if value == nil {
		return "none"
	}
	return value.UTC().Format(time.RFC3339)
}

func equalTimes(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
