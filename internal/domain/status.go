package domain

import (
	"fmt"
	"strings"
)

// Order statuses. A pending order transitions to accepted or rejected
// exactly once.
const (
	OrderPending  = "pending"
	OrderAccepted = "accepted"
	OrderRejected = "rejected"
)

// Product categories, tiered by how fast they turn over.
const (
	CategoryConsumables    = "medical_consumables"
	CategoryPharmaceutical = "medicines_pharmaceutical"
	CategoryEquipment      = "medical_equipment"
)

// Stock status kinds.
const (
	StockOut    = "out"
	StockLow    = "low"
	StockMedium = "medium"
	StockGood   = "good"
)

// Classification thresholds, in estimated days of cover.
const (
	LowStockDays    = 7
	MediumStockDays = 30
)

var orderStatusCodes = map[string]bool{
	OrderPending:  true,
	OrderAccepted: true,
	OrderRejected: true,
}

// ValidOrderStatus reports whether label is a known order status
// (case-insensitive).
func ValidOrderStatus(label string) bool {
	return orderStatusCodes[strings.ToLower(label)]
}

var statusSeverities = map[string]string{
	StockOut:    "danger",
	StockLow:    "danger",
	StockMedium: "warning",
	StockGood:   "success",
}

// ClassifyStock maps a depletion estimate to its status. A zero stock is
// always "out" regardless of the estimate.
func ClassifyStock(stock, days int) StockStatus {
	switch {
	case stock == 0:
		return StockStatus{Kind: StockOut, Days: 0, Message: "Out of stock", Severity: statusSeverities[StockOut]}
	case days <= LowStockDays:
		return StockStatus{
			Kind:     StockLow,
			Days:     days,
			Message:  fmt.Sprintf("Low stock - %d day(s) remaining", days),
			Severity: statusSeverities[StockLow],
		}
	case days <= MediumStockDays:
		return StockStatus{
			Kind:     StockMedium,
			Days:     days,
			Message:  fmt.Sprintf("Medium stock - %d day(s) remaining", days),
			Severity: statusSeverities[StockMedium],
		}
	default:
		return StockStatus{
			Kind:     StockGood,
			Days:     days,
			Message:  fmt.Sprintf("Sufficient stock approximately %d day(s) remaining", days),
			Severity: statusSeverities[StockGood],
		}
	}
}
