package checkout

import (
	"log"
	"strings"

	"github.com/example/carcino/internal/history"
	"github.com/example/carcino/internal/order"
)

var medicineKeywords = []string{"cream", "medicine", "tablet", "capsule", "ointment", "drops", "syrup"}

// ContainsMedicine reports whether any item name mentions a medicine keyword.
func ContainsMedicine(record order.Record) bool {
	for _, item := range record.Items {
		name := strings.ToLower(item.Name)
		for _, keyword := range medicineKeywords {
			if strings.Contains(name, keyword) {
				return true
			}
		}
	}
	return false
}

// Confirm records a medicine order in the medical history. It appends at most
// one entry per order id, however often the confirmation is read, and reports
// whether an entry was added.
func Confirm(record order.Record, hist *history.Log) (bool, error) {
	if !ContainsMedicine(record) || hist.HasOrder(record.OrderID) {
		return false, nil
	}

	details := history.MedicineDetails{
		OrderID:           record.OrderID,
		Items:             record.Items,
		Total:             record.Total,
		OrderDate:         record.OrderDate,
		PaymentMethod:     record.PaymentMethod,
		DeliveryAddress:   record.DeliveryAddress,
		EstimatedDelivery: record.EstimatedDelivery,
		PurchaseType:      "online_purchase",
		Source:            "DermaSense Shop",
	}

	if _, err := hist.Append(history.KindMedicine, "Medicine Order - "+record.OrderID, details); err != nil {
		return false, err
	}
	log.Printf("[Checkout] medicine order %s saved to medical history", record.OrderID)
	return true, nil
}
