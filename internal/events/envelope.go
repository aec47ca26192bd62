// Package events publishes domain events to Kafka.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventSaleRecorded         = "SaleRecorded"
	EventStockDeductionFailed = "StockDeductionFailed"
	EventStockReceived        = "StockReceived"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // sale or stock id
	Payload       json.RawMessage `json:"payload"`
}

type ItemQty struct {
	MedicineID int64 `json:"medicine_id"`
	Quantity   int64 `json:"quantity"`
}

type SaleRecordedPayload struct {
	SaleID      int64           `json:"sale_id"`
	PatientName string          `json:"patient_name"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []ItemQty       `json:"items"`
	Warnings    []string        `json:"warnings,omitempty"`
}

type DeductionFailureDetail struct {
	MedicineID int64  `json:"medicine_id"`
	Medicine   string `json:"medicine"`
	Remaining  int64  `json:"remaining"`
}

type StockDeductionFailedPayload struct {
	SaleID  int64                    `json:"sale_id"`
	Details []DeductionFailureDetail `json:"details"`
}

type StockReceivedPayload struct {
	StockID    int64           `json:"stock_id"`
	SupplierID int64           `json:"supplier_id"`
	TotalValue decimal.Decimal `json:"total_value"`
	Items      []ItemQty       `json:"items"`
}

// PartitionKey keeps events with the same correlation id on one partition.
func PartitionKey(correlationID int64) []byte {
	return []byte(fmt.Sprintf("medstore:%d", correlationID))
}
