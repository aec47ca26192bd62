package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMemory_PublishWrapsEnvelope(t *testing.T) {
	var m Memory
	payload := SaleRecordedPayload{
		SaleID:      7,
		PatientName: "Jane",
		TotalAmount: decimal.RequireFromString("12.50"),
		Items:       []ItemQty{{MedicineID: 1, Quantity: 5}},
	}
	if err := m.Publish(context.Background(), EventSaleRecorded, 7, payload); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	evs := m.Events()
	if len(evs) != 1 {
		t.Fatalf("got %d events, want 1", len(evs))
	}
	ev := evs[0]
	if ev.EventType != EventSaleRecorded || ev.CorrelationID != "7" || ev.EventVersion != 1 || ev.EventID == "" {
		t.Errorf("envelope = %+v", ev)
	}

	var got SaleRecordedPayload
	if err := json.Unmarshal(ev.Payload, &got); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if got.SaleID != 7 || !got.TotalAmount.Equal(payload.TotalAmount) || len(got.Items) != 1 {
		t.Errorf("payload = %+v", got)
	}
}

func TestPartitionKey(t *testing.T) {
	if got := string(PartitionKey(42)); got != "medstore:42" {
		t.Errorf("PartitionKey() = %q", got)
	}
}

func TestNoop(t *testing.T) {
	if err := (Noop{}).Publish(context.Background(), EventStockReceived, 1, nil); err != nil {
		t.Errorf("Noop.Publish() error = %v", err)
	}
}
