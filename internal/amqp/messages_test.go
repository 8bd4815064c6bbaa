package amqp

import "testing"

func TestTransactionExportMessageRoundTrip(t *testing.T) {
	msg := NewTransactionExportMessage(123)
	if msg.Timestamp.IsZero() {
		t.Fatalf("expected timestamp to be set")
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	decoded, err := TransactionExportMessageFromJSON(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.ID != 123 {
		t.Fatalf("expected id 123, got %d", decoded.ID)
	}
}

func TestTransactionExportMessageFromJSONInvalid(t *testing.T) {
	if _, err := TransactionExportMessageFromJSON([]byte("{not json")); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}
