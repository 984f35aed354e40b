package amqp

import (
	"encoding/json"
	"time"
)

// PaymentRecordedMessage announces one payment recorded against a local
// backend so the worker can mirror it to the shared spreadsheet. It
// carries the full entry because the worker has no access to the
// originating database.
type PaymentRecordedMessage struct {
	Name        string    `json:"name"`
	PersonID    string    `json:"personId"`
	Month       string    `json:"month"`
	Amount      float64   `json:"amount"`
	Note        string    `json:"note"`
	Description string    `json:"description"`
	CategoryKey string    `json:"categoryKey"`
	Sheet       string    `json:"sheet"`
	Timestamp   time.Time `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes.
func (m *PaymentRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PaymentRecordedMessageFromJSON creates a message from JSON bytes.
func PaymentRecordedMessageFromJSON(data []byte) (*PaymentRecordedMessage, error) {
	var msg PaymentRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
