package amqp

import (
	"encoding/json"
	"time"
)

// SnapshotSavedMessage announces that a named snapshot was written.
// Consumers read the snapshot itself from storage.
type SnapshotSavedMessage struct {
	Snapshot  string    `json:"snapshot"`
	Expenses  int       `json:"expenses"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSnapshotSavedMessage(snapshot string, expenses int) *SnapshotSavedMessage {
	return &SnapshotSavedMessage{
		Snapshot:  snapshot,
		Expenses:  expenses,
		Timestamp: time.Now(),
	}
}

func (m *SnapshotSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SnapshotSavedMessageFromJSON(data []byte) (*SnapshotSavedMessage, error) {
	var msg SnapshotSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
