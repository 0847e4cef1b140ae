package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// PanelSyncMessage asks the worker to rebuild the annual panel of Year and
// mirror it. It carries no ledger data; the worker reads the store.
type PanelSyncMessage struct {
	Year      int       `json:"year"`
	Timestamp time.Time `json:"timestamp"`
}

func NewPanelSyncMessage(year int) *PanelSyncMessage {
	return &PanelSyncMessage{
		Year:      year,
		Timestamp: time.Now().UTC(),
	}
}

func (m *PanelSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PanelSyncMessageFromJSON decodes a message and rejects impossible years.
func PanelSyncMessageFromJSON(data []byte) (*PanelSyncMessage, error) {
	var msg PanelSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Year < 1900 || msg.Year > 9999 {
		return nil, fmt.Errorf("invalid panel year %d", msg.Year)
	}
	return &msg, nil
}
