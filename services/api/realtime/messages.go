package realtime

import (
	"encoding/json"

	"github.com/priyanshu1258/Hackathon/services/api/reading"
)

// Event types sent over the push channel.
const (
	TypeDataUpdate = "dataUpdate"
)

// Envelope wraps every message sent to a client.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Update is the payload of a dataUpdate event: the category that changed and
// the log entry that was appended under it.
type Update struct {
	Category reading.Category `json:"category"`
	Data     reading.Entry    `json:"data"`
}

// NewEnvelope creates a JSON-encoded envelope message.
func NewEnvelope(msgType string, payload any) ([]byte, error) {
	env := Envelope{Type: msgType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Payload = data
	}
	return json.Marshal(env)
}
