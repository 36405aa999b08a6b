package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventUploadPlaced is emitted once a file is placed and recorded.
const EventUploadPlaced = "upload.placed"

const messageVersion = 1

// Message is the payload sent to downstream consumers of upload events.
type Message struct {
	Event        string `json:"event"`
	RecordID     string `json:"recordId"`
	Scope        string `json:"scope,omitempty"`
	OriginalName string `json:"originalName"`
	StoredName   string `json:"storedName"`
	URL          string `json:"url"`
	SizeBytes    int64  `json:"sizeBytes"`
	ReplicaKey   string `json:"replicaKey,omitempty"`
	RequestID    string `json:"requestId,omitempty"`
	OccurredAt   string `json:"occurredAt"`
	Version      int    `json:"version"`
}

// NewPlacedMessage stamps an upload.placed message with the current version.
func NewPlacedMessage(at time.Time) Message {
	return Message{
		Event:      EventUploadPlaced,
		OccurredAt: at.UTC().Format(time.RFC3339Nano),
		Version:    messageVersion,
	}
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	if msg.Event == "" || msg.RecordID == "" {
		return nil, fmt.Errorf("queue message requires event and record id")
	}
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	if msg.Version > messageVersion {
		return Message{}, fmt.Errorf("unsupported message version %d", msg.Version)
	}
	return msg, nil
}
