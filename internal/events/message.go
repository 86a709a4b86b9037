package events

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	TypeMemoCreated MessageType = "memo_created"
	TypeMemoUpdated MessageType = "memo_updated"
	TypeMemoDeleted MessageType = "memo_deleted"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type MemoDeletedPayload struct {
	ID string `json:"id"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   payloadBytes,
	}, nil
}
