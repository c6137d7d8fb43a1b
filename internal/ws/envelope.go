// Package ws implements the real-time layer: a registry of live
// websocket peers keyed by user id, an upgrade gate that authenticates
// connections before admission, and a dispatcher that routes direct
// messages, group messages, typing indicators, and read receipts to
// the currently connected recipients.
package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pulse-im/pulse/store/group"
	"github.com/pulse-im/pulse/store/message"
)

// FrameType discriminates the JSON envelope exchanged on a connection.
// Every frame in both directions is a flat object {"type": ..., fields}.
type FrameType string

const (
	// Inbound (client to server).
	TypeMessage      FrameType = "message"
	TypeGroupMessage FrameType = "group_message"
	TypeTyping       FrameType = "typing"
	TypeReadMessages FrameType = "read_messages"

	// Outbound (server to client). TypeMessage, TypeGroupMessage and
	// TypeTyping are reused for deliveries.
	TypeConnected        FrameType = "connected"
	TypeMessageSent      FrameType = "message_sent"
	TypeGroupMessageSent FrameType = "group_message_sent"
	TypeMessagesRead     FrameType = "messages_read"
	TypeError            FrameType = "error"
)

// Inbound frames.

type MessageFrame struct {
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
}

type GroupMessageFrame struct {
	GroupID string `json:"group_id"`
	Content string `json:"content"`
}

type TypingFrame struct {
	ReceiverID string `json:"receiver_id"`
}

type ReadMessagesFrame struct {
	SenderID string `json:"sender_id"`
}

// Outbound frames.

type ConnectedFrame struct {
	Type   FrameType `json:"type"`
	UserID string    `json:"user_id"`
}

type MessageDeliveryFrame struct {
	Type    FrameType              `json:"type"`
	Message *message.DirectMessage `json:"message"`
}

type GroupMessageDeliveryFrame struct {
	Type    FrameType           `json:"type"`
	Message *group.GroupMessage `json:"message"`
}

type TypingNoticeFrame struct {
	Type     FrameType `json:"type"`
	SenderID string    `json:"sender_id"`
}

type MessagesReadFrame struct {
	Type     FrameType `json:"type"`
	ReaderID string    `json:"reader_id"`
}

type ErrorFrame struct {
	Type  FrameType `json:"type"`
	Error string    `json:"error"`
}

// decodeInbound parses one wire frame into its typed payload. Any
// failure here is a validation error to be reported back on the
// connection, never a reason to drop it.
func decodeInbound(data []byte) (interface{}, error) {
	var head struct {
		Type FrameType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	switch head.Type {
	case TypeMessage:
		var f MessageFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("malformed %s frame: %w", head.Type, err)
		}
		if f.ReceiverID == "" {
			return nil, errors.New("message frame missing receiver_id")
		}
		return &f, nil

	case TypeGroupMessage:
		var f GroupMessageFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("malformed %s frame: %w", head.Type, err)
		}
		if f.GroupID == "" {
			return nil, errors.New("group_message frame missing group_id")
		}
		return &f, nil

	case TypeTyping:
		var f TypingFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("malformed %s frame: %w", head.Type, err)
		}
		if f.ReceiverID == "" {
			return nil, errors.New("typing frame missing receiver_id")
		}
		return &f, nil

	case TypeReadMessages:
		var f ReadMessagesFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("malformed %s frame: %w", head.Type, err)
		}
		if f.SenderID == "" {
			return nil, errors.New("read_messages frame missing sender_id")
		}
		return &f, nil

	case "":
		return nil, errors.New("frame missing type")

	default:
		return nil, fmt.Errorf("unrecognized frame type %q", head.Type)
	}
}

func encodeFrame(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}
