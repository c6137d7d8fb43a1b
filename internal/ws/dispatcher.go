package ws

import (
	"context"
	"log"
	"strings"

	"github.com/pulse-im/pulse/store/group"
	"github.com/pulse-im/pulse/store/message"
)

// Dispatcher routes inbound frames. Every message-producing operation
// persists through the stores before any fan-out, and delivery to a
// peer that is not connected is a normal outcome, silently skipped.
// Fan-out failure never rolls persistence back.
type Dispatcher struct {
	registry *Registry
	messages message.Store
	groups   group.Store
}

// NewDispatcher creates a Dispatcher over the registry and stores.
func NewDispatcher(registry *Registry, messages message.Store, groups group.Store) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		messages: messages,
		groups:   groups,
	}
}

// Dispatch handles one inbound frame from sender. Frame-level
// failures are reported back on the same connection as an error frame
// and are never fatal to the connection.
func (d *Dispatcher) Dispatch(ctx context.Context, sender Peer, data []byte) {
	in, err := decodeInbound(data)
	if err != nil {
		d.sendError(sender, err.Error())
		return
	}

	switch f := in.(type) {
	case *MessageFrame:
		d.handleMessage(ctx, sender, f)
	case *GroupMessageFrame:
		d.handleGroupMessage(ctx, sender, f)
	case *TypingFrame:
		d.handleTyping(sender, f)
	case *ReadMessagesFrame:
		d.handleReadMessages(ctx, sender, f)
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, sender Peer, f *MessageFrame) {
	if strings.TrimSpace(f.Content) == "" {
		d.sendError(sender, "message content must not be empty")
		return
	}

	record := &message.DirectMessage{
		SenderID:   sender.UserID(),
		ReceiverID: f.ReceiverID,
		Content:    f.Content,
	}
	if err := d.messages.Create(ctx, record); err != nil {
		log.Printf("dispatch: saving message from %s to %s: %v", record.SenderID, record.ReceiverID, err)
		d.sendError(sender, "failed to save message")
		return
	}

	if receiver, ok := d.registry.Lookup(f.ReceiverID); ok {
		d.deliver(receiver, MessageDeliveryFrame{Type: TypeMessage, Message: record})
	}

	// The sender is acked with the persisted record whether or not
	// the receiver was connected.
	d.deliver(sender, MessageDeliveryFrame{Type: TypeMessageSent, Message: record})
}

func (d *Dispatcher) handleGroupMessage(ctx context.Context, sender Peer, f *GroupMessageFrame) {
	if strings.TrimSpace(f.Content) == "" {
		d.sendError(sender, "message content must not be empty")
		return
	}

	record := &group.GroupMessage{
		GroupID:  f.GroupID,
		SenderID: sender.UserID(),
		Content:  f.Content,
	}
	if err := d.groups.CreateMessage(ctx, record); err != nil {
		log.Printf("dispatch: saving group message from %s to %s: %v", record.SenderID, record.GroupID, err)
		d.sendError(sender, "failed to save group message")
		return
	}

	// Membership is resolved per message, never cached, so a change
	// takes effect on the next fan-out.
	members, err := d.groups.Members(ctx, f.GroupID)
	if err != nil {
		// The record is already durable; the sender still gets its
		// ack and members fetch it over history.
		log.Printf("dispatch: resolving members of %s: %v", f.GroupID, err)
	}

	for _, member := range members {
		if member.ID == sender.UserID() {
			continue
		}
		if peer, ok := d.registry.Lookup(member.ID); ok {
			d.deliver(peer, GroupMessageDeliveryFrame{Type: TypeGroupMessage, Message: record})
		}
	}

	d.deliver(sender, GroupMessageDeliveryFrame{Type: TypeGroupMessageSent, Message: record})
}

func (d *Dispatcher) handleTyping(sender Peer, f *TypingFrame) {
	// Ephemeral: nothing persisted, nothing acked, dropped when the
	// receiver is offline.
	if receiver, ok := d.registry.Lookup(f.ReceiverID); ok {
		d.deliver(receiver, TypingNoticeFrame{Type: TypeTyping, SenderID: sender.UserID()})
	}
}

func (d *Dispatcher) handleReadMessages(ctx context.Context, sender Peer, f *ReadMessagesFrame) {
	if err := d.messages.MarkRead(ctx, sender.UserID(), f.SenderID); err != nil {
		log.Printf("dispatch: marking messages %s->%s read: %v", f.SenderID, sender.UserID(), err)
		d.sendError(sender, "failed to mark messages as read")
		return
	}

	if peer, ok := d.registry.Lookup(f.SenderID); ok {
		d.deliver(peer, MessagesReadFrame{Type: TypeMessagesRead, ReaderID: sender.UserID()})
	}
}

func (d *Dispatcher) deliver(p Peer, frame interface{}) {
	data, err := encodeFrame(frame)
	if err != nil {
		log.Printf("dispatch: encoding frame for %s: %v", p.UserID(), err)
		return
	}
	if err := p.Send(data); err != nil {
		// A broken peer tears itself down; delivery here is
		// at-least-once to connected peers, not guaranteed.
		log.Printf("dispatch: delivering to %s: %v", p.UserID(), err)
	}
}

func (d *Dispatcher) sendError(p Peer, msg string) {
	d.deliver(p, ErrorFrame{Type: TypeError, Error: msg})
}
