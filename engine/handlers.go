package engine

// This file holds the pure transition functions mapping (Registers,
// Stimulus) to (Registers, Action). No handler here performs I/O; each only
// decides what the Engine must subsequently do.

import "github.com/brineflow/mqttengine/packets"

// buildConnectSequence is the handler run once the transport has connected
// following an API Connect command: it runs the actions stashed when the
// command was first accepted. It writes the CONNECT frame and arms
// keep-alive bookkeeping.
func buildConnectSequence(r Registers, cmd ConnectCommand, nowMs int64) (Registers, Action) {
	frame := &packets.ConnectFrame{
		FixedHeader:  packets.FixedHeader{Type: packets.Connect},
		ClientID:     cmd.ClientID,
		CleanSession: cmd.CleanSession,
		KeepAlive:    cmd.KeepAliveSec,
		UsernameFlag: cmd.HasUsername,
		Username:     cmd.Username,
		PasswordFlag: cmd.HasPassword,
		Password:     cmd.Password,
	}
	if cmd.Will != nil {
		frame.WillFlag = true
		frame.WillTopic = cmd.Will.Topic
		frame.WillMessage = cmd.Will.Message
		frame.WillQos = cmd.Will.Qos
		frame.WillRetain = cmd.Will.Retain
	}

	keepAliveMs := int64(cmd.KeepAliveSec) * 1000

	actions := Sequence{
		SendToNetwork{Frame: frame},
		SetKeepAlive{Ms: keepAliveMs},
	}
	if keepAliveMs > 0 {
		actions = append(actions, StartPingRespTimer{Ms: keepAliveMs})
	}

	next := r.setLastSentAt(nowMs).setKeepAlive(keepAliveMs)
	return next, actions
}

// handleConnectedCommand handles API commands issued while the engine is in
// its Connected state.
func handleConnectedCommand(r Registers, cmd Command, nowMs int64) (Registers, Action) {
	switch c := cmd.(type) {
	case PublishCommand:
		return handlePublish(r, c, nowMs)
	case SubscribeCommand:
		return handleSubscribe(r, c, nowMs)
	case UnsubscribeCommand:
		return handleUnsubscribe(r, c, nowMs)
	case DisconnectCommand:
		return handleDisconnect(r, nowMs)
	case StatusCommand:
		return r, sendConnected()
	default:
		return r, sendError(ErrNotConnected)
	}
}

func handlePublish(r Registers, cmd PublishCommand, nowMs int64) (Registers, Action) {
	if cmd.Qos == packets.AtMostOnce {
		frame := &packets.PublishFrame{
			TopicName: cmd.Topic,
			Payload:   cmd.Payload,
			FixedHeader: packets.FixedHeader{
				Type:   packets.Publish,
				Qos:    cmd.Qos,
				Retain: cmd.Retain,
			},
		}
		return r.setLastSentAt(nowMs), SendToNetwork{Frame: frame}
	}

	id, withID := r.allocateMessageID()
	frame := &packets.PublishFrame{
		TopicName: cmd.Topic,
		MessageID: id,
		Payload:   cmd.Payload,
		FixedHeader: packets.FixedHeader{
			Type:   packets.Publish,
			Qos:    cmd.Qos,
			Retain: cmd.Retain,
		},
	}

	next := withID.storeSentInFlight(id, frame).setLastSentAt(nowMs)
	actions := Sequence{
		SendToNetwork{Frame: frame},
		StoreSentInFlightFrame{ID: id, Frame: frame},
	}
	return next, actions
}

func handleSubscribe(r Registers, cmd SubscribeCommand, nowMs int64) (Registers, Action) {
	id, withID := r.allocateMessageID()
	frame := &packets.SubscribeFrame{
		FixedHeader: packets.FixedHeader{Type: packets.Subscribe},
		MessageID:   id,
		Filters:     cmd.Topics,
	}

	next := withID.storeSentInFlight(id, frame).setLastSentAt(nowMs)
	actions := Sequence{
		SendToNetwork{Frame: frame},
		StoreSentInFlightFrame{ID: id, Frame: frame},
	}
	return next, actions
}

func handleUnsubscribe(r Registers, cmd UnsubscribeCommand, nowMs int64) (Registers, Action) {
	id, withID := r.allocateMessageID()
	frame := &packets.UnsubscribeFrame{
		FixedHeader: packets.FixedHeader{Type: packets.Unsubscribe},
		MessageID:   id,
		Filters:     cmd.Filters,
	}

	next := withID.storeSentInFlight(id, frame).setLastSentAt(nowMs)
	actions := Sequence{
		SendToNetwork{Frame: frame},
		StoreSentInFlightFrame{ID: id, Frame: frame},
	}
	return next, actions
}

func handleDisconnect(r Registers, nowMs int64) (Registers, Action) {
	frame := &packets.DisconnectFrame{FixedHeader: packets.FixedHeader{Type: packets.Disconnect}}
	next := r.setLastSentAt(nowMs)
	actions := Sequence{
		SendToNetwork{Frame: frame},
		ForciblyCloseTransport{},
	}
	return next, actions
}

// handleFrame decides what to do with one inbound, fully-decoded frame.
func handleFrame(r Registers, f packets.Frame, nowMs int64) (Registers, Action) {
	switch frame := f.(type) {
	case *packets.ConnackFrame:
		return handleConnack(r, frame)
	case *packets.PublishFrame:
		return handleInboundPublish(r, frame)
	case *packets.PubAckFrame:
		return r.removeSentInFlight(frame.MessageID), RemoveSentInFlightFrame{ID: frame.MessageID}
	case *packets.PubRecFrame:
		return handlePubRec(r, frame, nowMs)
	case *packets.PubRelFrame:
		return handlePubRel(r, frame, nowMs)
	case *packets.PubCompFrame:
		return r.removeSentInFlight(frame.MessageID), RemoveSentInFlightFrame{ID: frame.MessageID}
	case *packets.SubAckFrame:
		next := r.removeSentInFlight(frame.MessageID)
		actions := Sequence{
			RemoveSentInFlightFrame{ID: frame.MessageID},
			sendSubscribed(frame.GrantedQoS),
		}
		return next, actions
	case *packets.UnsubAckFrame:
		next := r.removeSentInFlight(frame.MessageID)
		actions := Sequence{
			RemoveSentInFlightFrame{ID: frame.MessageID},
			sendUnsubscribed(),
		}
		return next, actions
	case *packets.PingRespFrame:
		return r.setPingPending(false), SetPendingPingResponse{Pending: false}
	default:
		// PingReq, Connect, Subscribe, Unsubscribe and Disconnect are
		// client-to-broker only and never arrive on a client connection.
		// A well-formed-but-unexpected frame is ignored; only malformed
		// bytes are fatal.
		return r, nil
	}
}

func handleConnack(r Registers, frame *packets.ConnackFrame) (Registers, Action) {
	if frame.ReturnCode == packets.Accepted {
		return r, sendConnected()
	}
	reason := failureReasonFromConnack(frame.ReturnCode)
	actions := Sequence{
		sendConnectionFailure(reason),
		ForciblyCloseTransport{},
	}
	return r, actions
}

func handleInboundPublish(r Registers, frame *packets.PublishFrame) (Registers, Action) {
	switch frame.Qos {
	case packets.AtMostOnce:
		return r, sendMessage(frame.TopicName, frame.Payload)

	case packets.AtLeastOnce:
		ack := &packets.PubAckFrame{
			FixedHeader: packets.FixedHeader{Type: packets.Puback},
			MessageID:   frame.MessageID,
		}
		actions := Sequence{
			sendMessage(frame.TopicName, frame.Payload),
			SendToNetwork{Frame: ack},
		}
		return r, actions

	case packets.ExactlyOnce:
		rec := &packets.PubRecFrame{
			FixedHeader: packets.FixedHeader{Type: packets.Pubrec},
			MessageID:   frame.MessageID,
		}
		if _, dup := r.RecvInFlight[frame.MessageID]; dup {
			// Duplicate delivery before PubRel: re-ack silently, do not
			// re-emit the message.
			return r, SendToNetwork{Frame: rec}
		}
		next := r.storeRecvInFlight(frame.MessageID)
		actions := Sequence{
			sendMessage(frame.TopicName, frame.Payload),
			StoreRecvInFlightFrameID{ID: frame.MessageID},
			SendToNetwork{Frame: rec},
		}
		return next, actions

	default:
		return r, nil
	}
}

func handlePubRec(r Registers, frame *packets.PubRecFrame, nowMs int64) (Registers, Action) {
	rel := &packets.PubRelFrame{
		FixedHeader: packets.FixedHeader{Type: packets.Pubrel},
		MessageID:   frame.MessageID,
	}
	next := r.storeSentInFlight(frame.MessageID, rel).setLastSentAt(nowMs)
	actions := Sequence{
		StoreSentInFlightFrame{ID: frame.MessageID, Frame: rel},
		SendToNetwork{Frame: rel},
	}
	return next, actions
}

func handlePubRel(r Registers, frame *packets.PubRelFrame, nowMs int64) (Registers, Action) {
	comp := &packets.PubCompFrame{
		FixedHeader: packets.FixedHeader{Type: packets.Pubcomp},
		MessageID:   frame.MessageID,
	}
	next := r.removeRecvInFlight(frame.MessageID).setLastSentAt(nowMs)
	actions := Sequence{
		RemoveRecvInFlightFrameID{ID: frame.MessageID},
		SendToNetwork{Frame: comp},
	}
	return next, actions
}

// handleTimerTick is the keep-alive logic, run at approximately the
// keep-alive interval.
func handleTimerTick(r Registers, nowMs int64) (Registers, Action) {
	if r.PingResponsePending {
		return r, ForciblyCloseTransport{}
	}

	elapsed := nowMs - r.LastSentAtMs
	if elapsed >= r.KeepAliveMs {
		ping := &packets.PingReqFrame{FixedHeader: packets.FixedHeader{Type: packets.Pingreq}}
		next := r.setPingPending(true).setLastSentAt(nowMs)
		actions := Sequence{
			SendToNetwork{Frame: ping},
			SetPendingPingResponse{Pending: true},
			StartPingRespTimer{Ms: r.KeepAliveMs},
		}
		return next, actions
	}

	return r, StartPingRespTimer{Ms: r.KeepAliveMs - elapsed}
}
