package main

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/brineflow/mqttengine/engine"
	"github.com/brineflow/mqttengine/packets"
)

// clientSink is an engine.ClientSink that also accepts the session it
// belongs to, so it can resolve the one-shot connectResult channel and
// reach the session's logger/stats for a live view. attach is called once,
// right after the session is constructed and before Connect is submitted.
type clientSink interface {
	engine.ClientSink
	attach(s *session)
}

// loggingSink logs every event through zap and forwards inbound messages
// to an optional channel for the sub command to print. It resolves the
// session's connectResult exactly once, on the first Connected or
// ConnectionFailure event.
type loggingSink struct {
	mu       sync.Mutex
	sess     *session
	messages chan<- Message
	resolved bool
}

// Message is one inbound PUBLISH handed to the sub command's printer.
type Message struct {
	Topic   string
	Payload []byte
}

func newLoggingSink(messages chan<- Message) *loggingSink {
	return &loggingSink{messages: messages}
}

func (s *loggingSink) attach(sess *session) { s.sess = sess }

func (s *loggingSink) resolveConnect(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolved {
		return
	}
	s.resolved = true
	s.sess.connectResult <- err
}

func (s *loggingSink) Connected() {
	s.sess.log.Info("connected")
	s.resolveConnect(nil)
}

func (s *loggingSink) Disconnected() {
	s.sess.log.Info("disconnected")
}

func (s *loggingSink) ConnectionFailure(reason engine.FailureReason) {
	s.sess.log.Warn("connection failed", zap.String("reason", reason.String()))
	s.resolveConnect(fmt.Errorf("mqttc: connection failed: %s", reason))
}

func (s *loggingSink) Message(topic string, payload []byte) {
	s.sess.log.Debug("message", zap.String("topic", topic), zap.Int("bytes", len(payload)))
	if s.messages != nil {
		select {
		case s.messages <- Message{Topic: topic, Payload: payload}:
		default:
			s.sess.log.Warn("dropped message, printer channel full", zap.String("topic", topic))
		}
	}
}

func (s *loggingSink) Subscribed(grantedQos []packets.QoS) {
	s.sess.log.Info("subscribed", zap.Any("granted_qos", grantedQos))
}

func (s *loggingSink) Unsubscribed() {
	s.sess.log.Info("unsubscribed")
}

func (s *loggingSink) Error(kind engine.ErrorKind) {
	s.sess.log.Error("engine error", zap.String("kind", kind.String()))
}
