package main

import (
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/brineflow/mqttengine/config"
	"github.com/brineflow/mqttengine/engine"
	"github.com/brineflow/mqttengine/logging"
	"github.com/brineflow/mqttengine/telemetry"
	"github.com/brineflow/mqttengine/timer"
	"github.com/brineflow/mqttengine/transport"
)

// eventedTransport is the subset of transport.TCP/transport.WebSocket that
// client.go needs: the engine.Registers.Transport contract plus the event
// channel both concrete transports expose for their driving goroutine.
type eventedTransport interface {
	engine.Transport
	Events() <-chan transport.Event
}

// session bundles one running engine with the collaborators main.go's
// commands drive it through: the logger, the stats counters, and the
// connect-result channel used to block a one-shot command until the
// CONNACK (or a connect failure) has been observed.
type session struct {
	eng       *engine.Engine
	transport eventedTransport
	log       *zap.Logger
	stats     *telemetry.Counters

	connectResult chan error
}

// resolve merges --config defaults with explicit flags; flags always win.
func resolve(c *cli.Context) (config.Client, error) {
	cfg, err := config.OpenConfigFile(c.String(configFlag.Name))
	if err != nil {
		return config.Client{}, err
	}

	if c.IsSet(brokerFlag.Name) || cfg.Broker == "" {
		cfg.Broker = c.String(brokerFlag.Name)
	}
	if c.IsSet(clientIDFlag.Name) || cfg.ClientID == "" {
		cfg.ClientID = c.String(clientIDFlag.Name)
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "mqttc-" + xid.New().String()
	}
	if c.IsSet(cleanSessionFlag.Name) || c.String(configFlag.Name) == "" {
		cfg.CleanSession = c.Bool(cleanSessionFlag.Name)
	}
	if c.IsSet(keepAliveFlag.Name) || cfg.KeepAliveSec == 0 {
		cfg.KeepAliveSec = uint16(c.Int(keepAliveFlag.Name))
	}
	if c.IsSet(usernameFlag.Name) {
		cfg.Username = c.String(usernameFlag.Name)
	}
	if c.IsSet(passwordFlag.Name) {
		cfg.Password = c.String(passwordFlag.Name)
	}
	if cfg.Broker == "" {
		return config.Client{}, fmt.Errorf("mqttc: no broker address given (--broker or config file)")
	}
	return *cfg, nil
}

// connect resolves flags/config, builds an Engine over a fresh transport,
// submits a ConnectCommand, and blocks until the connection has either
// succeeded or definitively failed.
func connect(c *cli.Context, sink clientSink) (*session, error) {
	cfg, err := resolve(c)
	if err != nil {
		return nil, err
	}

	level := c.String(logLevelFlag.Name)
	if !c.IsSet(logLevelFlag.Name) && cfg.Log.Level != "" {
		level = cfg.Log.Level
	}
	logFile := c.String(logFileFlag.Name)
	if logFile == "" {
		logFile = cfg.Log.File
	}
	logger, err := logging.New(logging.Options{Level: level, FilePath: logFile, Console: true})
	if err != nil {
		return nil, err
	}

	stats := &telemetry.Counters{}

	var tr eventedTransport
	if c.Bool(websocketFlag.Name) {
		tr = transport.NewWebSocket()
	} else {
		tr = transport.NewTCP()
	}

	sess := &session{
		transport:     tr,
		log:           logger,
		stats:         stats,
		connectResult: make(chan error, 1),
	}
	sink.attach(sess)

	eng := engine.New(sink, timer.New(), stats, nil)
	eng.SetTransport(tr)
	sess.eng = eng

	go sess.pumpTransportEvents()

	var will *engine.Will
	eng.Submit(engine.ConnectCommand{
		RemoteAddr:   cfg.Broker,
		ClientID:     cfg.ClientID,
		CleanSession: cfg.CleanSession,
		KeepAliveSec: cfg.KeepAliveSec,
		Will:         will,
		Username:     cfg.Username,
		HasUsername:  cfg.Username != "",
		Password:     []byte(cfg.Password),
		HasPassword:  cfg.Password != "",
	})

	select {
	case err := <-sess.connectResult:
		if err != nil {
			return nil, err
		}
		return sess, nil
	case <-time.After(30 * time.Second):
		return nil, fmt.Errorf("mqttc: timed out waiting for CONNACK from %s", cfg.Broker)
	}
}

// pumpTransportEvents drains the transport's event channel and translates
// each one into the matching Engine notification, for the lifetime of the
// process (or until the transport closes).
func (s *session) pumpTransportEvents() {
	for ev := range s.transport.Events() {
		switch e := ev.(type) {
		case transport.Connected:
			s.eng.NotifyConnected()
		case transport.ConnectFailed:
			s.log.Warn("transport connect failed", zap.Error(e.Err))
			s.eng.NotifyConnectFailed()
		case transport.Received:
			s.eng.DeliverBytes(e.Data)
		case transport.Closed:
			if e.Err != nil {
				s.log.Info("transport closed", zap.Error(e.Err))
			}
			s.eng.NotifyClosed()
			return
		}
	}
}

func (s *session) close() {
	s.eng.Submit(engine.DisconnectCommand{})
	time.Sleep(100 * time.Millisecond)
	s.eng.Stop()
}
