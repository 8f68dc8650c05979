package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/brineflow/mqttengine/engine"
	"github.com/brineflow/mqttengine/packets"
)

// PubCommand publishes one message, pauses for 200ms, then disconnects and
// exits. It does not wait for a QoS 1/2 handshake to complete.
func PubCommand() *cli.Command {
	return &cli.Command{
		Name:  "pub",
		Usage: "publish one message and exit",
		Flags: append(connectionFlags(),
			&cli.StringFlag{Name: "topic", Required: true},
			&cli.StringFlag{Name: "message", Required: true},
			qosFlag, retainFlag,
		),
		Action: func(c *cli.Context) error {
			sink := newLoggingSink(nil)
			sess, err := connect(c, sink)
			if err != nil {
				return err
			}
			qos := packets.QoS(c.Int(qosFlag.Name))
			sess.eng.Submit(engine.PublishCommand{
				Topic:   c.String("topic"),
				Payload: []byte(c.String("message")),
				Qos:     qos,
				Retain:  c.Bool(retainFlag.Name),
			})

			// QoS 1/2 acknowledgements are not awaited: the command
			// pauses briefly and then disconnects, whatever the QoS.
			time.Sleep(200 * time.Millisecond)
			sess.close()
			return nil
		},
	}
}

// SubCommand subscribes to one or more topic filters and prints inbound
// messages until interrupted.
func SubCommand() *cli.Command {
	return &cli.Command{
		Name:  "sub",
		Usage: "subscribe and print inbound messages until interrupted",
		Flags: append(connectionFlags(),
			&cli.StringSliceFlag{Name: "topic", Required: true},
			qosFlag, tuiFlag,
		),
		Action: func(c *cli.Context) error {
			messages := make(chan Message, 64)
			sink := newLoggingSink(messages)
			sess, err := connect(c, sink)
			if err != nil {
				return err
			}
			defer sess.close()

			qos := packets.QoS(c.Int(qosFlag.Name))
			topics := c.StringSlice("topic")
			tf := make([]packets.TopicFilter, len(topics))
			for i, t := range topics {
				tf[i] = packets.TopicFilter{Filter: t, Qos: qos}
			}
			sess.eng.Submit(engine.SubscribeCommand{Topics: tf})

			if c.Bool(tuiFlag.Name) {
				return runStatusTUI(sess, messages)
			}
			return printMessages(sess, messages)
		},
	}
}

// printMessages prints each inbound Message as it arrives, until SIGINT.
func printMessages(sess *session, messages chan Message) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	for {
		select {
		case m := <-messages:
			fmt.Printf("%s %s\n", m.Topic, m.Payload)
		case <-sigCh:
			return nil
		}
	}
}

// StatusCommand connects, reports the resulting status, and exits. Useful
// as a health check against a broker from scripts.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "connect, report status, and exit",
		Flags: connectionFlags(),
		Action: func(c *cli.Context) error {
			sink := newLoggingSink(nil)
			sess, err := connect(c, sink)
			if err != nil {
				fmt.Println("NotConnected:", err)
				return nil
			}
			defer sess.close()
			fmt.Println(sess.eng.State())
			return nil
		},
	}
}

// ConnectCommand stays connected and, with --tui, renders a live status
// view; without it, simply blocks until interrupted.
func ConnectCommand() *cli.Command {
	return &cli.Command{
		Name:  "connect",
		Usage: "connect and hold the session open until interrupted",
		Flags: append(connectionFlags(), tuiFlag),
		Action: func(c *cli.Context) error {
			sink := newLoggingSink(nil)
			sess, err := connect(c, sink)
			if err != nil {
				return err
			}
			defer sess.close()

			if c.Bool(tuiFlag.Name) {
				return runStatusTUI(sess, nil)
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			<-sigCh
			return nil
		},
	}
}
