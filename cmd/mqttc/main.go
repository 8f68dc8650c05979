// Command mqttc is a terminal MQTT 3.1 client driving one engine.Engine
// against a TCP or WebSocket transport: connect, publish, subscribe, and
// check status from a shell, with an optional live status view.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "mqttc",
		Usage: "MQTT 3.1 client engine, driven from a shell",
		Commands: []*cli.Command{
			ConnectCommand(),
			PubCommand(),
			SubCommand(),
			StatusCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "mqttc:", err)
		os.Exit(1)
	}
}
