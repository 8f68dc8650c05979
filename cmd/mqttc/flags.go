package main

import "github.com/urfave/cli/v2"

// Shared connection flags, applied to every subcommand. Values fall back to
// whatever OpenConfigFile(--config) loaded, then to the hardcoded defaults
// below.
var (
	brokerFlag = &cli.StringFlag{
		Name:    "broker",
		Aliases: []string{"b"},
		Usage:   "broker address, host:port",
	}
	clientIDFlag = &cli.StringFlag{
		Name:  "client-id",
		Usage: "MQTT client identifier",
	}
	cleanSessionFlag = &cli.BoolFlag{
		Name:  "clean-session",
		Usage: "request a clean session",
		Value: true,
	}
	keepAliveFlag = &cli.IntFlag{
		Name:  "keep-alive",
		Usage: "keep-alive interval in seconds (0 disables)",
		Value: 60,
	}
	usernameFlag = &cli.StringFlag{
		Name:  "username",
		Usage: "CONNECT username",
	}
	passwordFlag = &cli.StringFlag{
		Name:  "password",
		Usage: "CONNECT password",
	}
	websocketFlag = &cli.BoolFlag{
		Name:  "websocket",
		Usage: "dial over WebSocket instead of raw TCP",
	}
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "path to an mqttc.yaml defaults file",
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "debug, info, warn or error",
		Value: "info",
	}
	logFileFlag = &cli.StringFlag{
		Name:  "log-file",
		Usage: "rotated JSON log destination (empty disables file logging)",
	}
	tuiFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "render a live connection/in-flight status view",
	}
	qosFlag = &cli.IntFlag{
		Name:  "qos",
		Usage: "QoS level: 0, 1 or 2",
		Value: 0,
	}
	retainFlag = &cli.BoolFlag{
		Name:  "retain",
		Usage: "set the retain flag",
	}
)

func connectionFlags() []cli.Flag {
	return []cli.Flag{
		brokerFlag, clientIDFlag, cleanSessionFlag, keepAliveFlag,
		usernameFlag, passwordFlag, websocketFlag,
		configFlag, logLevelFlag, logFileFlag,
	}
}
