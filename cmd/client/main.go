// Tile match client - main entry point
package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"tilewar/internal/client"
	"tilewar/pkg/logger"
)

var version = "1.0.0"

type CLI struct {
	Host string `arg:"" help:"Server address."`
	Port string `arg:"" help:"Server port."`

	LogLevel string `default:"WARN" help:"Log level (DEBUG, INFO, WARN, ERROR)."`
	LogFile  string `help:"Write logs to this file instead of the terminal."`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("tilewar-client"),
		kong.Description(fmt.Sprintf("Terminal client for the tile match server v%s.", version)),
		kong.UsageOnError())

	logger.SetGlobalLogLevel(logger.ParseLevel(cli.LogLevel))
	if cli.LogFile != "" {
		if err := logger.Client.RedirectToFile(cli.LogFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
			os.Exit(1)
		}
	}

	gameClient := client.NewClient(net.JoinHostPort(cli.Host, cli.Port), os.Stdin)
	setupGracefulShutdown(gameClient)

	if err := gameClient.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// setupGracefulShutdown closes the connection on interrupt signals
func setupGracefulShutdown(gameClient *client.Client) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		gameClient.Close()
		os.Exit(0)
	}()
}
