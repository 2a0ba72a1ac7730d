// Tile match server - main entry point
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"tilewar/internal/game"
	"tilewar/internal/server"
	"tilewar/internal/spectate"
	"tilewar/pkg/logger"
)

var (
	version   = "1.0.0"
	buildTime = "dev"
)

const usage = "Usage: %s -n <player_num> -s <size> -b <tile_num> -t <time> -p <port>\n"

type CLI struct {
	Players  int `short:"n" required:"" help:"Number of players."`
	Size     int `short:"s" required:"" help:"Side length of the square board."`
	Tiles    int `short:"b" required:"" help:"Number of colored tiles placed at start."`
	PlayTime int `short:"t" name:"time" required:"" help:"Match length in seconds."`
	Port     int `short:"p" required:"" help:"TCP port to listen on."`

	Host       string        `default:"" env:"TILEWAR_HOST" help:"Interface to listen on (all interfaces if empty)."`
	LogLevel   string        `default:"INFO" env:"TILEWAR_LOG_LEVEL" help:"Log level (DEBUG, INFO, WARN, ERROR)."`
	LogFile    string        `env:"TILEWAR_LOG_FILE" help:"Also write logs to this file."`
	Spectate   string        `env:"TILEWAR_SPECTATE" help:"Address for the websocket spectator feed (disabled if empty)."`
	Tick       time.Duration `default:"1s" env:"TILEWAR_TICK" help:"Match clock interval."`
	AckTimeout time.Duration `default:"30s" env:"TILEWAR_ACK_TIMEOUT" help:"How long to wait for the quit ack after the tally."`

	Version kong.VersionFlag `help:"Show version information."`
}

func (c *CLI) Options() game.Options {
	return game.Options{
		Players:  c.Players,
		Size:     c.Size,
		Tiles:    c.Tiles,
		PlayTime: c.PlayTime,
	}
}

func main() {
	// a missing .env is fine
	_ = godotenv.Load()

	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("tilewar-server"),
		kong.Description("Real-time tile flipping match server."),
		kong.Vars{"version": fmt.Sprintf("%s (built %s)", version, buildTime)},
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))
	if err != nil {
		panic(err)
	}

	if _, err := parser.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(1)
	}

	if err := initLogging(cli.LogLevel, cli.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	logger.Server.Info("starting tile match server v%s", version)

	cfg := server.Config{
		Options:      cli.Options(),
		TickInterval: cli.Tick,
		AckTimeout:   cli.AckTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cli.Spectate != "" {
		hub := spectate.NewHub()
		cfg.Observer = hub
		go func() {
			if err := hub.ListenAndServe(ctx, cli.Spectate); err != nil {
				logger.Spectate.Error("spectator feed stopped: %v", err)
			}
		}()
	}

	gameServer, err := server.NewServer(cfg)
	if err != nil {
		logger.Server.Fatal("invalid match setup: %v", err)
	}

	address := net.JoinHostPort(cli.Host, strconv.Itoa(cli.Port))
	err = gameServer.ListenAndServe(ctx, address)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		logger.Server.Info("received shutdown signal, match aborted")
	default:
		logger.Server.Fatal("server failed: %v", err)
	}
}

// initLogging sets up the logging system
func initLogging(level, file string) error {
	logger.SetGlobalLogLevel(logger.ParseLevel(level))

	if file == "" {
		return nil
	}
	for _, l := range []*logger.Logger{logger.Server, logger.Match, logger.Spectate} {
		if err := l.SetFile(file); err != nil {
			return fmt.Errorf("failed to set log file: %w", err)
		}
	}
	logger.Server.Info("logging to file: %s", file)
	return nil
}
