package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/herald-mq/herald/client"
)

const banner = `
           _
 ___ _   _| |__
/ __| | | | '_ \
\__ \ |_| | |_) |
|___/\__,_|_.__/
`

func parseChannels(list string) ([]byte, error) {
	parts := strings.Split(list, ",")
	channels := make([]byte, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid channel %q", p)
		}
		channels = append(channels, byte(v))
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("at least one channel must be specified")
	}
	return channels, nil
}

func main() {
	var (
		help     bool
		host     string
		port     int
		network  string
		list     string
		clientID string
	)

	pflag.BoolVarP(&help, "help", "h", false, "Show help message")
	pflag.StringVar(&host, "host", "127.0.0.1", "Broker host address")
	pflag.IntVarP(&port, "port", "p", 5000, "Broker port")
	pflag.StringVar(&network, "network", client.NetworkTCP, "Broker transport: tcp or udp")
	pflag.StringVarP(&list, "channels", "c", "", "Comma-separated channels to subscribe to (0-255)")
	pflag.StringVar(&clientID, "client-id", "subscriber", "Client identifier")
	pflag.Parse()

	if help {
		fmt.Println("Subscriber options:")
		pflag.PrintDefaults()
		os.Exit(0)
	}

	channels, err := parseChannels(list)
	if err != nil {
		color.Red("Error: %v", err)
		fmt.Println("Use --help for usage.")
		os.Exit(1)
	}

	color.Blue(banner)
	fmt.Println("--    Press ctrl+c to exit...    --")
	fmt.Printf("Connecting to %s:%d, channels %v\n\n", host, port, channels)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	sub, err := client.DialSubscriber(ctx, channels, client.Options{
		Host:     host,
		Port:     port,
		Network:  network,
		ClientID: clientID,
		Logger:   logger,
	})
	if err != nil {
		color.Red("Connection failed: %v", err)
		os.Exit(1)
	}

	color.Green("Connected as %q (session %d)", clientID, sub.SessionID())

	for {
		select {
		case <-ctx.Done():
			color.Yellow("\nDisconnecting...")
			sub.Close()
			return
		case msg, ok := <-sub.Messages():
			if !ok {
				color.Red("Connection closed by broker")
				os.Exit(1)
			}
			fmt.Printf("[%s] ch=%d %s\n", msg.Timestamp.Format("15:04:05.000"), msg.Channel, msg.Body)
		}
	}
}
