package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/herald-mq/herald/client"
	"github.com/herald-mq/herald/commentary"
)

const banner = `
             _
 _ __  _   _| |__
| '_ \| | | | '_ \
| |_) | |_| | |_) |
| .__/ \__,_|_.__/
|_|
`

func main() {
	var (
		help     bool
		host     string
		port     int
		network  string
		seed     uint32
		delayMS  uint32
		channel  uint8
		clientID string
	)

	pflag.BoolVarP(&help, "help", "h", false, "Show help message")
	pflag.StringVar(&host, "host", "127.0.0.1", "Broker host address")
	pflag.IntVarP(&port, "port", "p", 5000, "Broker port")
	pflag.StringVar(&network, "network", client.NetworkTCP, "Broker transport: tcp or udp")
	pflag.Uint32VarP(&seed, "seed", "s", 0, "Message generator seed (0 = random)")
	pflag.Uint32VarP(&delayMS, "delay", "d", 500, "Delay between messages in milliseconds")
	pflag.Uint8VarP(&channel, "channel", "c", 0, "Channel to publish on (0-255)")
	pflag.StringVar(&clientID, "client-id", "publisher", "Client identifier")
	pflag.Parse()

	if help {
		fmt.Println("Publisher options:")
		pflag.PrintDefaults()
		os.Exit(0)
	}

	color.Magenta(banner)
	fmt.Println("--    Press ctrl+c to exit...    --")
	fmt.Printf("Connecting to %s:%d\n", host, port)
	if seed != 0 {
		fmt.Printf("Using seed: %d\n", seed)
	}
	fmt.Printf("Message delay: %dms\n\n", delayMS)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	pub, err := client.DialPublisher(ctx, channel, client.Options{
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

	color.Green("Connected, publishing on channel %d as %q (session %d)", channel, clientID, pub.SessionID())

	gen := commentary.New(seed)
	buf := make([]byte, 256)
	delay := time.Duration(delayMS) * time.Millisecond

	for {
		n := gen.Generate(buf)
		if err := pub.Publish(buf[:n]); err != nil {
			color.Red("Send failed: %v", err)
			break
		}
		fmt.Printf("Published [%d bytes]: %s\n", n, buf[:n])

		select {
		case <-ctx.Done():
			color.Yellow("\nDisconnecting...")
			pub.Close()
			return
		case <-time.After(delay):
		}
	}

	pub.Close()
	os.Exit(1)
}
