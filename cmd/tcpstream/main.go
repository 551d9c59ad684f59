// Command tcpstream connects to a host:port with the same resolution, race
// and socket configuration a Factory applies, and reports the result.
//
//	tcpstream --connect-timeout 2s --name-server 1.1.1.1 example.com:443
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/bschaatsbergen/tcpstream"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "tcpstream: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("tcpstream", flag.ContinueOnError)
	fs.SetOutput(out)

	defaults := tcpstream.DefaultSettings()

	// ── connection ───────────────────────────────────────────────
	connectTimeout := fs.DurationP("connect-timeout", "t", defaults.ConnectTimeout, "Per-attempt connect timeout (0 for none)")
	readTimeout := fs.Duration("read-timeout", 0, "Read timeout on the stream")
	writeTimeout := fs.Duration("write-timeout", 0, "Write timeout on the stream")
	sendBuffer := fs.Int("send-buffer", defaults.SendBufferSize, "Socket send buffer size in bytes")
	recvBuffer := fs.Int("receive-buffer", defaults.ReceiveBufferSize, "Socket receive buffer size in bytes")
	ipv4 := fs.BoolP("ipv4", "4", false, "Only try IPv4 addresses")
	ipv6 := fs.BoolP("ipv6", "6", false, "Only try IPv6 addresses")

	// ── resolution ───────────────────────────────────────────────
	nameServers := fs.StringSliceP("name-server", "n", nil, "Query these DNS servers instead of the system resolver (repeatable)")

	// ── output ───────────────────────────────────────────────────
	verbose := fs.BoolP("verbose", "v", false, "Log every resolution and connection step")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: tcpstream [flags] host:port")
	}
	if *ipv4 && *ipv6 {
		return errors.New("--ipv4 and --ipv6 are mutually exclusive")
	}

	timeout := *connectTimeout
	if timeout == 0 {
		timeout = tcpstream.InfiniteTimeout
	}

	opts := []tcpstream.Option{
		tcpstream.WithConnectTimeout(timeout),
		tcpstream.WithReadTimeout(*readTimeout),
		tcpstream.WithWriteTimeout(*writeTimeout),
		tcpstream.WithSendBufferSize(*sendBuffer),
		tcpstream.WithReceiveBufferSize(*recvBuffer),
	}
	if len(*nameServers) > 0 {
		opts = append(opts, tcpstream.WithNameServers(*nameServers...))
	}
	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()
		opts = append(opts, tcpstream.WithLogger(tcpstream.NewZapLogger(logger)))
	}

	factory := tcpstream.New(opts...)
	defer factory.Close()

	network := "tcp"
	switch {
	case *ipv4:
		network = "tcp4"
	case *ipv6:
		network = "tcp6"
	}

	start := time.Now()
	conn, err := factory.DialContext(ctx, network, fs.Arg(0))
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Fprintf(out, "connected to %s from %s in %s\n",
		conn.RemoteAddr(), conn.LocalAddr(), time.Since(start).Round(time.Millisecond))
	return nil
}
