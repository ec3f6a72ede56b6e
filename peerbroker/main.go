/*
Runs one broker of a peering cluster together with its simulated workers and clients.

	$ peerbroker DC1 DC2 DC3 &
	$ peerbroker DC2 DC1 DC3 &
	$ peerbroker DC3 DC1 DC2

The first argument is the identity of this broker, the others are its peers. Brokers
talk over ipc:// endpoints in the current directory (or -dir), so all of them must be
started in the same place.
*/
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dermesser/peering/broker"
	"github.com/dermesser/peering/config"
	"github.com/dermesser/peering/harness"
	"github.com/dermesser/peering/log"
	"github.com/dermesser/peering/monitor"
	"github.com/dermesser/peering/transport"

	"golang.org/x/sync/errgroup"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] me {you}...\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	var configfile string
	var workers, clients int
	var loglevel, scheme, dir string
	var poll time.Duration
	var wait, mon bool

	defaults := config.Default()

	flag.StringVar(&configfile, "config", "", "YAML file with the broker configuration; flags override it.")
	flag.IntVar(&workers, "workers", defaults.Workers, "Number of simulated workers.")
	flag.IntVar(&clients, "clients", defaults.Clients, "Number of simulated clients.")
	flag.StringVar(&loglevel, "loglevel", defaults.Loglevel, "One of none, error, warn, info, debug.")
	flag.StringVar(&scheme, "scheme", defaults.Scheme, "Transport between brokers: ipc or inproc.")
	flag.StringVar(&dir, "dir", defaults.IPCDir, "Directory of the ipc endpoints.")
	flag.DurationVar(&poll, "poll", defaults.PollInterval, "Upper bound of a backend wait while workers are idle.")
	flag.BoolVar(&wait, "wait", false, "Wait for Enter before starting workers and clients.")
	flag.BoolVar(&mon, "monitor", defaults.Monitor, "Serve routing counters at the monitor endpoint.")

	flag.Usage = usage
	flag.Parse()

	cfg := defaults

	if configfile != "" {
		var err error
		if cfg, err = config.Load(configfile); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	}

	// Explicit flags win over the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "workers":
			cfg.Workers = workers
		case "clients":
			cfg.Clients = clients
		case "loglevel":
			cfg.Loglevel = loglevel
		case "scheme":
			cfg.Scheme = scheme
		case "dir":
			cfg.IPCDir = dir
		case "poll":
			cfg.PollInterval = poll
		case "wait":
			cfg.WaitForEnter = wait
		case "monitor":
			cfg.Monitor = mon
		}
	})

	if flag.NArg() > 0 {
		cfg.Name = flag.Arg(0)
		cfg.Peers = flag.Args()[1:]
	}

	if err := cfg.Validate(); err != nil {
		if err == config.ErrNoName {
			usage()
		} else {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ll, err := log.ParseLoglevel(cfg.Loglevel)

	if err != nil {
		return err
	}
	log.SetLoglevel(ll)

	s, err := transport.ParseScheme(cfg.Scheme)

	if err != nil {
		return err
	}

	zctx, err := transport.NewContext(s, cfg.IPCDir)

	if err != nil {
		return err
	}

	peers, err := broker.NewPeerSet(cfg.Peers...)

	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	terminated := zctx.TermOnDone(ctx)

	bs, err := zctx.NewBrokerSockets(cfg.Name, cfg.Peers)

	if err != nil {
		stop()
		<-terminated
		return err
	}

	b, err := broker.NewBroker(cfg.Name, peers, bs.Channels(), &broker.Options{
		PollInterval: cfg.PollInterval,
		Policy:       broker.NewRandomOffload(nil).SetOdds(cfg.OffloadOdds),
	})

	if err != nil {
		bs.Close()
		stop()
		<-terminated
		return err
	}

	if cfg.Monitor {
		srv, err := monitor.NewServer(zctx, cfg.Name, b)

		if err != nil {
			bs.Close()
			stop()
			<-terminated
			return err
		}
		g.Go(srv.Serve)
	}

	g.Go(func() error {
		defer bs.Close()
		err := b.Run(ctx)
		// The simulation is pointless without its broker.
		stop()
		return err
	})

	if cfg.WaitForEnter {
		fmt.Println("Press Enter when all brokers are started:")
		bufio.NewReader(os.Stdin).ReadString('\n')
	}

	g.Go(func() error {
		return harness.Run(ctx, zctx, cfg.Name, cfg.Workers, cfg.Clients, &harness.ClientOptions{Interval: cfg.ClientInterval})
	})

	err = g.Wait()
	stop()
	<-terminated
	return err
}
