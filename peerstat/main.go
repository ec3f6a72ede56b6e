// Prints the routing counters of a running peerbroker.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dermesser/peering/monitor"
	"github.com/dermesser/peering/transport"
)

func main() {
	var timeout time.Duration
	var scheme, dir string

	flag.DurationVar(&timeout, "timeout", 2*time.Second, "How long to wait for the broker.")
	flag.StringVar(&scheme, "scheme", "ipc", "Transport of the broker: ipc or inproc.")
	flag.StringVar(&dir, "dir", "", "Directory of the ipc endpoints.")

	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] broker\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	s, err := transport.ParseScheme(scheme)

	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	zctx, err := transport.NewContext(s, dir)

	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	stats, err := monitor.Query(zctx, flag.Arg(0), timeout)
	zctx.Term()

	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	fmt.Printf("broker %s (peers %v) at %s\n", stats.GetName(), stats.GetPeers(),
		time.UnixMicro(stats.GetTimestamp()).Format(time.RFC3339))
	fmt.Printf("  idle workers:        %d\n", stats.GetIdleWorkers())
	fmt.Printf("  ready signals:       %d\n", stats.ReadySignals)
	fmt.Printf("  requests to workers: %d\n", stats.GetRequestsLocal())
	fmt.Printf("  requests to peers:   %d\n", stats.GetRequestsCloud())
	fmt.Printf("  requests from peers: %d\n", stats.RequestsFromPeers)
	fmt.Printf("  replies to clients:  %d\n", stats.RepliesLocal)
	fmt.Printf("  replies to peers:    %d\n", stats.RepliesCloud)
	fmt.Printf("  dropped:             %d\n", stats.Dropped)
}
