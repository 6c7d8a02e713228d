// Command examplebot performs the competitor side of the track and field
// handshake and prints the specification it receives.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/okian/trackfield/pkg/logger"
	"github.com/okian/trackfield/pkg/tfbot"
)

const defaultWait = 2 * time.Minute

func main() {
	var (
		url    = flag.String("matchcomms", "ws://127.0.0.1:23234", "matchcomms root url")
		events = flag.String("events", "WaypointRace,DemolitionDerby", "comma separated events to announce")
		wait   = flag.Duration("wait", defaultWait, "how long to wait for a specification")
		format = flag.String("log-format", "text", "text or json")
	)
	flag.Parse()

	if err := logger.Init(logger.WithFormat(*format)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Named("examplebot")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	spec, err := handshake(ctx, *url, splitEvents(*events), *wait, log)
	if err != nil {
		log.Error(ctx, "handshake failed", logger.Error(err))
		os.Exit(1)
	}
	os.Stdout.Write(append(spec.Raw, '\n'))
}

func handshake(ctx context.Context, url string, events []string, wait time.Duration, log logger.Logger) (tfbot.Spec, error) {
	c, err := tfbot.Dial(ctx, url, tfbot.WithLogger(log))
	if err != nil {
		return tfbot.Spec{}, err
	}
	defer func() { _ = c.Close() }()

	if err := c.AnnounceReady(ctx, events...); err != nil {
		return tfbot.Spec{}, err
	}
	return c.WaitSpec(ctx, wait)
}

func splitEvents(s string) []string {
	var out []string
	for _, e := range strings.Split(s, ",") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}
