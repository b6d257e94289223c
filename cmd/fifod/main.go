// fifod serves a record fifo as a byte-stream endpoint on a unix socket.
//
// Startup runs the fifo self-test first; a verification failure aborts the
// process before the socket is created, so a buffer that cannot prove its
// framing and accounting is never reachable.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	logging "github.com/ipfs/go-log/v2"

	"github.com/sysprog21/recfifo/endpoint"
	"github.com/sysprog21/recfifo/fifo"
	"github.com/sysprog21/recfifo/fifo/shm"
	"github.com/sysprog21/recfifo/gateway"
)

var log = logging.Logger("fifod")

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg := DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
	}

	level, err := logging.LevelFromString(cfg.LogLevel)
	if err != nil {
		log.Fatalf("invalid log level %q: %v", cfg.LogLevel, err)
	}
	logging.SetAllLoggers(level)

	// Gate everything on the self-test: no endpoint comes up on failure.
	if err := fifo.SelfTest(); err != nil {
		log.Fatalf("self-test failed, refusing to register endpoint: %v", err)
	}
	log.Debugf("self-test passed")

	var store *fifo.Fifo
	if cfg.Segment != "" {
		seg, err := shm.CreateSegment(cfg.Segment, cfg.Capacity)
		if err != nil {
			log.Fatalf("create segment: %v", err)
		}
		defer func() {
			seg.Close()
			shm.Remove(cfg.Segment)
		}()
		store, err = fifo.NewWithStorage(seg.Data(), cfg.PrefixWidth)
		if err != nil {
			log.Fatalf("create fifo: %v", err)
		}
		log.Infof("fifo storage mapped at %s", seg.Path())
	} else {
		store, err = fifo.New(cfg.Capacity, cfg.PrefixWidth)
		if err != nil {
			log.Fatalf("create fifo: %v", err)
		}
	}

	ep, err := endpoint.New(gateway.New(store), cfg.Socket)
	if err != nil {
		log.Fatalf("listen on %s: %v", cfg.Socket, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("serving fifo (capacity %d, prefix %d) on %s", cfg.Capacity, cfg.PrefixWidth, cfg.Socket)
	if err := ep.Serve(ctx); err != nil {
		log.Fatalf("serve: %v", err)
	}
	log.Infof("shut down")
}
