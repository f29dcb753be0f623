package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Goofygiraffe06/janseva/internal/apiclient"
	"github.com/Goofygiraffe06/janseva/internal/config"
	"github.com/Goofygiraffe06/janseva/internal/console"
	"github.com/Goofygiraffe06/janseva/internal/logging"
	"github.com/Goofygiraffe06/janseva/internal/session"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred log flushing always happens.
func run() int {
	apiURL := flag.String("api", config.APIURL(), "base URL of the auth endpoints")
	storeKind := flag.String("store", config.TokenStoreKind(), "token store: memory, sqlite or redis")
	flag.Parse()

	f, err := logging.InitLogger(config.LogFile())
	if err != nil {
		fmt.Fprintf(os.Stderr, "janseva: failed to initialize logger: %v\n", err)
		return 1
	}
	defer f.Close()
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens, closeStore, err := openTokenStore(ctx, *storeKind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "janseva: %v\n", err)
		logging.ErrorLog("Token store init failed: %v", err)
		return 1
	}
	defer closeStore()

	logging.InfoLog("Jan Seva client starting api=%s store=%s", *apiURL, *storeKind)

	c := console.New(os.Stdin, os.Stdout, console.Config{
		Remote:  apiclient.New(*apiURL, apiclient.WithTimeout(config.HTTPTimeout())),
		Session: session.New(tokens),
		Delay:   config.TransitionDelay(),
	})
	if err := c.Run(ctx); err != nil && ctx.Err() == nil {
		logging.ErrorLog("Console stopped: %v", err)
		fmt.Fprintf(os.Stderr, "janseva: %v\n", err)
		return 1
	}
	return 0
}

func openTokenStore(ctx context.Context, kind string) (session.TokenStore, func(), error) {
	switch kind {
	case "memory":
		return session.NewMemoryStore(), func() {}, nil
	case "sqlite":
		s, err := session.NewSQLiteStore(config.TokenDBPath())
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite token store: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	case "redis":
		rdb, err := session.DialRedis(ctx, config.RedisURL())
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis token store: %w", err)
		}
		return session.NewRedisStore(rdb, config.RedisKeyPrefix()), func() { _ = rdb.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown token store %q", kind)
}
