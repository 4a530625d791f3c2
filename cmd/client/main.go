package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "campus-chat: %v\n", err)
	}
	os.Exit(code)
}

// run loads the configuration, opens the local backend and executes the command line.
// Keeping os.Exit in main lets every defer of run execute.
func run(args []string) (int, error) {
	_ = godotenv.Load()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, config, log)
	if err != nil {
		return exitRuntime, err
	}
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	if err = root.ExecuteContext(ctx); err != nil {
		return exitRuntime, err
	}
	return exitOK, nil
}
