// Package main is the entrypoint for the local todo view host.
// It serves the sign-in, sign-up and todo pages on 127.0.0.1 and keeps the
// session in the configured credential store.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aelexs/todo-session-client/internal/config"
	"github.com/aelexs/todo-session-client/internal/server"
)

func main() {
	ctx := context.Background()
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	return server.Run(ctx, server.Params{
		Name:           "todoweb",
		PortFromConfig: func(cfg *config.Config) int { return cfg.Web.HTTPPort },
		Setup:          setup,
	}, nil)
}
