// Command caselaw is a legal research assistant over a local case corpus.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/caselaw/internal/adapters/driving/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx, &builder{lookupEnv: os.LookupEnv})
	stop()
	if err != nil {
		os.Exit(1)
	}
}
