package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/oakwood-commons/jsonstate/cmd"
	"github.com/oakwood-commons/jsonstate/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	exitCode := 0
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		exitCode = 1
	}
	stop()

	logger.Sync()
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
