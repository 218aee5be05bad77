package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// Exit codes. A completed scan exits 0 regardless of findings.
const (
	exitOK           = 0
	exitFailure      = 1
	exitConfigFailed = 2
)

func main() {
	// .env is optional; it lets AWS_PROFILE and AWS_REGION live in a file.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(exitCode(err))
	}
}

// exitCode maps a command error onto the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var cfgErr *models.ConfigurationError
	if errors.As(err, &cfgErr) {
		return exitConfigFailed
	}
	return exitFailure
}
