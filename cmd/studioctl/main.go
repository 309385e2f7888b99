// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command studioctl is the operator CLI of Yomira Studio.
//
// It shares configuration and wiring with the API server and is meant for
// one-off maintenance: applying migrations, seeding the first admin, running
// the chapter repair pass on demand and sweeping expired sessions.
//
//	studioctl migrate
//	studioctl migrate status
//	STUDIOCTL_PASSWORD=... studioctl users create --username lead --email lead@example.org --role admin
//	studioctl repair
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
