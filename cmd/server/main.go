// Copyright 2025 The langcenter Authors
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/lqhuy/langcenter/internal/config"
	"github.com/lqhuy/langcenter/internal/server"
)

func main() {
	cmd := &cli.Command{
		Name:   "langcenter",
		Usage:  "Start the language center API server",
		Flags:  config.Flags(),
		Action: server.Run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
