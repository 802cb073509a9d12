package main

import (
	"log/slog"
	"os"

	"github.com/aryankumar/pwrotate/internal/cli"
	"github.com/aryankumar/pwrotate/internal/util"
)

func main() {
	// First SIGINT stops scheduling new tasks; a second one exits immediately
	ctx := util.SetupSignalHandler()

	if err := cli.Execute(ctx); err != nil {
		slog.Error("command failed", "error", err, "hint", util.FriendlyError(err))
		os.Exit(1)
	}
}
