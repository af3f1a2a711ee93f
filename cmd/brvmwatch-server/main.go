package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tiemoko/brvmwatch/internal/app"
	"github.com/tiemoko/brvmwatch/internal/common"
)

func main() {
	configPath := flag.String("config", "", "path to brvmwatch.toml")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(common.GetFullVersion())
		return
	}

	a, err := app.NewApp(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	a.StartScheduler()

	a.Logger.Info().
		Str("version", common.GetVersion()).
		Str("environment", a.Config.Environment).
		Str("interval", a.Config.Alerts.GetInterval().String()).
		Msg("brvmwatch ready")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	a.Logger.Info().Msg("Shutdown signal received")
	a.Close()
	a.Logger.Info().Msg("Server stopped")
}
