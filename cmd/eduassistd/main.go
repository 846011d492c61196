// Command eduassistd runs the EduAssist daemon without the CLI wrapper. It
// exists for service managers that want a dedicated daemon binary; `eduassist
// serve` runs the same runtime.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"eduassist/internal/config"
	"eduassist/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	logLevel := flag.String("log-level", "", "override the configured log level")
	flag.Parse()

	// Secrets may live in a .env next to the service definition.
	_ = godotenv.Load()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{LogLevel: *logLevel}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
