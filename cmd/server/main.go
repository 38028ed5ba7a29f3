package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/fileserver/internal/infrastructure/config"
	"github.com/GriffinCanCode/fileserver/internal/infrastructure/server"
)

func main() {
	// Parse flags
	configFile := flag.String("config", "", "YAML or TOML config file applied over the environment")
	port := flag.String("port", "", "Server port (overrides PORT)")
	baseDir := flag.String("dir", "", "Directory to serve (overrides BASE_DIR)")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configFile != "" {
		cfg, err = config.LoadFile(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *baseDir != "" {
		cfg.Files.BaseDir = *baseDir
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case <-sigChan:
		if err := srv.Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		_ = srv.Close()
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}
}
