// Package server assembles the file server: configuration, logging,
// metrics, tracing, the filesystem provider, the auth gate and the gin
// router, served by a net/http.Server with timeouts and graceful shutdown.
//
// Example Usage:
//
//	srv, err := server.NewServer(cfg)
//	go srv.Run()
//	defer srv.Close()
package server
