// Package main is the entry point for taskdeckd, the local task API server.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskdeck/internal/devserver"
)

func main() {
	addr := flag.String("addr", "localhost:8000", "listen address")
	dbPath := flag.String("db", "", "SQLite database path (in-memory store if empty)")
	flag.Parse()

	logger := log.New(os.Stderr, "taskdeckd: ", log.LstdFlags)

	var store devserver.Store
	if *dbPath != "" {
		sqlStore, err := devserver.OpenSQLite(*dbPath)
		if err != nil {
			logger.Fatalf("open store: %v", err)
		}
		store = sqlStore
	} else {
		store = devserver.NewMemoryStore()
	}
	defer store.Close()

	server := &http.Server{
		Addr:         *addr,
		Handler:      devserver.New(store, logger).Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Printf("listening on http://%s", *addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("serve: %v", err)
	}
}
