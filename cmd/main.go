/*
Package main is the entry point for the group chat server.

It is responsible for loading configuration, initializing the global logging
system, connecting to the document store, starting the real-time relay and the
session store, setting up the HTTP server, and gracefully handling operating
system interrupt signals (SIGINT, SIGTERM) for a smooth shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"groupchat/internal/app/relay"
	"groupchat/internal/app/session"
	"groupchat/internal/app/store"
	"groupchat/internal/configs"
	"groupchat/internal/handler"
	"groupchat/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("message_block_size", cfg.MessageBlockSize).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the document store
	documents, err := store.Connect(ctx, cfg.MongoURL, cfg.MongoDB)
	if err != nil {
		logx.Fatal(err, "Failed to connect to document store")
	}

	// Pre-seed a message buffer for every stored room
	buffers := relay.NewBuffers()
	rooms, err := documents.Rooms(ctx)
	if err != nil {
		logx.Fatal(err, "Failed to load rooms at startup")
	}
	for _, room := range rooms {
		buffers.Init(room.ID)
	}
	logx.Info("Room buffers initialized", "rooms", len(rooms))

	// Start the session store and the relay
	sessions := session.NewStore(session.SystemClock())

	broker := relay.New(documents, buffers, cfg.MessageBlockSize)
	go broker.Run()

	// Setup HTTP server and routes
	deps := &handler.AppDeps{
		Config:   cfg,
		Store:    documents,
		Sessions: sessions,
		Relay:    broker,
		Buffers:  buffers,
	}
	router := handler.Router(deps)

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Group chat server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	broker.Shutdown()
	sessions.Close()

	if err := documents.Close(shutdownCtx); err != nil {
		logx.Error(err, "Failed to disconnect from document store")
	}

	logx.Info("Server gracefully stopped.")
}
