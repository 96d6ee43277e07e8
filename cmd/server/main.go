package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"redis/internal/logger"
	"redis/internal/server"
)

func main() {
	host := flag.String("host", "0.0.0.0", "host to bind to")
	port := flag.Int("port", 6379, "port to listen on")
	dir := flag.String("dir", ".", "directory holding the RDB dump file")
	dbFilename := flag.String("dbfilename", "dump.rdb", "RDB dump filename")
	replicaOf := flag.String("replicaof", "", "host:port of a master to replicate from")
	logLevel := flag.String("loglevel", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	logger.SetLevel(*logLevel)
	log := logger.Component("main")

	cfg := server.DefaultConfig()
	cfg.Host = *host
	cfg.Port = *port
	cfg.Dir = *dir
	cfg.DBFilename = *dbFilename
	cfg.ReplicaOf = *replicaOf

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("failed to build server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down")
		cancel()
		srv.Shutdown()
	}()

	log.Infof("starting on %s:%d", cfg.Host, cfg.Port)
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
