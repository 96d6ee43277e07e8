package server

import "time"

// Config holds everything needed to start a server: listening
// address, connection limits, RDB bootstrap location, and an optional
// master to replicate from.
type Config struct {
	Host           string
	Port           int
	MaxConnections int

	ReadBufferSize  int
	WriteBufferSize int
	ReadTimeout     time.Duration

	Dir        string
	DBFilename string

	// ReplicaOf is "host:port" of a master to replicate from, or empty
	// to run as a master.
	ReplicaOf string
}

func DefaultConfig() *Config {
	return &Config{
		Host:            "0.0.0.0",
		Port:            6379,
		MaxConnections:  10000,
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		ReadTimeout:     60 * time.Second,
		Dir:             ".",
		DBFilename:      "dump.rdb",
	}
}
