package backend

import (
	"context"

	"budgetboard/internal/ledger"
)

// CleanupFunc releases the resources of a backend.
type CleanupFunc func() error

// BackendResult contains the ledger service and its cleanup function.
type BackendResult struct {
	Service *ledger.Service
	// Ready reports whether the store is reachable. Never nil.
	Ready   func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Factory creates ledger backends from configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string
	PostgresDSN  string

	// AMQP is optional; an empty URL disables event publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
