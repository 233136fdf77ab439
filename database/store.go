package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ugnoguchigxp/regular-rag/helper"
	"github.com/ugnoguchigxp/regular-rag/model"
	loadsql "github.com/ugnoguchigxp/regular-rag/sql"
)

// ownership distinguishes a connection pool the Store built itself from one
// handed to it by the host process. Only the former is torn down by Close.
type ownership int

const (
	ownedConn ownership = iota
	borrowedConn
)

// Store wraps the relational connection every repository reads and writes
// through. It is constructed either from a connection URL (owned) or from an
// externally supplied *sql.DB (borrowed); only the owned variant implements
// teardown, so embedding a Store inside a host process never steals control
// of connections the host manages itself.
type Store struct {
	db     *helper.Database
	owns   ownership
	Logger *slog.Logger
}

// NewOwnedStore opens a fresh connection pool from config and loads the
// database extensions; each repository loads its own stored functions.
func NewOwnedStore(config *helper.DatabaseConfiguration, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(helper.NewPrettyHandler(os.Stdout, helper.PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{Level: slog.LevelInfo},
		}))
	}

	db, err := helper.NewDatabase("regular-rag", config, logger)
	if err != nil {
		return nil, helper.NewError("open owned store", err)
	}

	store := &Store{db: db, owns: ownedConn, Logger: logger}
	if err := store.bootstrap(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewBorrowedStore wraps an externally owned *sql.DB. It still runs the same
// bootstrap as an owned store; the host remains responsible for the pool's
// lifecycle, not its initial liveness.
func NewBorrowedStore(instance *sql.DB, logger *slog.Logger) (*Store, error) {
	if instance == nil {
		return nil, helper.NewError("borrow store", fmt.Errorf("instance is nil"))
	}
	if logger == nil {
		logger = slog.New(helper.NewPrettyHandler(os.Stdout, helper.PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{Level: slog.LevelInfo},
		}))
	}

	db := &helper.Database{Instance: instance, Logger: logger}
	store := &Store{db: db, owns: borrowedConn, Logger: logger}
	if err := store.bootstrap(); err != nil {
		return nil, err
	}
	return store, nil
}

// bootstrap loads extensions; individual repositories load their own
// stored-function groups on construction.
func (s *Store) bootstrap() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.connect(ctx); err != nil {
		return helper.NewError("connect store", err)
	}

	if err := loadsql.Init(s.db.Instance); err != nil {
		return helper.NewError("init extensions", err)
	}
	return nil
}

// connect performs a liveness acquire-release against the pool.
func (s *Store) connect(ctx context.Context) error {
	if err := s.db.Instance.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %s", model.ErrStore, err)
	}
	return nil
}

// Close releases the underlying connection only when this Store owns it.
func (s *Store) Close() error {
	if s.owns != ownedConn {
		return nil
	}
	return s.db.Close()
}

// database returns the wrapped *helper.Database for repository construction.
func (s *Store) database() *helper.Database {
	return s.db
}
