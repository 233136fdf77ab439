package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ugnoguchigxp/regular-rag/helper"
	"github.com/ugnoguchigxp/regular-rag/model"
	loadsql "github.com/ugnoguchigxp/regular-rag/sql"
)

// CacheRepository handles the response-cache database operations.
type CacheRepository struct {
	db *helper.Database
}

// NewCacheRepository loads the cache SQL functions and table.
func NewCacheRepository(store *Store, force bool) (*CacheRepository, error) {
	if store == nil {
		return nil, helper.NewError("new cache repository", fmt.Errorf("store is nil"))
	}

	db := store.database()
	if err := loadsql.LoadCacheSql(db.Instance, force); err != nil {
		return nil, helper.NewError("load cache sql", err)
	}

	if _, err := db.Instance.Exec(`SELECT init_cache()`); err != nil {
		return nil, helper.NewError("init cache table", err)
	}

	db.Logger.Info("initialized cache repository")
	return &CacheRepository{db: db}, nil
}

// FindByHash looks up a cache entry by its request hash. It returns
// (nil, nil) on a miss.
func (r *CacheRepository) FindByHash(ctx context.Context, requestHash string) (*model.CacheEntry, error) {
	entry := &model.CacheEntry{}
	row := r.db.Instance.QueryRowContext(ctx, `SELECT * FROM find_cache_by_hash($1)`, requestHash)
	if err := scanCacheEntry(row, entry); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, helper.NewError("find cache by hash", err)
	}
	return entry, nil
}

// Save writes a fresh entry or overwrites question/context/response of an
// existing one, leaving hit_count and last_hit_at untouched.
func (r *CacheRepository) Save(ctx context.Context, requestHash, question string, cacheContext model.Metadata, response string) (*model.CacheEntry, error) {
	entry := &model.CacheEntry{}
	row := r.db.Instance.QueryRowContext(ctx,
		`SELECT * FROM save_cache($1, $2, $3, $4)`,
		requestHash, question, cacheContext, response,
	)
	if err := scanCacheEntry(row, entry); err != nil {
		return nil, helper.NewError("save cache", err)
	}
	return entry, nil
}

// IncrementHitCount atomically bumps hit_count and sets last_hit_at to now.
func (r *CacheRepository) IncrementHitCount(ctx context.Context, requestHash string) (*model.CacheEntry, error) {
	entry := &model.CacheEntry{}
	row := r.db.Instance.QueryRowContext(ctx, `SELECT * FROM increment_cache_hit($1)`, requestHash)
	if err := scanCacheEntry(row, entry); err != nil {
		return nil, helper.NewError("increment cache hit", err)
	}
	return entry, nil
}

func scanCacheEntry(row rowScanner, e *model.CacheEntry) error {
	return row.Scan(
		&e.RequestHash, &e.Question, &e.Context, &e.Response,
		&e.HitCount, &e.LastHitAt, &e.CreatedAt, &e.UpdatedAt,
	)
}
