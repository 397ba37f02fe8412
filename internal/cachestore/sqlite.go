package cachestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lvminh/farmdiary/internal/dbx"
)

// SQLiteStorage persists namespaces in the local database's response_cache
// table, so cached responses survive restarts the way service-worker caches
// survive page reloads.
type SQLiteStorage struct {
	db dbx.DBTX
}

func NewSQLiteStorage(db dbx.DBTX) *SQLiteStorage {
	return &SQLiteStorage{db: db}
}

func (s *SQLiteStorage) Open(name string) Cache {
	return &sqliteCache{db: s.db, namespace: name}
}

func (s *SQLiteStorage) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT namespace FROM response_cache`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache namespaces: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteStorage) Drop(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM response_cache WHERE namespace = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to drop cache namespace %s: %w", name, err)
	}
	return nil
}

type sqliteCache struct {
	db        dbx.DBTX
	namespace string
}

func (c *sqliteCache) Match(ctx context.Context, url string) (*ResponseSnapshot, bool, error) {
	var (
		status   int
		headers  string
		body     []byte
		storedAt int64
	)
	err := c.db.QueryRowContext(ctx, `
		SELECT status, headers, body, stored_at FROM response_cache
		WHERE namespace = ? AND url = ?`, c.namespace, url).
		Scan(&status, &headers, &body, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to match cached response: %w", err)
	}

	var header http.Header
	if err := json.Unmarshal([]byte(headers), &header); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached headers: %w", err)
	}
	return &ResponseSnapshot{
		URL:      url,
		Status:   status,
		Header:   header,
		Body:     body,
		StoredAt: time.UnixMilli(storedAt),
	}, true, nil
}

func (c *sqliteCache) Put(ctx context.Context, snapshot *ResponseSnapshot) error {
	headers, err := json.Marshal(snapshot.Header)
	if err != nil {
		return fmt.Errorf("failed to encode headers: %w", err)
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO response_cache (namespace, url, status, headers, body, stored_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(namespace, url) DO UPDATE SET
			status = excluded.status,
			headers = excluded.headers,
			body = excluded.body,
			stored_at = excluded.stored_at
	`, c.namespace, snapshot.URL, snapshot.Status, string(headers),
		snapshot.Body, snapshot.StoredAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to store cached response: %w", err)
	}
	return nil
}

func (c *sqliteCache) Delete(ctx context.Context, url string) error {
	_, err := c.db.ExecContext(ctx,
		`DELETE FROM response_cache WHERE namespace = ? AND url = ?`, c.namespace, url)
	if err != nil {
		return fmt.Errorf("failed to delete cached response: %w", err)
	}
	return nil
}

func (c *sqliteCache) Keys(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT url FROM response_cache WHERE namespace = ?`, c.namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to list cached urls: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}
