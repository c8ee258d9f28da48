package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"LajmeCurator/internal/domain"
	"LajmeCurator/internal/ports"
	"LajmeCurator/internal/provider"
)

const (
	lookupBatch = 500
	insertBatch = 200
)

// Pool is the subset of pgxpool.Pool the repository needs.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

var errNoPool = errors.New("database connection not available")

// PostgresRepository persists articles and subscriptions into Postgres.
type PostgresRepository struct {
	pool Pool
	psql sq.StatementBuilderType
}

var (
	_ ports.ArticleStore      = (*PostgresRepository)(nil)
	_ ports.SubscriptionStore = (*PostgresRepository)(nil)
)

// NewPostgresRepository wires a pgx pool implementation.
func NewPostgresRepository(pool Pool) *PostgresRepository {
	return &PostgresRepository{
		pool: pool,
		psql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Connect opens a pgx pool and checks it is reachable.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Ping checks the database is reachable.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	if r.pool == nil {
		return errNoPool
	}
	return r.pool.Ping(ctx)
}

// FetchCandidates reads the candidate pool for one selection pass. Provider
// names are canonicalised on the way out so legacy rows rank correctly.
func (r *PostgresRepository) FetchCandidates(ctx context.Context, q ports.CandidateQuery) ([]domain.Article, error) {
	if r.pool == nil {
		return nil, errNoPool
	}

	builder := r.psql.
		Select("id", "COALESCE(title, '')", "COALESCE(url, '')", "COALESCE(publication_source, '')", "created_at").
		From("articles").
		Where(sq.GtOrEq{"created_at": q.Since})
	if !q.Until.IsZero() {
		builder = builder.Where(sq.Lt{"created_at": q.Until})
	}
	if len(q.Providers) > 0 {
		builder = builder.Where(sq.Eq{"lower(publication_source)": sourceSpellings(q.Providers)})
	}
	builder = builder.OrderBy("created_at DESC", "id DESC")
	if q.Limit > 0 {
		builder = builder.Limit(uint64(q.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build candidates query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var result []domain.Article
	for rows.Next() {
		var a domain.Article
		if err := rows.Scan(&a.ID, &a.Title, &a.URL, &a.Source, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		if a.Source != "" {
			a.Source = provider.Canonical(a.Source)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return result, nil
}

// sourceSpellings expands canonical ids to every lowercased stored spelling.
func sourceSpellings(ids []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range ids {
		for _, s := range provider.Spellings(id) {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// ExistingURLs returns the subset of urls already stored.
func (r *PostgresRepository) ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if len(urls) == 0 {
		return result, nil
	}
	if r.pool == nil {
		return nil, errNoPool
	}

	for start := 0; start < len(urls); start += lookupBatch {
		end := min(start+lookupBatch, len(urls))

		query, args, err := r.psql.Select("url").From("articles").
			Where(sq.Eq{"url": urls[start:end]}).ToSql()
		if err != nil {
			return nil, fmt.Errorf("build lookup query: %w", err)
		}

		if err := r.collectURLs(ctx, query, args, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (r *PostgresRepository) collectURLs(ctx context.Context, query string, args []any, into map[string]bool) error {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query existing urls: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return fmt.Errorf("scan url: %w", err)
		}
		into[u] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows iteration: %w", err)
	}
	return nil
}

// InsertArticles stores articles whose URL is not yet present and returns
// how many rows were written.
func (r *PostgresRepository) InsertArticles(ctx context.Context, articles []domain.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}
	if r.pool == nil {
		return 0, errNoPool
	}

	inserted := 0
	for start := 0; start < len(articles); start += insertBatch {
		end := min(start+insertBatch, len(articles))

		builder := r.psql.Insert("articles").
			Columns("title", "url", "publication_source", "created_at").
			Suffix("ON CONFLICT (url) DO NOTHING")
		for _, a := range articles[start:end] {
			builder = builder.Values(a.Title, a.URL, a.Source, a.CreatedAt)
		}

		query, args, err := builder.ToSql()
		if err != nil {
			return inserted, fmt.Errorf("build insert: %w", err)
		}

		tag, err := r.pool.Exec(ctx, query, args...)
		if err != nil {
			return inserted, fmt.Errorf("insert articles: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}

	return inserted, nil
}

// DeleteOlderThan removes rows created before cutoff.
func (r *PostgresRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.pool == nil {
		return 0, errNoPool
	}

	query, args, err := r.psql.Delete("articles").Where(sq.Lt{"created_at": cutoff}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete expired: %w", err)
	}
	return tag.RowsAffected(), nil
}

// TrimToNewest keeps only the keep most recent rows.
func (r *PostgresRepository) TrimToNewest(ctx context.Context, keep int) (int64, error) {
	if r.pool == nil {
		return 0, errNoPool
	}
	if keep < 0 {
		return 0, fmt.Errorf("trim: negative keep %d", keep)
	}

	query, args, err := r.psql.Delete("articles").
		Where(sq.Expr("id NOT IN (SELECT id FROM articles ORDER BY created_at DESC, id DESC LIMIT ?)", keep)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build trim: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("trim overflow: %w", err)
	}
	return tag.RowsAffected(), nil
}
