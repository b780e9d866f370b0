package store

import (
	"context"
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
	"github.com/xhad/topics/internal/models"
)

// MaxVectorDim is the widest vector pgvector stores. Wider vectors are written as NULL.
const MaxVectorDim = 16000

type VectorStoreConfig struct {
	ConnString string
	// TableName prefixes the runs, documents and topics tables.
	TableName string
	BatchSize int
}

// VectorStore exports clustering runs to Postgres. It never reads them back.
type VectorStore struct {
	config VectorStoreConfig
	pool   *pgxpool.Pool
}

var identifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]{0,40}$`)

func (c *VectorStoreConfig) applyDefaults() error {
	if c.TableName == "" {
		c.TableName = "topics"
	}
	if !identifier.MatchString(c.TableName) {
		return &models.ConfigurationError{Field: "database.table_name", Message: fmt.Sprintf("%q is not a valid identifier", c.TableName)}
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	return nil
}

func NewWithConfig(ctx context.Context, config VectorStoreConfig) (*VectorStore, error) {
	if err := config.applyDefaults(); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	vs := &VectorStore{
		config: config,
		pool:   pool,
	}

	if err := vs.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return vs, nil
}

func (vs *VectorStore) table(suffix string) string {
	return vs.config.TableName + "_" + suffix
}

func (vs *VectorStore) schema() []string {
	return []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			source_url TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			objective DOUBLE PRECISION,
			iterations INTEGER,
			state TEXT
		)`, vs.table("runs")),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id TEXT NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
			cluster INTEGER NOT NULL,
			label TEXT,
			size INTEGER,
			top_terms TEXT[],
			centroid vector,
			PRIMARY KEY (run_id, cluster)
		)`, vs.table("topics"), vs.table("runs")),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id TEXT NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
			id TEXT NOT NULL,
			url TEXT,
			title TEXT,
			content TEXT,
			cluster INTEGER NOT NULL,
			distance DOUBLE PRECISION,
			embedding vector,
			metadata JSONB,
			PRIMARY KEY (run_id, id)
		)`, vs.table("documents"), vs.table("runs")),
	}
}

func (vs *VectorStore) initialize(ctx context.Context) error {
	for _, stmt := range vs.schema() {
		if _, err := vs.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// Store writes one run, its topics and its documents in a single transaction.
func (vs *VectorStore) Store(ctx context.Context, run models.RunRecord) error {
	// Begin transaction
	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, source_url, created_at, objective, iterations, state)
		VALUES ($1, $2, $3, $4, $5, $6)`, vs.table("runs")),
		run.ID, sanitizeUTF8(run.SourceURL), run.CreatedAt, run.Objective, run.Iterations, run.State)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	topicStmt := fmt.Sprintf(`
		INSERT INTO %s (run_id, cluster, label, size, top_terms, centroid)
		VALUES ($1, $2, $3, $4, $5, $6)`, vs.table("topics"))
	batch := &pgx.Batch{}
	for _, topic := range run.Topics {
		batch.Queue(topicStmt, run.ID, topic.Cluster, sanitizeUTF8(topic.Label), topic.Size, topic.TopTerms, toVector(topic.Centroid))
	}
	if err := vs.flush(ctx, tx, batch); err != nil {
		return fmt.Errorf("failed to insert topics: %w", err)
	}

	docStmt := fmt.Sprintf(`
		INSERT INTO %s (run_id, id, url, title, content, cluster, distance, embedding, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, vs.table("documents"))

	// Insert documents in batches
	batch = &pgx.Batch{}
	for _, doc := range run.Documents {
		batch.Queue(docStmt,
			run.ID,
			doc.ID,
			doc.URL,
			sanitizeUTF8(doc.Title),
			sanitizeUTF8(doc.Content),
			doc.Cluster,
			doc.Distance,
			toVector(doc.Vector),
			doc.Metadata,
		)
		if batch.Len() >= vs.config.BatchSize {
			if err := vs.flush(ctx, tx, batch); err != nil {
				return fmt.Errorf("failed to insert documents: %w", err)
			}
			batch = &pgx.Batch{}
		}
	}
	if err := vs.flush(ctx, tx, batch); err != nil {
		return fmt.Errorf("failed to insert documents: %w", err)
	}

	// Commit transaction
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info().
		Str("run", run.ID).
		Int("documents", len(run.Documents)).
		Int("topics", len(run.Topics)).
		Msg("Exported run")
	return nil
}

func (vs *VectorStore) flush(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	return tx.SendBatch(ctx, batch).Close()
}

func (vs *VectorStore) Close() {
	if vs.pool != nil {
		vs.pool.Close()
	}
}

// toVector returns nil, stored as NULL, for empty or oversized vectors.
func toVector(v []float32) *pgvector.Vector {
	if len(v) == 0 || len(v) > MaxVectorDim {
		return nil
	}
	vec := pgvector.NewVector(v)
	return &vec
}

func sanitizeUTF8(s string) string {
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for i, r := range s {
			if r == utf8.RuneError {
				_, size := utf8.DecodeRuneInString(s[i:])
				if size == 1 {
					continue
				}
			}
			v = append(v, r)
		}
		return string(v)
	}
	return s
}
