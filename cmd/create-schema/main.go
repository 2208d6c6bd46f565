package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"clauseguard-backend/config"
	"clauseguard-backend/logging"
	"clauseguard-backend/models"
	"clauseguard-backend/reference"
	"clauseguard-backend/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load(os.Getenv("CLAUSEGUARD_CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", logging.Err(err))
	}
	defer pool.Close()

	tables := []struct {
		name string
		sql  string
	}{
		{name: "files", sql: `
CREATE TABLE IF NOT EXISTS files (
    id UUID PRIMARY KEY,
    filename TEXT NOT NULL,
    mime_type VARCHAR(255) NOT NULL,
    size BIGINT NOT NULL,
    storage_path TEXT NOT NULL,
    content_hash VARCHAR(64) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`},
		{name: "documents", sql: `
CREATE TABLE IF NOT EXISTS documents (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    file_id UUID REFERENCES files(id) ON DELETE SET NULL,
    filename TEXT NOT NULL,
    mime_type VARCHAR(255) NOT NULL,
    status VARCHAR(20) NOT NULL CHECK (status IN ('uploaded', 'extracted', 'analyzing', 'analyzed', 'failed')),
    content_hash VARCHAR(64) NOT NULL,
    extracted_text TEXT,
    -- Clause candidates from a structured extractor
    clauses JSONB NOT NULL DEFAULT '[]'::jsonb,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    analyzed_at TIMESTAMPTZ
);`},
		{name: "analysis_jobs", sql: `
CREATE TABLE IF NOT EXISTS analysis_jobs (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    status VARCHAR(20) NOT NULL CHECK (status IN ('pending', 'in_progress', 'completed', 'failed')),
    current_step TEXT,
    steps JSONB NOT NULL DEFAULT '[]'::jsonb,
    recommendation_limit INTEGER NOT NULL,
    clause_count INTEGER NOT NULL DEFAULT 0,
    dropped_count INTEGER NOT NULL DEFAULT 0,
    truncated_count INTEGER NOT NULL DEFAULT 0,
    recommendation_count INTEGER NOT NULL DEFAULT 0,
    error_message TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    completed_at TIMESTAMPTZ
);`},
		{name: "reference_clauses", sql: fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS reference_clauses (
    id TEXT PRIMARY KEY,
    -- Matching takes the first reference of a type in seq order
    seq BIGSERIAL UNIQUE,
    clause_type VARCHAR(50) NOT NULL CHECK (clause_type IN (%s)),
    content TEXT NOT NULL CHECK (content <> ''),
    description TEXT NOT NULL DEFAULT '',
    metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`, clauseTypeList())},
		{name: "recommendations", sql: fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS recommendations (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    job_id UUID NOT NULL REFERENCES analysis_jobs(id) ON DELETE CASCADE,
    rank INTEGER NOT NULL,
    title TEXT NOT NULL,
    original_clause TEXT NOT NULL,
    explanation TEXT NOT NULL,
    suggestion TEXT NOT NULL,
    risk_level VARCHAR(10) NOT NULL CHECK (risk_level IN ('high', 'medium', 'low')),
    clause_type VARCHAR(50) NOT NULL CHECK (clause_type IN (%s)),
    position INTEGER NOT NULL,
    confidence DOUBLE PRECISION NOT NULL,
    source VARCHAR(20) NOT NULL CHECK (source IN ('generated', 'template', 'generic')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT recommendation_rank_unique UNIQUE (document_id, rank)
);`, clauseTypeList())},
	}

	for _, table := range tables {
		if _, err := pool.Exec(ctx, table.sql); err != nil {
			logger.Fatal("Failed to create table", logging.String("table", table.name), logging.Err(err))
		}
		logger.Info("Created table", logging.String("table", table.name))
	}

	indexes := []struct {
		name string
		sql  string
	}{
		{
			name: "Documents by content hash",
			sql:  "CREATE INDEX IF NOT EXISTS idx_documents_content_hash ON documents(content_hash);",
		},
		{
			name: "Jobs by document, newest first",
			sql:  "CREATE INDEX IF NOT EXISTS idx_analysis_jobs_document ON analysis_jobs(document_id, created_at DESC);",
		},
		{
			name: "Reference clauses by type",
			sql:  "CREATE INDEX IF NOT EXISTS idx_reference_clauses_type ON reference_clauses(clause_type, seq);",
		},
	}

	for _, idx := range indexes {
		if _, err := pool.Exec(ctx, idx.sql); err != nil {
			logger.Warn("Failed to create index", logging.String("index", idx.name), logging.Err(err))
		} else {
			logger.Info("Created index", logging.String("index", idx.name))
		}
	}

	seed := reference.Seed()
	if err := repository.NewReferenceClauseRepository(pool).Upsert(ctx, seed); err != nil {
		logger.Fatal("Failed to seed reference clauses", logging.Err(err))
	}
	logger.Info("Seeded reference clauses", logging.Int("count", len(seed)))
}

// clauseTypeList renders the taxonomy as a SQL IN list
func clauseTypeList() string {
	types := models.ClauseTypes()
	quoted := make([]string, len(types))
	for i, t := range types {
		quoted[i] = "'" + string(t) + "'"
	}
	return strings.Join(quoted, ", ")
}
