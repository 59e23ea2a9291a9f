// Package audit persists LLM usage and advisory results to Postgres. Every
// method is a no-op when the service was built without a database.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jaspreetkaur1509/Agri-bot/internal/llm"
)

// DB is the subset of *pgxpool.Pool the service uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Service struct {
	db      DB
	timeout time.Duration
}

// NewService accepts a nil pool.
func NewService(pool *pgxpool.Pool) *Service {
	if pool == nil {
		return &Service{}
	}
	return newService(pool)
}

func newService(db DB) *Service {
	return &Service{db: db, timeout: 5 * time.Second}
}

func (s *Service) Enabled() bool { return s != nil && s.db != nil }

// Advisory kinds.
const (
	KindSoil       = "soil"
	KindIrrigation = "irrigation"
	KindDiagnosis  = "diagnosis"
)

type AdvisoryEntry struct {
	Kind   string
	Input  any
	Result string
}

// writeCtx detaches from the request so a finished HTTP handler does not
// cancel the insert.
func (s *Service) writeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
}

func (s *Service) LogAdvisory(ctx context.Context, entry AdvisoryEntry) error {
	if !s.Enabled() {
		return nil
	}
	input, err := json.Marshal(entry.Input)
	if err != nil {
		return fmt.Errorf("encode advisory input: %w", err)
	}

	ctx, cancel := s.writeCtx(ctx)
	defer cancel()

	_, err = s.db.Exec(ctx,
		`INSERT INTO advisory_logs (id, kind, input, result) VALUES ($1, $2, $3, $4)`,
		uuid.New(), entry.Kind, input, entry.Result,
	)
	if err != nil {
		return fmt.Errorf("insert advisory log: %w", err)
	}
	return nil
}

// RecordUsage implements llm.UsageRecorder. Failures are logged, never
// returned to the caller of the gateway.
func (s *Service) RecordUsage(ctx context.Context, rec llm.UsageRecord) {
	if !s.Enabled() {
		return
	}
	var errText *string
	if rec.Err != nil {
		msg := rec.Err.Error()
		errText = &msg
	}

	ctx, cancel := s.writeCtx(ctx)
	defer cancel()

	_, err := s.db.Exec(ctx,
		`INSERT INTO llm_usage_logs (id, provider, model, endpoint, input_tokens, output_tokens, total_tokens, cost_usd, latency_ms, error)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.New(), rec.Provider, rec.Model, rec.Endpoint, rec.InputTokens, rec.OutputTokens,
		rec.TotalTokens, rec.CostUSD, rec.LatencyMs, errText,
	)
	if err != nil {
		slog.Warn("insert LLM usage log failed", "error", err, "provider", rec.Provider)
	}
}

type UsageSummary struct {
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	TotalCalls   int     `json:"total_calls"`
	FailedCalls  int     `json:"failed_calls"`
	TotalTokens  int     `json:"total_tokens"`
	TotalCostUSD float64 `json:"total_cost_usd"`
}

// GetUsageSummary aggregates llm_usage_logs per provider and model. Nil
// bounds are open.
func (s *Service) GetUsageSummary(ctx context.Context, startDate, endDate *time.Time) ([]UsageSummary, error) {
	if !s.Enabled() {
		return []UsageSummary{}, nil
	}

	query := `SELECT provider, model, COUNT(*) AS total_calls,
			         COUNT(error) AS failed_calls,
			         COALESCE(SUM(total_tokens), 0) AS total_tokens,
			         COALESCE(SUM(cost_usd), 0)::float8 AS total_cost_usd
			  FROM llm_usage_logs WHERE true`
	var args []any
	if startDate != nil {
		args = append(args, *startDate)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if endDate != nil {
		args = append(args, *endDate)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	query += " GROUP BY provider, model ORDER BY total_cost_usd DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query usage summary: %w", err)
	}
	defer rows.Close()

	summaries := []UsageSummary{}
	for rows.Next() {
		var us UsageSummary
		if err := rows.Scan(&us.Provider, &us.Model, &us.TotalCalls, &us.FailedCalls, &us.TotalTokens, &us.TotalCostUSD); err != nil {
			return nil, fmt.Errorf("scan usage summary: %w", err)
		}
		summaries = append(summaries, us)
	}
	return summaries, rows.Err()
}
