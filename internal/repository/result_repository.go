package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/interview-sim/internal/model"
)

// ResultRepository handles archived interview results.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// BulkUpsert archives a batch of results in one statement using UNNEST.
// A candidate that was reset and completed again replaces its previous row.
func (r *ResultRepository) BulkUpsert(ctx context.Context, batch []model.InterviewResult) error {
	n := len(batch)
	if n == 0 {
		return nil
	}

	ids := make([]string, n)
	names := make([]string, n)
	emails := make([]string, n)
	roles := make([]string, n)
	scores := make([]int32, n)
	summaries := make([]string, n)
	answers := make([]string, n)
	completed := make([]time.Time, n)
	for i, res := range batch {
		ids[i] = res.CandidateID
		names[i] = res.Name
		emails[i] = res.Email
		roles[i] = res.Role
		scores[i] = int32(res.Score)
		summaries[i] = res.Summary
		answers[i] = string(res.Answers)
		completed[i] = res.CompletedAt
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO interview_results (candidate_id, name, email, role, score, summary, answers, completed_at)
		SELECT u.candidate_id, u.name, u.email, u.role, u.score, u.summary, u.answers::jsonb, u.completed_at
		FROM UNNEST(
			$1::text[],
			$2::text[],
			$3::text[],
			$4::text[],
			$5::int4[],
			$6::text[],
			$7::text[],
			$8::timestamptz[]
		) AS u (candidate_id, name, email, role, score, summary, answers, completed_at)
		ON CONFLICT (candidate_id) DO UPDATE
		SET name = EXCLUDED.name,
		    email = EXCLUDED.email,
		    role = EXCLUDED.role,
		    score = EXCLUDED.score,
		    summary = EXCLUDED.summary,
		    answers = EXCLUDED.answers,
		    completed_at = EXCLUDED.completed_at,
		    archived_at = NOW()`,
		ids, names, emails, roles, scores, summaries, answers, completed,
	)
	return err
}

// Upsert archives a single result; used as the fallback when a batch fails.
func (r *ResultRepository) Upsert(ctx context.Context, res model.InterviewResult) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO interview_results (candidate_id, name, email, role, score, summary, answers, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8)
		ON CONFLICT (candidate_id) DO UPDATE
		SET name = EXCLUDED.name,
		    email = EXCLUDED.email,
		    role = EXCLUDED.role,
		    score = EXCLUDED.score,
		    summary = EXCLUDED.summary,
		    answers = EXCLUDED.answers,
		    completed_at = EXCLUDED.completed_at,
		    archived_at = NOW()`,
		res.CandidateID, res.Name, res.Email, res.Role, res.Score, res.Summary, string(res.Answers), res.CompletedAt,
	)
	return err
}

// List retrieves archived results, best score first, with pagination.
func (r *ResultRepository) List(ctx context.Context, limit, offset int) ([]model.InterviewResult, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM interview_results`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT candidate_id, name, email, role, score, summary, answers, completed_at
		FROM interview_results
		ORDER BY score DESC, completed_at DESC
		LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []model.InterviewResult
	for rows.Next() {
		var res model.InterviewResult
		var answers []byte
		if err := rows.Scan(&res.CandidateID, &res.Name, &res.Email, &res.Role, &res.Score, &res.Summary, &answers, &res.CompletedAt); err != nil {
			return nil, 0, err
		}
		res.Answers = answers
		results = append(results, res)
	}
	return results, total, rows.Err()
}
