package repository

import (
	"context"
	"errors"

	"github.com/stemsi/interview-sim/internal/model"
)

// Store errors.
var (
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrCandidateExists   = errors.New("candidate already exists")
)

// CandidateStore is the system of record for candidate sessions.
// Every read returns a deep copy.
type CandidateStore interface {
	Create(ctx context.Context, c *model.Candidate) error
	Get(ctx context.Context, id string) (*model.Candidate, error)
	// Merge applies only the present fields of u. An unknown id is a no-op
	// and reports false.
	Merge(ctx context.Context, u model.CandidateUpdate) (*model.Candidate, bool, error)
	// Reset returns the session to not_started with its interview data cleared.
	Reset(ctx context.Context, id string) (*model.Candidate, bool, error)
	// List returns all candidates, newest first.
	List(ctx context.Context) ([]model.Candidate, error)
	Delete(ctx context.Context, id string) error
}
