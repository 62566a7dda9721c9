package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"autopost/internal/logging"
	"autopost/internal/services"
)

var (
	// ErrEmptyCatalog reports a catalog or attribute list with no entries.
	ErrEmptyCatalog = errors.New("catalog is empty")
	// ErrExhaustedCandidates reports that no unused candidate was drawn within the attempt budget.
	ErrExhaustedCandidates = errors.New("no unused candidate found")
)

// Membership reports whether a candidate key was already used.
type Membership interface {
	Contains(key string) bool
	Len() int
}

// Selector draws random (subject, attribute) pairs until one is not yet used.
type Selector struct {
	subjects   []string
	attributes []string
	rng        *rand.Rand
	logger     *slog.Logger
}

// Option customizes a Selector.
type Option func(*Selector)

// WithRand injects a deterministic random source.
func WithRand(r *rand.Rand) Option {
	return func(s *Selector) {
		if r != nil {
			s.rng = r
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Selector) {
		s.logger = logging.NewComponentLogger(logger, "catalog")
	}
}

// NewSelector builds a selector over the given subjects and attributes.
func NewSelector(subjects, attributes []string, opts ...Option) *Selector {
	now := uint64(time.Now().UnixNano())
	s := &Selector{
		subjects:   append([]string(nil), subjects...),
		attributes: append([]string(nil), attributes...),
		rng:        rand.New(rand.NewPCG(now, now>>1|1)),
		logger:     logging.NewComponentLogger(nil, "catalog"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subjects returns a copy of the configured subjects.
func (s *Selector) Subjects() []string {
	return append([]string(nil), s.subjects...)
}

// Attributes returns a copy of the configured attributes.
func (s *Selector) Attributes() []string {
	return append([]string(nil), s.attributes...)
}

// Size is the number of distinct candidates the selector can produce.
func (s *Selector) Size() int {
	return len(s.subjects) * len(s.attributes)
}

// SelectUnique draws up to maxAttempts candidates and returns the first whose key
// is not in used. The candidate is not committed to history. maxAttempts values
// below one are treated as one.
func (s *Selector) SelectUnique(ctx context.Context, used Membership, maxAttempts int) (Candidate, error) {
	if len(s.subjects) == 0 || len(s.attributes) == 0 {
		return Candidate{}, services.Wrap(services.ErrConfiguration, "selecting", "select",
			fmt.Sprintf("%d subjects and %d attributes configured", len(s.subjects), len(s.attributes)), ErrEmptyCatalog)
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Candidate{}, err
		}
		candidate := Candidate{
			Subject:   s.subjects[s.rng.IntN(len(s.subjects))],
			Attribute: s.attributes[s.rng.IntN(len(s.attributes))],
		}
		key := candidate.Key()
		if used != nil && used.Contains(key) {
			s.logger.Debug("candidate already used",
				logging.String(logging.FieldCandidate, key),
				logging.Int(logging.FieldAttempt, attempt))
			continue
		}
		s.logger.Info("candidate selected",
			logging.String(logging.FieldCandidate, key),
			logging.Int(logging.FieldAttempt, attempt))
		return candidate, nil
	}

	historySize := 0
	if used != nil {
		historySize = used.Len()
	}
	return Candidate{}, services.Wrap(services.ErrValidation, "selecting", "select",
		fmt.Sprintf("%d attempts exhausted with %d of %d candidates in history", maxAttempts, historySize, s.Size()),
		ErrExhaustedCandidates)
}
