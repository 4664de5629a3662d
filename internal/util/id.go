// Package util provides shared utility functions.
package util

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Standard ID lengths for weekplan entities.
const (
	// PlanIDPrefix starts every plan ID.
	PlanIDPrefix = "plan-"
	// PlanIDLength is the full length of a plan ID (e.g., "plan-abcdef12").
	PlanIDLength = 13 // "plan-" (5) + 8 hex chars
	// DefaultShortIDLength is the default number of characters for short IDs.
	DefaultShortIDLength = 8
	// MaxAmbiguousCandidates is the max number of candidates to show in ambiguous error.
	MaxAmbiguousCandidates = 5
)

// Errors returned by ID resolution functions.
var (
	ErrAmbiguousID = errors.New("ambiguous ID prefix")
	ErrNotFound    = errors.New("not found")
)

// NewPlanID returns a fresh plan ID such as "plan-1a2b3c4d".
func NewPlanID() string {
	return PlanIDPrefix + strings.ReplaceAll(uuid.New().String(), "-", "")[:PlanIDLength-len(PlanIDPrefix)]
}

// ShortID returns a shortened version of an ID.
// If n is 0 or negative, DefaultShortIDLength (8) is used.
//
//	ShortID("plan-abcdef12", 0)  → "plan-abc"
//	ShortID("plan-abcdef12", 10) → "plan-abcde"
func ShortID(id string, n int) string {
	if n <= 0 {
		n = DefaultShortIDLength
	}
	if len(id) <= n {
		return id
	}
	return id[:n]
}

// PlanIDResolver finds plan IDs by prefix.
type PlanIDResolver interface {
	FindPlanIDsByPrefix(ctx context.Context, prefix string) ([]string, error)
}

// ResolvePlanID resolves a plan ID or prefix to a full plan ID.
//
// Resolution rules:
//  1. The "plan-" prefix is optional.
//  2. If idOrPrefix matches exactly one plan ID, return that ID.
//  3. If multiple match, return ErrAmbiguousID with candidates.
//  4. If none match, return ErrNotFound.
func ResolvePlanID(ctx context.Context, resolver PlanIDResolver, idOrPrefix string) (string, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return "", fmt.Errorf("plan ID: %w", ErrNotFound)
	}

	normalized := idOrPrefix
	if !strings.HasPrefix(normalized, PlanIDPrefix) {
		normalized = PlanIDPrefix + normalized
	}

	candidates, err := resolver.FindPlanIDsByPrefix(ctx, normalized)
	if err != nil {
		return "", fmt.Errorf("find plan IDs: %w", err)
	}

	// An exact match wins over longer IDs sharing the prefix.
	for _, c := range candidates {
		if c == normalized {
			return c, nil
		}
	}

	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("plan with prefix %q: %w", normalized, ErrNotFound)
	case 1:
		return candidates[0], nil
	default:
		shown := candidates
		if len(shown) > MaxAmbiguousCandidates {
			shown = shown[:MaxAmbiguousCandidates]
		}
		return "", fmt.Errorf("%w: prefix %q matches %d plans: %v",
			ErrAmbiguousID, normalized, len(candidates), shown)
	}
}
