package util

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestShortID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		n    int
		want string
	}{
		{"default length truncates", "plan-abcdef12", 0, "plan-abc"},
		{"negative uses default", "plan-abcdef12", -1, "plan-abc"},
		{"explicit length 10", "plan-abcdef12", 10, "plan-abcde"},
		{"length equals ID", "plan-abc", 8, "plan-abc"},
		{"shorter than n", "plan-xy", 20, "plan-xy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShortID(tt.id, tt.n); got != tt.want {
				t.Errorf("ShortID(%q, %d) = %q, want %q", tt.id, tt.n, got, tt.want)
			}
		})
	}
}

func TestNewPlanID(t *testing.T) {
	seen := map[string]bool{}
	for range 50 {
		id := NewPlanID()
		if len(id) != PlanIDLength {
			t.Fatalf("unexpected length %d for %q", len(id), id)
		}
		if !strings.HasPrefix(id, PlanIDPrefix) {
			t.Fatalf("missing prefix: %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

type mockResolver struct {
	ids []string
	err error
}

func (m mockResolver) FindPlanIDsByPrefix(_ context.Context, prefix string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []string
	for _, id := range m.ids {
		if strings.HasPrefix(id, prefix) {
			out = append(out, id)
		}
	}
	return out, nil
}

func TestResolvePlanID(t *testing.T) {
	resolver := mockResolver{ids: []string{"plan-abc11111", "plan-abc22222", "plan-def33333"}}
	ctx := context.Background()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"full id", "plan-def33333", "plan-def33333", nil},
		{"unique prefix without plan-", "def", "plan-def33333", nil},
		{"unique prefix with plan-", "plan-abc1", "plan-abc11111", nil},
		{"ambiguous", "abc", "", ErrAmbiguousID},
		{"not found", "zzz", "", ErrNotFound},
		{"empty", "  ", "", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePlanID(ctx, resolver, tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolvePlanID_ResolverError(t *testing.T) {
	boom := errors.New("db closed")
	_, err := ResolvePlanID(context.Background(), mockResolver{err: boom}, "abc")
	if !errors.Is(err, boom) {
		t.Fatalf("expected resolver error to propagate, got %v", err)
	}
}
