package selection

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"dialdesk_backend/internal/leads"
)

func mkLead(title string, surplus bool, created time.Time) leads.Lead {
	l := leads.Lead{
		ID:                  uuid.New(),
		Phone:               "+12025550123",
		HasSurplusMachinery: surplus,
		CreatedAt:           created,
	}
	if title != "" {
		l.JobTitle = &title
	}
	return l
}

func TestPolicyMatches(t *testing.T) {
	policy := Policy{
		PriorityTitles:   []string{"owner", "CEO"},
		SurplusMachinery: true,
	}

	if !policy.Matches(mkLead("Owner", false, time.Now())) {
		t.Error("title match should be case insensitive")
	}
	if !policy.Matches(mkLead("", true, time.Now())) {
		t.Error("surplus machinery should match")
	}
	if policy.Matches(mkLead("Intern", false, time.Now())) {
		t.Error("non-priority lead should not match")
	}
}

func TestRankPriorityFirstThenNewest(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	oldPriority := mkLead("owner", false, base)
	newPlain := mkLead("intern", false, base.Add(2*time.Hour))
	newPriority := mkLead("ceo", false, base.Add(time.Hour))

	policy := Policy{PriorityTitles: []string{"owner", "ceo"}}
	ranked := Rank([]leads.Lead{newPlain, oldPriority, newPriority}, policy)

	want := []uuid.UUID{newPriority.ID, oldPriority.ID, newPlain.ID}
	for i, id := range want {
		if ranked[i].ID != id {
			t.Fatalf("position %d: got %s, want %s", i, ranked[i].ID, id)
		}
	}
}

func TestRankDoesNotModifyInput(t *testing.T) {
	base := time.Now()
	input := []leads.Lead{
		mkLead("intern", false, base),
		mkLead("owner", false, base.Add(-time.Hour)),
	}
	first := input[0].ID

	Rank(input, Policy{PriorityTitles: []string{"owner"}})

	if input[0].ID != first {
		t.Error("Rank reordered its input slice")
	}
}

func TestRankDeterministicTiebreak(t *testing.T) {
	base := time.Now()
	a := mkLead("", false, base)
	b := mkLead("", false, base)

	r1 := Rank([]leads.Lead{a, b}, Policy{})
	r2 := Rank([]leads.Lead{b, a}, Policy{})

	if r1[0].ID != r2[0].ID {
		t.Error("equal-time leads should rank identically regardless of input order")
	}
}

type fakeSource struct {
	leads []leads.Lead
}

func (f *fakeSource) ListUncontacted(_ context.Context, limit int) ([]leads.Lead, error) {
	if len(f.leads) > limit {
		return f.leads[:limit], nil
	}
	return f.leads, nil
}

func TestSelectEligibleAppliesJobPolicy(t *testing.T) {
	base := time.Now()
	priority := mkLead("owner", false, base.Add(-time.Hour))
	newer := mkLead("intern", false, base)

	selector := NewSelector(&fakeSource{leads: []leads.Lead{newer, priority}})
	got, err := selector.SelectEligible(context.Background(), "ScheduledCalls", base)
	if err != nil {
		t.Fatalf("SelectEligible: %v", err)
	}

	if len(got) != 2 || got[0].ID != priority.ID {
		t.Fatalf("expected the priority lead first, got %+v", got)
	}
}
