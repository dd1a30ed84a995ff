// Package selection decides which leads a job may call and in what order.
// Ranking is pure with respect to its inputs so policy changes stay testable
// without a database or a clock.
package selection

import (
	"context"
	"sort"
	"strings"
	"time"

	"dialdesk_backend/internal/leads"
)

// Policy is a job's priority predicate. Leads matching the predicate are
// ranked ahead of the rest; within each band newest leads come first.
type Policy struct {
	PriorityTitles     []string
	PriorityIndustries []string
	SurplusMachinery   bool
}

// Matches reports whether a lead satisfies the priority predicate.
func (p Policy) Matches(lead leads.Lead) bool {
	if p.SurplusMachinery && lead.HasSurplusMachinery {
		return true
	}
	if lead.JobTitle != nil && containsFold(p.PriorityTitles, *lead.JobTitle) {
		return true
	}
	if lead.Industry != nil && containsFold(p.PriorityIndustries, *lead.Industry) {
		return true
	}
	return false
}

func containsFold(set []string, value string) bool {
	for _, s := range set {
		if strings.EqualFold(s, value) {
			return true
		}
	}
	return false
}

// Rank orders leads for dialing: priority leads first, then by creation time
// descending, ties broken by lead id for determinism. The input slice is not
// modified.
func Rank(pool []leads.Lead, policy Policy) []leads.Lead {
	ranked := append([]leads.Lead(nil), pool...)
	sort.SliceStable(ranked, func(i, j int) bool {
		pi, pj := policy.Matches(ranked[i]), policy.Matches(ranked[j])
		if pi != pj {
			return pi
		}
		if !ranked[i].CreatedAt.Equal(ranked[j].CreatedAt) {
			return ranked[i].CreatedAt.After(ranked[j].CreatedAt)
		}
		return ranked[i].ID.String() < ranked[j].ID.String()
	})
	return ranked
}

// jobPolicies maps job names to their priority predicates. Jobs without an
// entry call every uncontacted lead in plain newest-first order.
var jobPolicies = map[string]Policy{
	"ScheduledCalls": {
		PriorityTitles:   []string{"owner", "ceo", "operations manager", "plant manager"},
		SurplusMachinery: true,
	},
	"FollowUpReminders": {},
}

// PolicyForJob returns the priority policy configured for a job name.
func PolicyForJob(jobName string) Policy {
	return jobPolicies[jobName]
}

// LeadSource is the slice of the lead store the selector needs.
type LeadSource interface {
	ListUncontacted(ctx context.Context, limit int) ([]leads.Lead, error)
}

// poolFetchLimit bounds how many candidates one tick considers; daily call
// caps are far below this.
const poolFetchLimit = 500

// Selector produces the ordered set of leads eligible for a job's calls.
type Selector struct {
	source LeadSource
}

// NewSelector creates a selector over the given lead source.
func NewSelector(source LeadSource) *Selector {
	return &Selector{source: source}
}

// SelectEligible returns the leads eligible for the job as of the given
// instant, best candidates first. asOf is accepted rather than read from the
// clock so selection stays deterministic under test; the current eligibility
// rules do not depend on it beyond being fixed for the whole tick.
func (s *Selector) SelectEligible(ctx context.Context, jobName string, asOf time.Time) ([]leads.Lead, error) {
	_ = asOf
	pool, err := s.source.ListUncontacted(ctx, poolFetchLimit)
	if err != nil {
		return nil, err
	}
	return Rank(pool, PolicyForJob(jobName)), nil
}
