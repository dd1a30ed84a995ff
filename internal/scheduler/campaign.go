package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"dialdesk_backend/platform/logger"

	"dialdesk_backend/internal/callhistory"
	"dialdesk_backend/internal/dialer"
	"dialdesk_backend/internal/jobsettings"
	"dialdesk_backend/internal/leads"
)

// SettingStore is the slice of the job settings store the campaign needs.
type SettingStore interface {
	GetByName(ctx context.Context, name string) (jobsettings.Setting, error)
	ListEnabled(ctx context.Context) ([]jobsettings.Setting, error)
}

// LeadSelector yields the ordered eligible leads for a job.
type LeadSelector interface {
	SelectEligible(ctx context.Context, jobName string, asOf time.Time) ([]leads.Lead, error)
}

// CallDispatcher places one outbound call.
type CallDispatcher interface {
	PlaceCall(ctx context.Context, params dialer.PlaceCallParams) (callhistory.CallRecord, error)
}

// CallCounter counts committed call attempts for the daily cap.
type CallCounter interface {
	CountForNumberBetween(ctx context.Context, fromNumber string, from, to time.Time) (int, error)
}

// TickResult summarizes one job's tick.
type TickResult struct {
	JobName    string   `json:"jobName"`
	Dispatched int      `json:"dispatched"`
	Skipped    bool     `json:"skipped"`
	Reason     string   `json:"reason,omitempty"`
	Errors     []string `json:"errors,omitempty"`
}

// Campaign is the dispatch policy engine. One tick per job runs at a time;
// the per-job lock plus counting the cap from committed call rows keeps
// concurrent ticks from overshooting the daily limit.
type Campaign struct {
	settings   SettingStore
	selector   LeadSelector
	dispatcher CallDispatcher
	counter    CallCounter
	logger     *logger.Logger

	offset     time.Duration
	fromNumber string

	mu       sync.Mutex
	jobLocks map[string]*sync.Mutex
}

// NewCampaign creates the campaign engine.
func NewCampaign(settings SettingStore, selector LeadSelector, dispatcher CallDispatcher,
	counter CallCounter, log *logger.Logger, offset time.Duration, fromNumber string) *Campaign {
	return &Campaign{
		settings:   settings,
		selector:   selector,
		dispatcher: dispatcher,
		counter:    counter,
		logger:     log,
		offset:     offset,
		fromNumber: fromNumber,
		jobLocks:   map[string]*sync.Mutex{},
	}
}

func (c *Campaign) lockFor(jobName string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.jobLocks[jobName]
	if !ok {
		lock = &sync.Mutex{}
		c.jobLocks[jobName] = lock
	}
	return lock
}

// RunTick runs one job's dispatch cycle as of now. force bypasses the time
// window check for manual run-now requests; the enabled flag and the daily
// cap still apply. Per-lead dispatch failures are collected, not fatal.
func (c *Campaign) RunTick(ctx context.Context, jobName string, now time.Time, force bool) (TickResult, error) {
	lock := c.lockFor(jobName)
	lock.Lock()
	defer lock.Unlock()

	result := TickResult{JobName: jobName}
	log := c.logger.WithJob(jobName)

	setting, err := c.settings.GetByName(ctx, jobName)
	if errors.Is(err, jobsettings.ErrNotFound) {
		result.Skipped = true
		result.Reason = "job not configured"
		return result, nil
	}
	if err != nil {
		return result, err
	}

	if !setting.IsEnabled {
		result.Skipped = true
		result.Reason = "job disabled"
		return result, nil
	}

	if !force && !jobsettings.WindowOpen(setting, now, c.offset) {
		result.Skipped = true
		result.Reason = "outside call window"
		return result, nil
	}

	dayStart, dayEnd := jobsettings.DisplayDayBounds(now, c.offset)
	used, err := c.counter.CountForNumberBetween(ctx, c.fromNumber, dayStart, dayEnd)
	if err != nil {
		return result, err
	}

	remaining := setting.CallLimit - used
	if remaining <= 0 {
		result.Skipped = true
		result.Reason = "daily call limit reached"
		return result, nil
	}

	eligible, err := c.selector.SelectEligible(ctx, jobName, now)
	if err != nil {
		return result, err
	}
	if len(eligible) > remaining {
		eligible = eligible[:remaining]
	}

	for _, lead := range eligible {
		leadID := lead.ID
		_, err := c.dispatcher.PlaceCall(ctx, dialer.PlaceCallParams{
			LeadID:   &leadID,
			ToNumber: lead.Phone,
			JobName:  jobName,
		})
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Dispatched++
	}

	log.Info("campaign tick complete",
		"dispatched", result.Dispatched,
		"cap_used", used,
		"errors", len(result.Errors),
	)
	return result, nil
}

// RunAll ticks every enabled job concurrently.
func (c *Campaign) RunAll(ctx context.Context, now time.Time) ([]TickResult, error) {
	settings, err := c.settings.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]TickResult, len(settings))
	g, gctx := errgroup.WithContext(ctx)
	for i, setting := range settings {
		g.Go(func() error {
			res, err := c.RunTick(gctx, setting.Name, now, false)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
