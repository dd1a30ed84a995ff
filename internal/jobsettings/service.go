package jobsettings

import (
	"context"
	"errors"
	"time"

	"dialdesk_backend/internal/jobsettings/transport"
	"dialdesk_backend/platform/apperr"
)

// ErrInvalidTimeWindow is returned when an update would leave the daily
// window with an end time at or before its start time.
var ErrInvalidTimeWindow = errors.New("invalid time window")

// Store defines the data access interface needed by the service.
type Store interface {
	GetByName(ctx context.Context, name string) (Setting, error)
	Upsert(ctx context.Context, params UpsertParams) (Setting, error)
}

// Service exposes job settings in the operator's display time domain and
// owns the display/storage conversion boundary.
type Service struct {
	store  Store
	offset time.Duration
}

// New creates a new job settings service. offset is the fixed duration the
// storage domain sits ahead of the display domain.
func New(store Store, offset time.Duration) *Service {
	return &Service{store: store, offset: offset}
}

// Get returns a job setting with times converted to the display domain.
func (s *Service) Get(ctx context.Context, name string) (transport.SettingResponse, error) {
	setting, err := s.store.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return transport.SettingResponse{}, apperr.NotFound("job setting not found")
		}
		return transport.SettingResponse{}, err
	}
	return s.toResponse(setting), nil
}

// Upsert applies a partial update to a job setting. Absent fields keep their
// current value (or the zero-value defaults for a brand new job). Times are
// accepted in the display domain and validated there before conversion.
func (s *Service) Upsert(ctx context.Context, name string, req transport.UpdateSettingRequest) (transport.SettingResponse, error) {
	current, err := s.store.GetByName(ctx, name)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return transport.SettingResponse{}, err
	}

	params := UpsertParams{
		Name:         name,
		IsEnabled:    current.IsEnabled,
		StartMinutes: current.StartMinutes,
		EndMinutes:   current.EndMinutes,
		Weekdays:     current.Weekdays,
		SelectedDays: max(current.SelectedDays, 1),
		CallLimit:    current.CallLimit,
	}

	if req.IsEnabled != nil {
		params.IsEnabled = *req.IsEnabled
	}
	if req.SelectedDays != nil {
		params.SelectedDays = *req.SelectedDays
	}
	if req.CallLimit != nil {
		params.CallLimit = *req.CallLimit
	}
	if req.Weekdays != nil {
		weekdays := make([]int16, 0, len(*req.Weekdays))
		for _, wd := range *req.Weekdays {
			weekdays = append(weekdays, int16(wd))
		}
		params.Weekdays = weekdays
	}

	// Resolve the requested window in display minutes before converting.
	displayStart := StorageToDisplay(params.StartMinutes, s.offset)
	var displayEnd *int
	if params.EndMinutes != nil {
		converted := StorageToDisplay(*params.EndMinutes, s.offset)
		displayEnd = &converted
	}

	if req.StartTime != nil {
		parsed, err := ParseClock(*req.StartTime)
		if err != nil {
			return transport.SettingResponse{}, apperr.Validation(err.Error())
		}
		displayStart = parsed
	}
	if req.EndTime != nil {
		if *req.EndTime == "" {
			displayEnd = nil
		} else {
			parsed, err := ParseClock(*req.EndTime)
			if err != nil {
				return transport.SettingResponse{}, apperr.Validation(err.Error())
			}
			displayEnd = &parsed
		}
	}

	if displayEnd != nil && *displayEnd <= displayStart {
		return transport.SettingResponse{}, apperr.Wrap(apperr.KindValidation,
			"end time must be later than start time", ErrInvalidTimeWindow)
	}

	params.StartMinutes = DisplayToStorage(displayStart, s.offset)
	if displayEnd != nil {
		converted := DisplayToStorage(*displayEnd, s.offset)
		params.EndMinutes = &converted
	} else {
		params.EndMinutes = nil
	}

	updated, err := s.store.Upsert(ctx, params)
	if err != nil {
		return transport.SettingResponse{}, err
	}
	return s.toResponse(updated), nil
}

func (s *Service) toResponse(setting Setting) transport.SettingResponse {
	resp := transport.SettingResponse{
		Name:         setting.Name,
		IsEnabled:    setting.IsEnabled,
		StartTime:    FormatClock(StorageToDisplay(setting.StartMinutes, s.offset)),
		SelectedDays: setting.SelectedDays,
		CallLimit:    setting.CallLimit,
		UpdatedAt:    setting.UpdatedAt.UTC().Format(time.RFC3339),
	}
	for _, wd := range setting.Weekdays {
		resp.Weekdays = append(resp.Weekdays, int(wd))
	}
	if setting.EndMinutes != nil {
		formatted := FormatClock(StorageToDisplay(*setting.EndMinutes, s.offset))
		resp.EndTime = &formatted
	}
	return resp
}

// WindowOpen reports whether asOf falls inside the job's daily call window
// and on an eligible weekday. asOf is an absolute instant. The comparison
// runs in the display domain, where validation guarantees start < end: a
// stored window whose end wrapped past storage midnight (any display window
// ending within offset of midnight) is contiguous again there.
func WindowOpen(s Setting, asOf time.Time, offset time.Duration) bool {
	if !WeekdayEligible(s.Weekdays, asOf, offset) {
		return false
	}
	displayNow := StorageToDisplay(MinutesOfDay(asOf), offset)
	displayStart := StorageToDisplay(s.StartMinutes, offset)
	var displayEnd *int
	if s.EndMinutes != nil {
		converted := StorageToDisplay(*s.EndMinutes, offset)
		displayEnd = &converted
	}
	return WindowContains(displayStart, displayEnd, displayNow)
}
