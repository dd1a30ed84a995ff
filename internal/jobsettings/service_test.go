package jobsettings

import (
	"context"
	"errors"
	"testing"
	"time"

	"dialdesk_backend/internal/jobsettings/transport"
	"dialdesk_backend/platform/apperr"
)

type fakeStore struct {
	settings map[string]Setting
	upserted *UpsertParams
}

func newFakeStore() *fakeStore {
	return &fakeStore{settings: map[string]Setting{}}
}

func (f *fakeStore) GetByName(_ context.Context, name string) (Setting, error) {
	s, ok := f.settings[name]
	if !ok {
		return Setting{}, ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) Upsert(_ context.Context, params UpsertParams) (Setting, error) {
	f.upserted = &params
	s := Setting{
		Name:         params.Name,
		IsEnabled:    params.IsEnabled,
		StartMinutes: params.StartMinutes,
		EndMinutes:   params.EndMinutes,
		Weekdays:     params.Weekdays,
		SelectedDays: params.SelectedDays,
		CallLimit:    params.CallLimit,
		UpdatedAt:    time.Now(),
	}
	f.settings[params.Name] = s
	return s, nil
}

const testOffset = 240 * time.Minute

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func intPtr(i int) *int       { return &i }

func TestUpsertConvertsToStorageDomain(t *testing.T) {
	store := newFakeStore()
	svc := New(store, testOffset)

	resp, err := svc.Upsert(context.Background(), "ScheduledCalls", transport.UpdateSettingRequest{
		IsEnabled: boolPtr(true),
		StartTime: strPtr("09:00"),
		EndTime:   strPtr("17:00"),
		CallLimit: intPtr(25),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if store.upserted.StartMinutes != 13*60 {
		t.Errorf("stored start = %d, want %d", store.upserted.StartMinutes, 13*60)
	}
	if store.upserted.EndMinutes == nil || *store.upserted.EndMinutes != 21*60 {
		t.Errorf("stored end = %v, want %d", store.upserted.EndMinutes, 21*60)
	}

	// The response converts back to the display domain.
	if resp.StartTime != "09:00" {
		t.Errorf("response start = %q, want 09:00", resp.StartTime)
	}
	if resp.EndTime == nil || *resp.EndTime != "17:00" {
		t.Errorf("response end = %v, want 17:00", resp.EndTime)
	}
}

func TestUpsertRejectsInvertedWindow(t *testing.T) {
	svc := New(newFakeStore(), testOffset)

	_, err := svc.Upsert(context.Background(), "ScheduledCalls", transport.UpdateSettingRequest{
		StartTime: strPtr("17:00"),
		EndTime:   strPtr("09:00"),
	})
	if err == nil {
		t.Fatal("expected error for end before start")
	}
	if !errors.Is(err, ErrInvalidTimeWindow) {
		t.Errorf("expected ErrInvalidTimeWindow, got %v", err)
	}
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation kind, got %v", apperr.GetKind(err))
	}
}

func TestUpsertRejectsEqualStartAndEnd(t *testing.T) {
	svc := New(newFakeStore(), testOffset)

	_, err := svc.Upsert(context.Background(), "ScheduledCalls", transport.UpdateSettingRequest{
		StartTime: strPtr("09:00"),
		EndTime:   strPtr("09:00"),
	})
	if !errors.Is(err, ErrInvalidTimeWindow) {
		t.Fatalf("expected ErrInvalidTimeWindow, got %v", err)
	}
}

func TestUpsertPartialUpdateKeepsCurrentValues(t *testing.T) {
	store := newFakeStore()
	end := 21 * 60
	store.settings["ScheduledCalls"] = Setting{
		Name:         "ScheduledCalls",
		IsEnabled:    true,
		StartMinutes: 13 * 60,
		EndMinutes:   &end,
		SelectedDays: 5,
		CallLimit:    25,
	}
	svc := New(store, testOffset)

	_, err := svc.Upsert(context.Background(), "ScheduledCalls", transport.UpdateSettingRequest{
		CallLimit: intPtr(40),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if store.upserted.CallLimit != 40 {
		t.Errorf("call limit = %d, want 40", store.upserted.CallLimit)
	}
	if !store.upserted.IsEnabled {
		t.Error("enabled flag should survive a partial update")
	}
	if store.upserted.StartMinutes != 13*60 {
		t.Errorf("start minutes changed on partial update: %d", store.upserted.StartMinutes)
	}
	if store.upserted.EndMinutes == nil || *store.upserted.EndMinutes != end {
		t.Errorf("end minutes changed on partial update: %v", store.upserted.EndMinutes)
	}
}

func TestUpsertClearsEndTime(t *testing.T) {
	store := newFakeStore()
	end := 21 * 60
	store.settings["ScheduledCalls"] = Setting{
		Name:         "ScheduledCalls",
		StartMinutes: 13 * 60,
		EndMinutes:   &end,
		SelectedDays: 1,
	}
	svc := New(store, testOffset)

	resp, err := svc.Upsert(context.Background(), "ScheduledCalls", transport.UpdateSettingRequest{
		EndTime: strPtr(""),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if store.upserted.EndMinutes != nil {
		t.Error("empty end time should clear the stored end")
	}
	if resp.EndTime != nil {
		t.Error("response should omit the cleared end time")
	}
}

func TestGetNotFound(t *testing.T) {
	svc := New(newFakeStore(), testOffset)

	_, err := svc.Get(context.Background(), "NoSuchJob")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found kind, got %v", err)
	}
}

func TestWindowOpen(t *testing.T) {
	end := 21 * 60
	setting := Setting{
		Name:         "ScheduledCalls",
		IsEnabled:    true,
		StartMinutes: 13 * 60,
		EndMinutes:   &end,
	}

	inside := time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)
	if !WindowOpen(setting, inside, testOffset) {
		t.Error("15:00 UTC should be inside a 13:00-21:00 storage window")
	}

	outside := time.Date(2026, 3, 3, 22, 0, 0, 0, time.UTC)
	if WindowOpen(setting, outside, testOffset) {
		t.Error("22:00 UTC should be outside a 13:00-21:00 storage window")
	}

	setting.Weekdays = []int16{int16(time.Saturday)}
	if WindowOpen(setting, inside, testOffset) {
		t.Error("a Tuesday should not pass a Saturday-only weekday filter")
	}
}

func TestWindowOpenWrappedStorageWindow(t *testing.T) {
	// Display window 09:00-21:00 stores as 13:00-01:00 under a 4h offset.
	end := 1 * 60
	setting := Setting{Name: "ScheduledCalls", IsEnabled: true, StartMinutes: 13 * 60, EndMinutes: &end}

	if !WindowOpen(setting, time.Date(2026, 3, 3, 18, 0, 0, 0, time.UTC), testOffset) {
		t.Error("display 14:00 should be inside a 09:00-21:00 display window")
	}
	if !WindowOpen(setting, time.Date(2026, 3, 4, 0, 30, 0, 0, time.UTC), testOffset) {
		t.Error("display 20:30 should be inside a 09:00-21:00 display window")
	}
	if WindowOpen(setting, time.Date(2026, 3, 4, 1, 30, 0, 0, time.UTC), testOffset) {
		t.Error("display 21:30 should be outside a 09:00-21:00 display window")
	}
	if WindowOpen(setting, time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC), testOffset) {
		t.Error("display 08:00 should be before the window opens")
	}

	// Over a full display day the window is open exactly twelve hours.
	dayStart := time.Date(2026, 3, 3, 4, 0, 0, 0, time.UTC) // display Mar 3 00:00
	open := 0
	for m := 0; m < minutesPerDay; m++ {
		if WindowOpen(setting, dayStart.Add(time.Duration(m)*time.Minute), testOffset) {
			open++
		}
	}
	if open != 12*60 {
		t.Errorf("window open for %d minutes of the display day, want %d", open, 12*60)
	}
}

func TestWindowOpenWrappedWindowWithoutEnd(t *testing.T) {
	// Display window from 21:00 with no end stores as 01:00; it must stay
	// open from display 21:00 until display midnight only.
	setting := Setting{Name: "ScheduledCalls", IsEnabled: true, StartMinutes: 1 * 60}

	if !WindowOpen(setting, time.Date(2026, 3, 4, 2, 0, 0, 0, time.UTC), testOffset) {
		t.Error("display 22:00 should be inside an open-ended 21:00 window")
	}
	if WindowOpen(setting, time.Date(2026, 3, 3, 18, 0, 0, 0, time.UTC), testOffset) {
		t.Error("display 14:00 should be before an open-ended 21:00 window")
	}
}
