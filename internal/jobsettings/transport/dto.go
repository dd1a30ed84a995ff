package transport

// UpdateSettingRequest is a partial update of a job's scheduling policy.
// Times are wall-clock "HH:MM" strings in the operator's display timezone.
// An empty endTime clears the window's end.
type UpdateSettingRequest struct {
	IsEnabled    *bool   `json:"isEnabled,omitempty"`
	StartTime    *string `json:"startTime,omitempty" validate:"omitempty,max=5"`
	EndTime      *string `json:"endTime,omitempty" validate:"omitempty,max=5"`
	Weekdays     *[]int  `json:"weekdays,omitempty" validate:"omitempty,max=7,dive,min=0,max=6"`
	SelectedDays *int    `json:"selectedDays,omitempty" validate:"omitempty,min=1,max=30"`
	CallLimit    *int    `json:"callLimit,omitempty" validate:"omitempty,min=0,max=10000"`
}

// SettingResponse represents a job setting in API responses, with times in
// the display timezone.
type SettingResponse struct {
	Name         string  `json:"name"`
	IsEnabled    bool    `json:"isEnabled"`
	StartTime    string  `json:"startTime"`
	EndTime      *string `json:"endTime,omitempty"`
	Weekdays     []int   `json:"weekdays,omitempty"`
	SelectedDays int     `json:"selectedDays"`
	CallLimit    int     `json:"callLimit"`
	UpdatedAt    string  `json:"updatedAt"`
}
