package dto

// SlotRequest describes one weekly schedule slot of a course.
type SlotRequest struct {
	Weekday   *int   `json:"weekday" validate:"required,weekday"`
	StartTime string `json:"start_time" validate:"required,clock"`
	EndTime   string `json:"end_time" validate:"required,clock"`
}

// CreateCourseRequest creates a course together with its weekly slots.
type CreateCourseRequest struct {
	Name               string        `json:"name" validate:"required,max=120"`
	RequiredPercentage float64       `json:"required_percentage" validate:"gt=0,lte=100"`
	Slots              []SlotRequest `json:"slots" validate:"omitempty,dive"`
}

// UpdateCourseRequest edits the mutable fields of a course. Nil fields are left untouched.
type UpdateCourseRequest struct {
	Name               *string  `json:"name" validate:"omitempty,min=1,max=120"`
	RequiredPercentage *float64 `json:"required_percentage" validate:"omitempty,gt=0,lte=100"`
}

// SetTemplateActiveRequest toggles whether a slot is part of the weekly schedule.
type SetTemplateActiveRequest struct {
	Active *bool `json:"included_in_schedule" validate:"required"`
}

// ExtraClassRequest adds a one-off session to a course.
type ExtraClassRequest struct {
	Date      string `json:"date" validate:"required"`
	StartTime string `json:"start_time" validate:"required,clock"`
	EndTime   string `json:"end_time" validate:"required,clock"`
}
