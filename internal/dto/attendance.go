package dto

// SetStatusRequest records the status of one occurrence. Scheduled occurrences
// are addressed by template and date, extra classes by their id.
type SetStatusRequest struct {
	Kind       string `json:"kind" validate:"required,oneof=scheduled extra"`
	TemplateID string `json:"template_id" validate:"required_if=Kind scheduled"`
	Date       string `json:"date" validate:"required_if=Kind scheduled"`
	ExtraID    string `json:"extra_id" validate:"required_if=Kind extra"`
	Status     string `json:"status" validate:"required,attendance_status"`
}

// ClassesHeldQuery bounds a classes-held count. Empty bounds default in the service.
type ClassesHeldQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}
