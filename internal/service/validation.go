package service

import (
	"reflect"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/attendance-tracker/internal/models"
)

// registerValidations installs the custom tags used by request payloads.
// Registering twice on the same validator is harmless.
func registerValidations(v *validator.Validate) *validator.Validate {
	if v == nil {
		v = validator.New()
	}
	_ = v.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		_, err := models.ParseAttendanceStatus(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		switch field.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return models.Weekday(field.Int()).Valid()
		default:
			return false
		}
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := models.ParseClockTime(fl.Field().String())
		return err == nil
	})
	return v
}
