package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// TimeRangePattern matches a half-open HH:MM-HH:MM slot range on a
// 24-hour clock. Format only; ordering of the two ends is checked by
// the schedule validation layer.
var TimeRangePattern = regexp.MustCompile(`^\d{2}:\d{2}-\d{2}:\d{2}$`)

// IsTimeRange reports whether s is a well-formed slot range.
func IsTimeRange(s string) bool {
	return TimeRangePattern.MatchString(s)
}

// RegisterCustomValidations installs domain validation rules on gin's
// binding validator. Call once at startup.
func RegisterCustomValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("timerange", func(fl validator.FieldLevel) bool {
		return IsTimeRange(fl.Field().String())
	})
}
