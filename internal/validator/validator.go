// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var familyCodeRegex = regexp.MustCompile(`^[A-Z0-9]{6}$`)

var pinRegex = regexp.MustCompile(`^[0-9]{4,8}$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("chore_status", validateChoreStatus)
		_ = v.RegisterValidation("chore_priority", validateChorePriority)
		_ = v.RegisterValidation("transaction_type", validateTransactionType)
		_ = v.RegisterValidation("weekday_set", validateWeekdaySet)
		_ = v.RegisterValidation("family_code", validateFamilyCode)
		_ = v.RegisterValidation("pin", validatePIN)
	}
}

func validateChoreStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "pending", "submitted", "completed", "archived":
		return true
	}
	return false
}

func validateChorePriority(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "low", "medium", "high":
		return true
	}
	return false
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "chore_completion", "manual_adjustment", "store_purchase", "coins_conversion":
		return true
	}
	return false
}

// validateWeekdaySet accepts a slice of weekday indices 0 (Monday)
// through 6 (Sunday).
func validateWeekdaySet(fl validator.FieldLevel) bool {
	days, ok := fl.Field().Interface().([]int)
	if !ok {
		return false
	}
	for _, d := range days {
		if d < 0 || d > 6 {
			return false
		}
	}
	return true
}

func validateFamilyCode(fl validator.FieldLevel) bool {
	return familyCodeRegex.MatchString(fl.Field().String())
}

func validatePIN(fl validator.FieldLevel) bool {
	return pinRegex.MatchString(fl.Field().String())
}
