package utils

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidateNotBlank 字符串去掉空白后不能为空
func ValidateNotBlank(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return strings.TrimSpace(s) != ""
}
