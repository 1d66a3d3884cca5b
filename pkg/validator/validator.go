package validator

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validate = v
		// Custom validations and translations register here when needed
	}
}

// GetErrorMsg translates validation errors into user-friendly messages
func GetErrorMsg(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var errMsgs []string
		for _, e := range validationErrors {
			field := e.Field()
			tag := e.Tag()
			param := e.Param()

			switch tag {
			case "required":
				errMsgs = append(errMsgs, fmt.Sprintf("%s is required", field))
			case "email":
				errMsgs = append(errMsgs, fmt.Sprintf("%s must be a valid email address", field))
			case "url":
				errMsgs = append(errMsgs, fmt.Sprintf("%s must be a valid URL", field))
			case "min":
				errMsgs = append(errMsgs, fmt.Sprintf("%s must be at least %s", field, param))
			case "max":
				errMsgs = append(errMsgs, fmt.Sprintf("%s must be at most %s", field, param))
			default:
				errMsgs = append(errMsgs, fmt.Sprintf("%s failed validation (%s)", field, tag))
			}
		}
		return strings.Join(errMsgs, "; ")
	}
	return "invalid request parameters"
}
