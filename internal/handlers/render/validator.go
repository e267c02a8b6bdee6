package render

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Length of tokens generated for email confirmation and password reset: 32 random bytes, hex encoded
const hexTokenLength = 64

// International number with optional single spaces between groups, e.g. +41 79 123 45 67
var phonePattern = regexp.MustCompile(`^\+\d{1,3}\s?\d{2,3}\s?\d{3}\s?\d{2}\s?\d{2}$`)

func configureValidator(validate *validator.Validate) {
	_ = validate.RegisterValidation("hextoken", validateHexToken)
	_ = validate.RegisterValidation("phone", validatePhone)
	validate.RegisterTagNameFunc(useJSONTagNames)
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

// Only lower case hex digits are accepted, exactly as tokens are generated
func validateHexToken(fl validator.FieldLevel) bool {
	token := fl.Field().String()
	if len(token) != hexTokenLength {
		return false
	}

	for i := range len(token) {
		c := token[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func validatePhone(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(fl.Field().String())
}
