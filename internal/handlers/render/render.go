package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

const (
	ValidationErrorType = "validation_failed"
	DecodingErrorType   = "decoding_failed"
	ServiceErrorType    = "service_error"
)

const defaultValidationMessage = "Request validation failed"

var validate = validator.New()

func init() {
	configureValidator(validate)
}

type Struct any

// Request types may implement it to replace the generic validation message with their own
type validationMessager interface {
	ValidationMessage(errs validator.ValidationErrors) string
}

// Error body of every endpoint: human readable message first, machine readable code next
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

func JSON(w http.ResponseWriter, data any) {
	jsonWithStatus(w, data, http.StatusOK)
}

func JSONWithStatus(w http.ResponseWriter, data any, code int) {
	jsonWithStatus(w, data, code)
}

// Render ServiceError
func ServiceError(w http.ResponseWriter, message string, code int) {
	response := ErrorResponse{
		Error: message,
		Code:  ServiceErrorType,
	}

	jsonWithStatus(w, response, code)
}

// Render json DecodeError
func DecodeError(w http.ResponseWriter, err error) {
	response := ErrorResponse{
		Code: DecodingErrorType,
	}

	// Try to provide more specific error message based on error type
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		response.Error = fmt.Sprintf("Invalid data type for field '%s'", typeErr.Field)
	default:
		response.Error = fmt.Sprintf("Failed to parse JSON: %s", err.Error())
	}

	jsonWithStatus(w, response, http.StatusBadRequest)
}

// Render ValidationErrors. Empty message means the generic one
func ValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors, message string) {
	if message == "" {
		message = defaultValidationMessage
	}

	response := ErrorResponse{
		Error:  message,
		Code:   ValidationErrorType,
		Fields: make(map[string]string, len(errs)),
	}

	// Create user-friendly error messages based on validation tag
	for _, fieldError := range errs {
		var message string
		switch fieldError.Tag() {
		case "required":
			message = "This field is required"
		case "min":
			message = fmt.Sprintf("Value is too short (minimum %s)", fieldError.Param())
		case "max":
			message = fmt.Sprintf("Value is too long (maximum %s)", fieldError.Param())
		case "email":
			message = "Invalid email format"
		case "hextoken":
			message = "Invalid token format"
		case "phone":
			message = "Invalid phone number format"
		case "eqfield":
			message = fmt.Sprintf("Value must match %s", fieldError.Param())
		case "oneof":
			message = fmt.Sprintf("Value must be one of: %s", fieldError.Param())
		default:
			message = "Invalid value"
		}

		response.Fields[fieldError.Field()] = message
	}

	jsonWithStatus(w, response, http.StatusBadRequest)
}

// BindAndValidate decodes JSON request body into type T and validates it using struct tags.
// Returns the decoded value and writes appropriate error responses for decoding or validation failures.
func BindAndValidate[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	err := json.NewDecoder(r.Body).Decode(&value)
	if err != nil {
		DecodeError(w, err)
		return value, err
	}

	return value, Validate(w, value)
}

// Validate checks value by its struct tags and writes validation error response if it fails
func Validate[T Struct](w http.ResponseWriter, value T) error {
	err := validate.Struct(value)
	if err != nil {
		// pretty sure cast will be ok cause expecting T is valid struct
		errs := err.(validator.ValidationErrors)

		var message string
		if m, ok := any(value).(validationMessager); ok {
			message = m.ValidationMessage(errs)
		}
		ValidationErrors(w, errs, message)
		return err
	}

	return nil
}

// renderJSONWithStatus sends data as json and enforces status code
func jsonWithStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
