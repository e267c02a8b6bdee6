package render

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_JSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		data := map[string]any{"key1": 1, "key2": "222"}
		JSON(w, data)
	}))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/test")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"key1":1,"key2":"222"}`+"\n", string(body))
}

func TestRender_JSONWithStatus(t *testing.T) {
	w := httptest.NewRecorder()

	JSONWithStatus(w, map[string]bool{"success": false}, http.StatusMultiStatus)

	assert.Equal(t, http.StatusMultiStatus, w.Code)
	assert.JSONEq(t, `{"success":false}`, w.Body.String())
}

func TestRender_ServiceError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		message := "something terrible happened"
		ServiceError(w, message, http.StatusForbidden)
	}))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/test")
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{
			"error": "something terrible happened",
			"code": "service_error"
		}`,
		string(body),
	)
}

func TestRender_DecodeError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		value := struct {
			Key       string `json:"key"`
			OrderName int    `json:"order_name"`
		}{}

		err := json.NewDecoder(r.Body).Decode(&value)
		require.Error(t, err, "Please check what JSON was sent. Test expected that it is invalid")
		DecodeError(w, err)
	}))
	defer ts.Close()

	tests := []struct {
		name        string
		requestBody string
		expected    string
	}{
		{
			name:        "json parsing error",
			requestBody: `invalid-json`,
			expected: `{
				"error": "Failed to parse JSON: invalid character 'i' looking for beginning of value",
				"code": "decoding_failed"
			}`,
		},
		{
			name:        "invalid type ok",
			requestBody: `{"key": "valid_json", "order_name": "but incorrect type"}`,
			expected: `{
				"error": "Invalid data type for field 'order_name'",
				"code": "decoding_failed"
			}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/test", "application/json", strings.NewReader(tc.requestBody))
			require.NoError(t, err)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer resp.Body.Close() //nolint:errcheck

			assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
			assert.JSONEq(t, tc.expected, string(body))
		})
	}
}

func TestRender_ValidationErrors(t *testing.T) {
	validate := validator.New()

	type T struct {
		Username string `validate:"required"`
		Password string `validate:"min=8"`
		Email    string `validate:"email"`
		Role     string `validate:"uuid"`
	}

	invalidData := T{
		Password: "123",
		Email:    "not-valid-email",
		Role:     "admin",
	}
	err := validate.Struct(invalidData)
	require.Error(t, err, "test expects that data not pass validation")
	errs, ok := err.(validator.ValidationErrors)
	require.True(t, ok, "be sure you pass structure to validator")

	expectedFields := map[string]string{
		"Username": "This field is required",         // Message for 'required' tag
		"Password": "Value is too short (minimum 8)", // Message for 'min' validation tag
		"Email":    "Invalid email format",
		"Role":     "Invalid value", // Unknown validation tag failed: default validation error message
	}

	t.Run("generic message", func(t *testing.T) {
		w := httptest.NewRecorder()

		ValidationErrors(w, errs, "")

		var got ErrorResponse
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, ErrorResponse{Error: "Request validation failed", Code: "validation_failed", Fields: expectedFields}, got)
	})

	t.Run("own message", func(t *testing.T) {
		w := httptest.NewRecorder()

		ValidationErrors(w, errs, "Missing required fields")

		var got ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "Missing required fields", got.Error)
	})
}

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (signup) ValidationMessage(errs validator.ValidationErrors) string {
	return "Signup is broken: " + errs[0].Field()
}

type confirmation struct {
	Token string `json:"token" validate:"required,hextoken"`
}

func TestRender_BindAndValidate(t *testing.T) {
	type User struct {
		Username string `json:"username" validate:"required"`
	}

	tests := []struct {
		name           string
		handler        func(w http.ResponseWriter, r *http.Request) error
		requestBody    string
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "valid request",
			handler: func(w http.ResponseWriter, r *http.Request) error {
				_, err := BindAndValidate[User](w, r)
				return err
			},
			requestBody:    `{"username": "john"}`,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success": true}`,
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, r *http.Request) error {
				_, err := BindAndValidate[User](w, r)
				return err
			},
			requestBody:    `invalid-json`,
			expectedStatus: http.StatusBadRequest,
			expectedBody: `{
				"error": "Failed to parse JSON: invalid character 'i' looking for beginning of value",
				"code": "decoding_failed"
			}`,
		},
		{
			name: "validation failed",
			handler: func(w http.ResponseWriter, r *http.Request) error {
				_, err := BindAndValidate[User](w, r)
				return err
			},
			requestBody:    `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody: `{
				"error": "Request validation failed",
				"code": "validation_failed",
				"fields": {
					"username": "This field is required"
				}
			}`,
		},
		{
			name: "message from request type",
			handler: func(w http.ResponseWriter, r *http.Request) error {
				_, err := BindAndValidate[signup](w, r)
				return err
			},
			requestBody:    `{"email": "jane@example.com", "password": "short"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody: `{
				"error": "Signup is broken: password",
				"code": "validation_failed",
				"fields": {
					"password": "Value is too short (minimum 8)"
				}
			}`,
		},
		{
			name: "hex token ok",
			handler: func(w http.ResponseWriter, r *http.Request) error {
				_, err := BindAndValidate[confirmation](w, r)
				return err
			},
			requestBody:    `{"token": "` + strings.Repeat("0a", 32) + `"}`,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success": true}`,
		},
		{
			name: "hex token upper case",
			handler: func(w http.ResponseWriter, r *http.Request) error {
				_, err := BindAndValidate[confirmation](w, r)
				return err
			},
			requestBody:    `{"token": "` + strings.Repeat("0A", 32) + `"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody: `{
				"error": "Request validation failed",
				"code": "validation_failed",
				"fields": {
					"token": "Invalid token format"
				}
			}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := tc.handler(w, r); err != nil {
					return // Error response already written
				}
				// Success case
				JSON(w, map[string]bool{"success": true})
			}))
			defer ts.Close()

			resp, err := http.Post(ts.URL+"/test", "application/json", strings.NewReader(tc.requestBody))
			require.NoError(t, err)
			require.Equal(t, tc.expectedStatus, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer resp.Body.Close() //nolint:errcheck

			assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
			assert.JSONEq(t, tc.expectedBody, string(body))
		})
	}
}

func TestValidateHexToken(t *testing.T) {
	type T struct {
		Token string `validate:"hextoken"`
	}
	v := validator.New()
	configureValidator(v)

	tests := []struct {
		token string
		valid bool
	}{
		{strings.Repeat("ab", 32), true},
		{strings.Repeat("09", 32), true},
		{strings.Repeat("ab", 31), false},
		{strings.Repeat("ab", 33), false},
		{strings.Repeat("g0", 32), false},
		{"", false},
	}

	for _, tt := range tests {
		err := v.Struct(T{Token: tt.token})
		assert.Equal(t, tt.valid, err == nil, "token %q", tt.token)
	}
}

func TestValidatePhone(t *testing.T) {
	type T struct {
		Phone string `validate:"omitempty,phone"`
	}
	v := validator.New()
	configureValidator(v)

	tests := []struct {
		phone string
		valid bool
	}{
		{"+41 79 123 45 67", true},
		{"+41791234567", true},
		{"+1 555 123 45 67", true},
		{"", true},
		{"079 123 45 67", false},
		{"+41  79 123 45 67", false},
		{"call me", false},
	}

	for _, tt := range tests {
		err := v.Struct(T{Phone: tt.phone})
		assert.Equal(t, tt.valid, err == nil, "phone %q", tt.phone)
	}
}
