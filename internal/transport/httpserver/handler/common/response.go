package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type errorEnvelope struct {
	Error    errorBody `json:"error"`
	Warnings any       `json:"warnings,omitempty"`
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	writeError(w, status, code, message)
}

// WriteErrorWithWarnings writes the error envelope plus the persistence
// warnings gathered before the request failed.
func WriteErrorWithWarnings(w http.ResponseWriter, status int, code, message string, warnings any) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}, Warnings: warnings})
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	writeJSON(w, status, payload)
}

func DecodeJSON(r *http.Request, dst interface{}) error {
	return decodeJSON(r, dst)
}

// DecodeValid decodes the body into dst and runs its validate tags. On failure
// it writes the error response and returns false.
func DecodeValid(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := decodeJSON(r, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return false
		}
		fields := make(map[string]string, len(validationErrors))
		for _, ve := range validationErrors {
			fields[ve.Field()] = ve.Tag()
		}
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: errorBody{
			Code:    "invalid_request",
			Message: "request validation failed",
			Fields:  fields,
		}})
		return false
	}
	return true
}

func Attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
}
