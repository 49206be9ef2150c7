package response

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope every API endpoint answers with.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

// used when a handler passes an empty message
var defaultMessages = map[int]string{
	http.StatusBadRequest:            "Bad request",
	http.StatusUnauthorized:          "Unauthorized",
	http.StatusForbidden:             "Forbidden",
	http.StatusNotFound:              "Resource not found",
	http.StatusConflict:              "Conflict",
	http.StatusRequestEntityTooLarge: "Request entity too large",
	http.StatusInternalServerError:   "Internal server error",
	http.StatusBadGateway:            "Upstream service failed",
	http.StatusGatewayTimeout:        "Upstream service timed out",
}

func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func Success(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	JSON(w, statusCode, Response{Success: true, Message: message, Data: data})
}

// Error writes a failure envelope. An empty message falls back to the
// default for statusCode, then to the standard status text.
func Error(w http.ResponseWriter, statusCode int, message string, err interface{}) {
	if message == "" {
		message = defaultMessages[statusCode]
	}
	if message == "" {
		message = http.StatusText(statusCode)
	}
	JSON(w, statusCode, Response{Success: false, Message: message, Error: err})
}

// ValidationError answers 400 with a field -> message map.
func ValidationError(w http.ResponseWriter, fields interface{}) {
	Error(w, http.StatusBadRequest, "Validation failed", fields)
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message, nil)
}

func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, message, nil)
}

func Forbidden(w http.ResponseWriter, message string) {
	Error(w, http.StatusForbidden, message, nil)
}

func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message, nil)
}

func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, message, nil)
}

func RequestTooLarge(w http.ResponseWriter, message string) {
	Error(w, http.StatusRequestEntityTooLarge, message, nil)
}

func InternalServerError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, message, nil)
}

// BadGateway reports a failed call to inference or storage.
func BadGateway(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadGateway, message, nil)
}

func GatewayTimeout(w http.ResponseWriter, message string) {
	Error(w, http.StatusGatewayTimeout, message, nil)
}
