// Package apierror defines the JSON bodies of every 4xx/5xx response.
// Internal details (SQL errors, panics) never reach these types; handlers
// log them and answer with Internal.
package apierror

// MsgInternal is the only text a client sees for a 500.
const MsgInternal = "Error interno del servidor"

// APIError is the envelope for all non-validation errors. RequestID is set on
// 500s so a cashier can quote it when reporting the failure.
type APIError struct {
	Detail    string `json:"detail"`
	RequestID string `json:"request_id,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Internal answers a failure whose cause was logged under requestID.
func Internal(requestID string) *APIError {
	return &APIError{Detail: MsgInternal, RequestID: requestID}
}

// ValidationError maps each offending field to the rule it broke.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(detail string, fields map[string]string) *ValidationError {
	if detail == "" {
		detail = "Error de validación"
	}
	return &ValidationError{Detail: detail, Fields: fields}
}
