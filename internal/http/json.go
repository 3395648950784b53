package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/idnremote/idnremote-go/internal/errors"
	"github.com/idnremote/idnremote-go/internal/observability/notify"
)

// DecodeJSON decodes JSON from the request body into the destination and handles errors.
// Returns true if successful, false if there was an error (error response already written).
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		t := notify.Error("Invalid request", "The submitted data could not be read.")
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_json",
			Err:     err,
			Toast:   &t,
		})
		return false
	}

	return true
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
	// Toast is shown to the user when set.
	Toast *notify.Toast
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string        `json:"error"`
	Message string        `json:"message"`
	Field   string        `json:"field,omitempty"`
	Toast   *notify.Toast `json:"toast,omitempty"`
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	body := errorBody{Error: p.ErrCode, Toast: p.Toast}
	if p.Err != nil {
		body.Message = p.Err.Error()
		body.Field = apperrors.GetField(p.Err)
	}
	WriteJSON(w, p.Code, body)
}

// WriteActionError answers a failed user action with the status its error maps to and
// an error toast titled title.
func WriteActionError(w http.ResponseWriter, title string, err error) {
	code := StatusFor(err)
	t := notify.Error(title, userMessage(err))
	WriteError(w, ErrorParams{Code: code, ErrCode: errorCode(err), Err: err, Toast: &t})
}

// StatusFor maps an error to an HTTP status.
func StatusFor(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest
	case apperrors.ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeTransport, apperrors.ErrCodeEnvelope, apperrors.ErrCodeProvider:
		return http.StatusBadGateway
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrCodeCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(err error) string {
	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}
	return string(apperrors.ErrCodeInternal)
}

// userMessage is the toast text for err. Only validation and sign-in messages are shown
// verbatim; everything else gets a generic line.
func userMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case apperrors.ErrCodeValidation, apperrors.ErrCodeUnauthenticated:
			return appErr.Message
		case apperrors.ErrCodeTransport, apperrors.ErrCodeEnvelope:
			return "The job service is unavailable. Please try again."
		case apperrors.ErrCodeProvider:
			return "Sign-in service error. Please try again."
		}
	}
	return "Something went wrong. Please try again."
}
