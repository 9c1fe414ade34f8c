package shared

import (
	"errors"
	"net/http"

	"estatecore/internal/quota"
	"estatecore/internal/transport/http/json"
	dErrors "estatecore/pkg/domain-errors"
	httpErrors "estatecore/pkg/http-errors"
)

// ErrorResponse is the JSON error envelope every endpoint returns on failure.
type ErrorResponse struct {
	Error            string      `json:"error"`
	ErrorDescription string      `json:"error_description,omitempty"`
	Quota            *QuotaError `json:"quota,omitempty"`
}

// QuotaError carries the machine-readable quota denial detail so clients can
// render upgrade prompts without parsing the message.
type QuotaError struct {
	Plan    string `json:"plan"`
	Limit   string `json:"limit"`
	Current int    `json:"current"`
	Max     int    `json:"max"`
}

// WriteError translates transport-agnostic domain errors into HTTP responses.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if !errors.As(err, &domainErr) {
		json.WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: string(dErrors.CodeInternal),
		})
		return
	}

	response := ErrorResponse{
		Error:            string(domainErr.Code),
		ErrorDescription: domainErr.Message,
	}
	var exceeded *quota.ExceededError
	if errors.As(err, &exceeded) {
		response.Quota = &QuotaError{
			Plan:    exceeded.Plan,
			Limit:   exceeded.Limit,
			Current: exceeded.Current,
			Max:     exceeded.Max,
		}
	}
	json.WriteJSON(w, httpErrors.ToHTTPStatus(domainErr.Code), response)
}
