package httperror

import (
	"fmt"
	"net/http"
)

// APIError is returned by the client when the server responds with a
// non-2xx status and the body isn't one of our structured errors,
// e.g., when there's a proxy in between.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (err *APIError) Error() string {
	return fmt.Sprintf("%s (%s)", err.Status, err.Body)
}

// IsUnavailable says whether the service could not be reached.
func (err *APIError) IsUnavailable() bool {
	switch err.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// IsMissing says whether the endpoint doesn't exist; usually a sign
// that the client and service are different versions.
func (err *APIError) IsMissing() bool {
	return err.StatusCode == http.StatusNotFound
}
