package genai

import (
	"errors"
	"net/http"
	"strings"

	sdk "google.golang.org/genai"
)

// IsEntitlementError reports whether err means the API key is unusable for
// the model, so the selected key should be dropped and the user asked again.
func IsEntitlementError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr sdk.APIError
	if errors.As(err, &apiErr) && entitlementCode(apiErr.Code) {
		return true
	}
	var apiErrPtr *sdk.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil && entitlementCode(apiErrPtr.Code) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Requested entity was not found") ||
		strings.Contains(msg, "401") ||
		strings.Contains(msg, "403")
}

func entitlementCode(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden || code == http.StatusNotFound
}
