package httputil

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// ParsePathString extracts a string path parameter
func ParsePathString(r *http.Request, key string) (string, error) {
	vars := mux.Vars(r)
	str := vars[key]
	if str == "" {
		return "", fmt.Errorf("missing path parameter: %s", key)
	}
	return str, nil
}

// FormValue returns the trimmed form field. Passwords should be read with
// r.PostFormValue directly so surrounding spaces are kept.
func FormValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.PostFormValue(key))
}
