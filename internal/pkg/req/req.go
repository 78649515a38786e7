/*
Package req provides helper functions for HTTP request parsing and data binding.

It encapsulates the logic for parsing JSON bodies and URL-encoded login forms,
and integrates error handling to ensure data format correctness.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strings"

	"groupchat/internal/pkg/errs"
)

// MaxLoginBodyBytes caps the size of the login form body.
const MaxLoginBodyBytes int64 = 16 << 10 // 16 KB

// BindJSON attempts to bind the JSON data from the HTTP request body to the destination struct dst.
func BindJSON(r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}

// BindLoginForm parses a URL-encoded login form and returns the username and
// password fields. The browser login flow posts application/x-www-form-urlencoded.
func BindLoginForm(w http.ResponseWriter, r *http.Request) (username, password string, customErr *errs.CustomError) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxLoginBodyBytes)

	if err := r.ParseForm(); err != nil {
		return "", "", errs.NewError(errs.ErrFormParseFailed)
	}

	return r.PostFormValue("username"), r.PostFormValue("password"), nil
}
