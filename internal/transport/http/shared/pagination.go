package shared

import (
	"net/http"
	"strconv"
	"strings"
)

type Page struct {
	Limit  int
	Offset int
}

// Page reads limit and offset from the query string. Limits above max are
// clamped; malformed values are reported on the validator.
func (v *Validator) Page(r *http.Request, defaultLimit, maxLimit int) Page {
	page := Page{Limit: defaultLimit}
	q := r.URL.Query()
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			v.Add("limit", "must be a positive integer")
		} else {
			page.Limit = n
		}
	}
	if raw := strings.TrimSpace(q.Get("offset")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			v.Add("offset", "must be a non-negative integer")
		} else {
			page.Offset = n
		}
	}
	if maxLimit > 0 && page.Limit > maxLimit {
		page.Limit = maxLimit
	}
	return page
}
