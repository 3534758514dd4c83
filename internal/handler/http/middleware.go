package http

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/utafrali/quecomemoshoy/pkg/httputil"
	"github.com/utafrali/quecomemoshoy/pkg/logger"
	"github.com/utafrali/quecomemoshoy/pkg/middleware"
)

type contextKey string

const sessionIDKey contextKey = "session_id"

var validSessionID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// SessionID reads the visitor's session from X-Session-ID, issuing a new one
// when the header is missing or malformed. The id is echoed back in the
// response header so the storefront can keep it.
func SessionID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := strings.TrimSpace(r.Header.Get(middleware.SessionIDHeader))
		if !validSessionID.MatchString(sid) {
			sid = uuid.New().String()
		}
		w.Header().Set(middleware.SessionIDHeader, sid)

		ctx := context.WithValue(r.Context(), sessionIDKey, sid)
		ctx = logger.WithSessionID(ctx, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionIDFromContext returns the session set by SessionID.
func sessionIDFromContext(ctx context.Context) string {
	sid, _ := ctx.Value(sessionIDKey).(string)
	return sid
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteMessage(w, r, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
