package daemon

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"valier/internal/logging"
)

// requireToken guards the operator endpoints with the configured api_token.
// With no token configured the endpoints are open, which is only sensible on
// a loopback bind.
func (s *apiServer) requireToken(next http.HandlerFunc) http.HandlerFunc {
	if s.token == "" {
		return next
	}
	want := []byte(s.token)
	return func(w http.ResponseWriter, r *http.Request) {
		presented, ok := bearerToken(r)
		if !ok || subtle.ConstantTimeCompare([]byte(presented), want) != 1 {
			s.log().Debug("rejected api request",
				logging.String("path", r.URL.Path),
				logging.String("remote", r.RemoteAddr),
			)
			w.Header().Set("WWW-Authenticate", `Bearer realm="valier"`)
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

// bearerToken extracts the credential from an Authorization header. The
// scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	scheme, credential, found := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	credential = strings.TrimSpace(credential)
	return credential, credential != ""
}
