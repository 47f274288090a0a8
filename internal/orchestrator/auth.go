package orchestrator

import (
    "crypto/subtle"
    "net/http"

    "golang.org/x/crypto/bcrypt"
)

// Credentials enables HTTP basic auth when both fields are set. PasswordHash
// is a bcrypt hash.
type Credentials struct {
    Username     string
    PasswordHash string
}

func (c Credentials) enabled() bool { return c.Username != "" && c.PasswordHash != "" }

func (c Credentials) verify(user, pass string) bool {
    userOK := subtle.ConstantTimeCompare([]byte(user), []byte(c.Username)) == 1
    passOK := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(pass)) == nil
    return userOK && passOK
}

func (o *Orchestrator) requireAuth(next http.Handler) http.Handler {
    creds := o.deps.Auth
    if !creds.enabled() { return next }
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        user, pass, ok := r.BasicAuth()
        if !ok || !creds.verify(user, pass) {
            w.Header().Set("WWW-Authenticate", `Basic realm="blanksplit"`)
            http.Error(w, "unauthorized", http.StatusUnauthorized)
            return
        }
        next.ServeHTTP(w, r)
    })
}
