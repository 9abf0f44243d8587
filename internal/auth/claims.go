package auth

import "github.com/golang-jwt/jwt/v5"

// JobsClaims identifies the caller of the jobs API
type JobsClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// ScopeJobs is the only scope the jobs API accepts
const ScopeJobs = "jobs"

// Caller returns the token subject
func (c *JobsClaims) Caller() string {
	return c.Subject
}
