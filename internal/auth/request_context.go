package auth

import (
	"context"
)

type contextKey string

var jobsClaimsKey contextKey = "jobs_claims"

func SetJobsClaims(ctx context.Context, claims *JobsClaims) context.Context {
	return context.WithValue(ctx, jobsClaimsKey, claims)
}

func GetJobsClaims(ctx context.Context) *JobsClaims {
	val := ctx.Value(jobsClaimsKey)
	if claims, ok := val.(*JobsClaims); ok {
		return claims
	}
	return nil
}
