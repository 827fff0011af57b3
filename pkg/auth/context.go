package auth

import "context"

type contextKey string

const contextKeySubject contextKey = "subject"

// WithSubject stores the authenticated token subject in the context.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, contextKeySubject, subject)
}

// SubjectFromContext retrieves the authenticated token subject.
func SubjectFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(contextKeySubject).(string)
	return s, ok
}
