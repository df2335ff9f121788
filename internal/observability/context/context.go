package context

import "context"

type contextKey string

const (
	requestIDKey   contextKey = "request_id"
	householdIDKey contextKey = "household_id"
	actorTypeKey   contextKey = "actor_type"
	actorIDKey     contextKey = "actor_id"
)

// WithRequestID stores the request identifier on the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request identifier, or "" when absent.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}

// WithHouseholdID stores the household identifier on the context.
func WithHouseholdID(ctx context.Context, householdID string) context.Context {
	return context.WithValue(ctx, householdIDKey, householdID)
}

// HouseholdIDFromContext returns the household identifier, or "" when absent.
func HouseholdIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(householdIDKey).(string)
	return value
}

// WithActor stores the acting principal on the context.
func WithActor(ctx context.Context, actorType, actorID string) context.Context {
	ctx = context.WithValue(ctx, actorTypeKey, actorType)
	return context.WithValue(ctx, actorIDKey, actorID)
}

// ActorFromContext returns the acting principal, or empty strings when absent.
func ActorFromContext(ctx context.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	actorType, _ := ctx.Value(actorTypeKey).(string)
	actorID, _ := ctx.Value(actorIDKey).(string)
	return actorType, actorID
}
