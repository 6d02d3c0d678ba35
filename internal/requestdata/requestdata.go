package requestdata

import (
	"context"

	"github.com/google/uuid"

	"github.com/studypulse/backend/internal/types"
)

type requestDataKeyType struct{}

var requestDataKey = requestDataKeyType{}

// RequestData is the authenticated caller's identity, placed in the request
// context by the auth middleware.
type RequestData struct {
	TokenString string
	StudentID   uuid.UUID
	Role        types.StudentRole
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey).(*RequestData); ok {
		return rd
	}
	return nil
}

// StudentID is a convenience accessor; uuid.Nil when unauthenticated.
func StudentID(ctx context.Context) uuid.UUID {
	rd := GetRequestData(ctx)
	if rd == nil {
		return uuid.Nil
	}
	return rd.StudentID
}
