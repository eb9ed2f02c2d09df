package requestdata

import (
	"context"

	"github.com/google/uuid"

	"github.com/goalie-study/goalie-backend/internal/types"
)

var requestDataKey = struct{}{}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	val := ctx.Value(requestDataKey)
	if rd, ok := val.(*RequestData); ok {
		return rd
	}
	return nil
}

// RequestData carries the resolved participant plus any reflection deep-link
// parameters for the duration of one request.
type RequestData struct {
	ParticipantCode string
	UserID          uuid.UUID
	User            *types.User
	Week            int
	Session         string
}
