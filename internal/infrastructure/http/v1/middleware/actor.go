package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "stockledger/internal/core/context"
)

// HeaderActorID carries the identity resolved by the authenticating proxy.
const HeaderActorID = "X-Actor-ID"

// Actor copies the caller identity into the request context, where the
// audit log and the idempotency store pick it up. Requests without the
// header run anonymously.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if actorID := c.GetHeader(HeaderActorID); actorID != "" {
			ctx := appctx.WithActor(c.Request.Context(), &appctx.Actor{ID: actorID, Source: "http"})
			c.Request = c.Request.WithContext(ctx)
			c.Set("actor_id", actorID)
		}
		c.Next()
	}
}
