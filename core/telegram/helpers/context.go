package helpers

import (
	"context"

	"github.com/m3rciful/arrbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// ctxSlot is the tele.Context key holding the per-update context.Context.
const ctxSlot = "arrbot.ctx"

// StoreContext caches ctx on c for later handlers of the same update.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(ctxSlot, ctx)
}

// ContextFrom returns the cached context, if any.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(ctxSlot).(context.Context)
	return ctx, ok && ctx != nil
}

// BuildContext returns the update's logging context, creating and caching
// it on first use. It carries the request id, update, user and chat ids.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := ContextFrom(c); ok {
		return ctx
	}
	updateID, userID, chatID := ids(c)
	rid, _ := c.Get("rid").(string)
	if rid == "" {
		rid = logger.BuildRID(updateID, chatID, userID)
	}
	ctx := logger.WithRID(context.Background(), rid)
	ctx = logger.WithUpdateMeta(ctx, updateID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	StoreContext(c, ctx)
	return ctx
}

func ids(c tele.Context) (updateID int, userID, chatID int64) {
	updateID = c.Update().ID
	if u := c.Sender(); u != nil {
		userID = u.ID
	}
	if ch := c.Chat(); ch != nil {
		chatID = ch.ID
	}
	return updateID, userID, chatID
}

// WithHandler tags the cached context with the matched handler name.
func WithHandler(c tele.Context, handler string) context.Context {
	return tag(c, handler, logger.WithHandler)
}

// WithService tags the cached context with the service namespace.
func WithService(c tele.Context, ns string) context.Context {
	return tag(c, ns, logger.WithService)
}

func tag(c tele.Context, v string, with func(context.Context, string) context.Context) context.Context {
	ctx := BuildContext(c)
	if v == "" {
		return ctx
	}
	ctx = with(ctx, v)
	StoreContext(c, ctx)
	return ctx
}
