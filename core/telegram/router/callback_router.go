package router

import (
	"time"

	tg "github.com/m3rciful/arrbot/core/telegram"
	"github.com/m3rciful/arrbot/core/telegram/callbacks"
	"github.com/m3rciful/arrbot/core/telegram/middleware"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute returns a handler that routes callbacks by payload namespace.
// Noop and undecodable payloads are acknowledged and stop here; matched
// handlers own the acknowledgement.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		data := callbacks.Data(c)
		if callbacks.IsNoop(data) {
			return handleWithSummary(c, "callback.noop", start, "skip", "ok", func() error {
				return c.Respond()
			})
		}

		ns, args, err := callbacks.Decode(data)
		if err != nil {
			return handleWithSummary(c, "callback.invalid", start, "skip", "ok", func() error {
				return c.Respond()
			}, slog.String("reason", err.Error()))
		}

		name := "callback." + normalizeHandlerName(ns)
		extras := []slog.Attr{slog.String("cb_key", ns)}
		if len(args) > 0 {
			extras = append(extras, slog.String("cb_op", args[0]))
		}

		cbHandler, ok := reg.GetCallback(ns)
		if !ok || cbHandler == nil {
			fallback := opts.NotFound
			if fallback == nil {
				fallback = reg.CallbackNotFound()
			}
			extras = append(extras, slog.String("reason", "not_found"))
			return handleWithSummary(c, name, start, "skip", "", func() error {
				if fallback != nil {
					return fallback(c)
				}
				return nil
			}, extras...)
		}

		return handleWithSummary(c, name, start, "", "", func() error {
			return cbHandler(c)
		}, extras...)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
