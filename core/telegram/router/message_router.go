package router

import (
	"strings"
	"time"

	tg "github.com/m3rciful/arrbot/core/telegram"
	"github.com/m3rciful/arrbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// TextRoutes builds the handler for plain text. Commands telebot did not
// match by endpoint (for example "/Movie" or an alias typed with a bot
// suffix) are resolved through the registry; other text is logged and
// dropped.
func TextRoutes(reg *tg.Registry) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := strings.TrimSpace(c.Text())

		if reg != nil && strings.HasPrefix(text, "/") {
			head := strings.ToLower(strings.Fields(text)[0])
			if at := strings.IndexByte(head, '@'); at > 0 {
				head = head[:at]
			}
			if key, cmd, ok := reg.LookupCommand(head); ok && cmd.Handler != nil {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
		}

		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
	}
}
