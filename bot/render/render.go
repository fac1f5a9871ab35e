// Package render turns service responses into Telegram calls.
package render

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m3rciful/arrbot/bot/service"
	"github.com/m3rciful/arrbot/core/logger"
	"github.com/m3rciful/arrbot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// PlaceholderPhoto replaces posters Telegram refuses to fetch.
const PlaceholderPhoto = "https://artworks.thetvdb.com/banners/images/missing/movie.jpg"

// photo errors that mean the URL, not the request, is at fault
var photoErrors = []string{
	"wrong type of the web page content",
	"wrong file identifier/http url specified",
	"media_empty",
	"failed to get http url content",
}

const (
	notModified = "message is not modified"
	noCaption   = "there is no caption in the message to edit"
)

// Target is the part of a telebot context the renderer drives.
type Target interface {
	Send(what interface{}, opts ...interface{}) error
	Edit(what interface{}, opts ...interface{}) error
	EditCaption(caption string, opts ...interface{}) error
	Delete() error
	Respond(resp ...*tele.CallbackResponse) error
}

var _ Target = (tele.Context)(nil)

// Renderer emits responses. The zero value uses PlaceholderPhoto.
type Renderer struct {
	Placeholder string
}

func (r Renderer) placeholder() string {
	if r.Placeholder != "" {
		return r.Placeholder
	}
	return PlaceholderPhoto
}

// Render emits resp through t. callback reports whether the update was a
// button press; those are always acknowledged, even when rendering fails.
func (r Renderer) Render(ctx context.Context, t Target, resp service.Response, callback bool) error {
	if callback {
		defer r.ack(ctx, t, resp.Notice)
	}

	opts := &tele.SendOptions{
		ReplyMarkup: keyboard.Markup(resp.Keyboard),
		ParseMode:   tele.ParseMode(resp.ParseMode),
	}

	switch resp.Mode {
	case service.ModeAck:
		return nil

	case service.ModeReply:
		if resp.Photo != "" {
			return r.sendPhoto(ctx, t, resp.Photo, resp.Caption, opts)
		}
		if resp.Caption == "" {
			return nil
		}
		return t.Send(resp.Caption, opts)

	case service.ModeRepaint:
		err := t.EditCaption(resp.Caption, opts)
		if isError(err, noCaption) {
			err = t.Edit(resp.Caption, opts)
		}
		if isError(err, notModified) {
			return nil
		}
		return err

	case service.ModeRedraw:
		photo := resp.Photo
		if photo == "" {
			photo = r.placeholder()
		}
		if err := r.sendPhoto(ctx, t, photo, resp.Caption, opts); err != nil {
			return err
		}
		r.delete(ctx, t)
		return nil

	case service.ModeClear:
		if err := t.Send(resp.Caption, &tele.SendOptions{ParseMode: tele.ParseMode(resp.ParseMode)}); err != nil {
			return err
		}
		r.delete(ctx, t)
		return nil
	}
	return nil
}

func (r Renderer) sendPhoto(ctx context.Context, t Target, url, caption string, opts *tele.SendOptions) error {
	err := t.Send(&tele.Photo{File: tele.FromURL(url), Caption: caption}, opts)
	if err == nil || !isPhotoError(err) || url == r.placeholder() {
		return err
	}
	logger.Warn(ctx, "tg", "render.photo",
		slog.String("status", "fallback"),
		slog.String("url", logger.SanitizeLimit(url, 120)),
		slog.String("err", err.Error()),
	)
	return t.Send(&tele.Photo{File: tele.FromURL(r.placeholder()), Caption: caption}, opts)
}

func (r Renderer) delete(ctx context.Context, t Target) {
	if err := t.Delete(); err != nil {
		logger.Debug(ctx, "tg", "render.delete",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
}

func (r Renderer) ack(ctx context.Context, t Target, notice string) {
	var err error
	if notice != "" {
		err = t.Respond(&tele.CallbackResponse{Text: notice})
	} else {
		err = t.Respond()
	}
	if err != nil {
		logger.Debug(ctx, "tg", "render.ack",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
}

func isError(err error, fragment string) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), fragment)
}

func isPhotoError(err error) bool {
	for _, f := range photoErrors {
		if isError(err, f) {
			return true
		}
	}
	return false
}
