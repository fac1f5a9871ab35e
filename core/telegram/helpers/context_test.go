package helpers

import (
	"testing"

	"github.com/m3rciful/arrbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	store map[string]interface{}
}

func (f *fakeContext) Update() tele.Update        { return tele.Update{ID: 5} }
func (f *fakeContext) Sender() *tele.User         { return &tele.User{ID: 7} }
func (f *fakeContext) Chat() *tele.Chat           { return &tele.Chat{ID: 9} }
func (f *fakeContext) Get(key string) interface{} { return f.store[key] }

func (f *fakeContext) Set(key string, v interface{}) {
	if f.store == nil {
		f.store = make(map[string]interface{})
	}
	f.store[key] = v
}

func TestBuildContextCaches(t *testing.T) {
	c := &fakeContext{}
	ctx := BuildContext(c)
	if got := logger.RIDFrom(ctx); got != "5:9:7" {
		t.Fatalf("unexpected rid %q", got)
	}
	if logger.UserIDFrom(ctx) != 7 || logger.ChatIDFrom(ctx) != 9 || logger.UpdateIDFrom(ctx) != 5 {
		t.Fatalf("update metadata missing")
	}
	if again := BuildContext(c); again != ctx {
		t.Fatalf("second call must reuse the cached context")
	}
}

func TestBuildContextKeepsMiddlewareRID(t *testing.T) {
	c := &fakeContext{}
	c.Set("rid", "custom")
	if got := logger.RIDFrom(BuildContext(c)); got != "custom" {
		t.Fatalf("unexpected rid %q", got)
	}
}

func TestTagsAccumulate(t *testing.T) {
	c := &fakeContext{}
	WithHandler(c, "movie")
	ctx := WithService(c, "movie")
	if logger.HandlerFrom(ctx) != "movie" || logger.ServiceFrom(ctx) != "movie" {
		t.Fatalf("tags lost: handler=%q service=%q", logger.HandlerFrom(ctx), logger.ServiceFrom(ctx))
	}
	if cached, _ := ContextFrom(c); cached != ctx {
		t.Fatalf("tagged context must be cached")
	}
	if WithService(c, "") != ctx {
		t.Fatalf("empty tag must not replace the context")
	}
}
