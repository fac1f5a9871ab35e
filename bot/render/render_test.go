package render

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/m3rciful/arrbot/bot/service"
	"github.com/m3rciful/arrbot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

type fakeTarget struct {
	calls   []string
	photos  []string
	texts   []string
	notices []string

	sendErrs   []error
	editCapErr error
	editErr    error
	deleteErr  error
	respondErr error
}

func (f *fakeTarget) Send(what interface{}, _ ...interface{}) error {
	switch v := what.(type) {
	case *tele.Photo:
		f.calls = append(f.calls, "photo")
		f.photos = append(f.photos, v.File.FileURL)
	case string:
		f.calls = append(f.calls, "text")
		f.texts = append(f.texts, v)
	}
	if len(f.sendErrs) == 0 {
		return nil
	}
	err := f.sendErrs[0]
	f.sendErrs = f.sendErrs[1:]
	return err
}

func (f *fakeTarget) Edit(interface{}, ...interface{}) error {
	f.calls = append(f.calls, "edit")
	return f.editErr
}

func (f *fakeTarget) EditCaption(string, ...interface{}) error {
	f.calls = append(f.calls, "caption")
	return f.editCapErr
}

func (f *fakeTarget) Delete() error {
	f.calls = append(f.calls, "delete")
	return f.deleteErr
}

func (f *fakeTarget) Respond(resp ...*tele.CallbackResponse) error {
	f.calls = append(f.calls, "ack")
	if len(resp) > 0 {
		f.notices = append(f.notices, resp[0].Text)
	}
	return f.respondErr
}

var kb = keyboard.Keyboard{{keyboard.Action("Next", "movie goto 1")}}

func TestReplyFallsBackToPlaceholder(t *testing.T) {
	f := &fakeTarget{sendErrs: []error{errors.New("telegram: Bad Request: wrong type of the web page content (400)")}}
	err := Renderer{}.Render(context.Background(), f, service.Response{Mode: service.ModeReply, Caption: "Heat", Photo: "https://img/heat.jpg", Keyboard: kb}, false)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := []string{"https://img/heat.jpg", PlaceholderPhoto}
	if !reflect.DeepEqual(f.photos, want) {
		t.Fatalf("expected %v, got %v", want, f.photos)
	}
}

func TestReplyKeepsOtherErrors(t *testing.T) {
	f := &fakeTarget{sendErrs: []error{errors.New("telegram: Forbidden: bot was blocked by the user (403)")}}
	err := Renderer{}.Render(context.Background(), f, service.Response{Mode: service.ModeReply, Caption: "Heat", Photo: "https://img/heat.jpg"}, false)
	if err == nil {
		t.Fatalf("expected the send error")
	}
	if len(f.photos) != 1 {
		t.Fatalf("non-photo errors must not retry, sent %v", f.photos)
	}
}

func TestReplyWithoutPhotoSendsText(t *testing.T) {
	f := &fakeTarget{}
	if err := (Renderer{}).Render(context.Background(), f, service.Reply("Usage: /movie <title>", nil), false); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !reflect.DeepEqual(f.texts, []string{"Usage: /movie <title>"}) {
		t.Fatalf("unexpected texts %v", f.texts)
	}
}

func TestRepaintIgnoresNotModified(t *testing.T) {
	f := &fakeTarget{editCapErr: errors.New("telegram: Bad Request: message is not modified (400)")}
	if err := (Renderer{}).Render(context.Background(), f, service.Repaint("Heat", kb), true); err != nil {
		t.Fatalf("not modified must be success, got %v", err)
	}
	if !reflect.DeepEqual(f.calls, []string{"caption", "ack"}) {
		t.Fatalf("unexpected calls %v", f.calls)
	}
}

func TestRepaintFallsBackToTextEdit(t *testing.T) {
	f := &fakeTarget{editCapErr: errors.New("telegram: Bad Request: there is no caption in the message to edit (400)")}
	if err := (Renderer{}).Render(context.Background(), f, service.Repaint("Users 1-5 of 7", kb), true); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !reflect.DeepEqual(f.calls, []string{"caption", "edit", "ack"}) {
		t.Fatalf("unexpected calls %v", f.calls)
	}
}

func TestRedrawSendsBeforeDelete(t *testing.T) {
	f := &fakeTarget{}
	r := Renderer{Placeholder: "https://img/none.jpg"}
	if err := r.Render(context.Background(), f, service.Redraw("Heat", "", kb), true); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !reflect.DeepEqual(f.calls, []string{"photo", "delete", "ack"}) {
		t.Fatalf("unexpected calls %v", f.calls)
	}
	if f.photos[0] != "https://img/none.jpg" {
		t.Fatalf("empty poster must use the placeholder, got %q", f.photos[0])
	}
}

func TestRedrawKeepsOldMessageOnFailure(t *testing.T) {
	f := &fakeTarget{sendErrs: []error{errors.New("telegram: Too Many Requests (429)")}}
	if err := (Renderer{}).Render(context.Background(), f, service.Redraw("Heat", "https://img/heat.jpg", kb), true); err == nil {
		t.Fatalf("expected the send error")
	}
	if !reflect.DeepEqual(f.calls, []string{"photo", "ack"}) {
		t.Fatalf("failed redraw must not delete, calls %v", f.calls)
	}
}

func TestClearAndAckNotice(t *testing.T) {
	f := &fakeTarget{deleteErr: errors.New("message to delete not found")}
	if err := (Renderer{}).Render(context.Background(), f, service.Clear("Movie added!"), true); err != nil {
		t.Fatalf("delete failures are not fatal, got %v", err)
	}
	if !reflect.DeepEqual(f.calls, []string{"text", "delete", "ack"}) {
		t.Fatalf("unexpected calls %v", f.calls)
	}

	f = &fakeTarget{}
	_ = Renderer{}.Render(context.Background(), f, service.Ack("This search has expired, start a new one."), true)
	if !reflect.DeepEqual(f.notices, []string{"This search has expired, start a new one."}) {
		t.Fatalf("unexpected notices %v", f.notices)
	}
	if !reflect.DeepEqual(f.calls, []string{"ack"}) {
		t.Fatalf("ack must not touch messages, calls %v", f.calls)
	}
}
