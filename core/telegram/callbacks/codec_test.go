package callbacks

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := Encode("movie", "selectpath", "/data/movies 4k", 7)
	ns, args, err := Decode(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if ns != "movie" {
		t.Fatalf("unexpected namespace %q", ns)
	}
	want := []string{"selectpath", "/data/movies 4k", "7"}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("unexpected args %#v", args)
	}
}

func TestEncodePunctuation(t *testing.T) {
	in := []any{"addtag", "tt0133093", "a:b-c.d", "x&y"}
	ns, args, err := Decode(Encode("series", in...))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if ns != "series" || len(args) != len(in) {
		t.Fatalf("unexpected decode %q %#v", ns, args)
	}
	for i := range in {
		if args[i] != in[i] {
			t.Fatalf("arg %d: got %q want %q", i, args[i], in[i])
		}
	}
}

func TestDecodeEmpty(t *testing.T) {
	if _, _, err := Decode("   "); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestDecodeUnbalanced(t *testing.T) {
	if _, _, err := Decode("movie 'goto"); err == nil {
		t.Fatalf("expected error for unbalanced quote")
	}
}

func TestNoop(t *testing.T) {
	if !IsNoop("noop") || !IsNoop(" noop ") {
		t.Fatalf("noop token not recognised")
	}
	if IsNoop("movie noop") {
		t.Fatalf("namespaced payload must not be noop")
	}
}

func TestValid(t *testing.T) {
	if err := Valid(Encode("movie", "goto", 1)); err != nil {
		t.Fatalf("short payload rejected: %v", err)
	}
	if err := Valid(strings.Repeat("a", MaxDataLen+1)); !errors.Is(err, ErrTooLong) {
		t.Fatalf("expected ErrTooLong, got %v", err)
	}
}

func TestTokenizeFallsBack(t *testing.T) {
	got := Tokenize("/movie Ocean's Eleven")
	want := []string{"/movie", "Ocean's", "Eleven"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected tokens %#v", got)
	}
	got = Tokenize(`/movie "The Matrix" reloaded`)
	want = []string{"/movie", "The Matrix", "reloaded"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected tokens %#v", got)
	}
}
