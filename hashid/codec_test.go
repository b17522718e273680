package hashid

import (
	"errors"
	"reflect"
	"testing"
)

func newTestCodec(t *testing.T, salt string) *Codec {
	t.Helper()
	c, err := New(salt, DefaultMinLength)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return c
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := newTestCodec(t, "test-salt")
	inputs := [][]int64{
		{0},
		{1},
		{42},
		{1024, 2048},
		{7, 0, 3},
		{1 << 40},
	}
	for _, in := range inputs {
		token, err := c.Encode(in...)
		if err != nil {
			t.Fatalf("encode %v: %v", in, err)
		}
		got, err := c.Decode(token)
		if err != nil {
			t.Fatalf("decode %q: %v", token, err)
		}
		if !reflect.DeepEqual(got, in) {
			t.Fatalf("round trip %v -> %q -> %v", in, token, got)
		}
	}
}

func TestEncodeDeterministicAndShaped(t *testing.T) {
	c := newTestCodec(t, "test-salt")
	again := newTestCodec(t, "test-salt")

	seen := make(map[string]int64)
	for id := int64(1); id <= 2000; id++ {
		token, err := c.EncodeID(id)
		if err != nil {
			t.Fatalf("encode %d: %v", id, err)
		}
		if len(token) < DefaultMinLength {
			t.Fatalf("token %q shorter than %d", token, DefaultMinLength)
		}
		if !isAlphanumeric(token) {
			t.Fatalf("token %q is not alphanumeric", token)
		}
		if other, _ := again.EncodeID(id); other != token {
			t.Fatalf("encode(%d) not deterministic: %q vs %q", id, token, other)
		}
		if prev, dup := seen[token]; dup {
			t.Fatalf("ids %d and %d share token %q", prev, id, token)
		}
		seen[token] = id
	}
}

func TestEncodeRejectsNegativeAndEmpty(t *testing.T) {
	c := newTestCodec(t, "test-salt")
	if _, err := c.Encode(-1); err == nil {
		t.Fatalf("expected error for negative id")
	}
	if _, err := c.Encode(); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestDecodeEmptyToken(t *testing.T) {
	c := newTestCodec(t, "test-salt")
	got, err := c.Decode("")
	if err != nil {
		t.Fatalf("decode empty: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestDecodeInvalidCharacters(t *testing.T) {
	c := newTestCodec(t, "test-salt")
	for _, token := range []string{"abc-def1", "abc def1", "ab_cdefg", "ÄÖÜabcde"} {
		if _, err := c.Decode(token); !errors.Is(err, ErrInvalidCharacter) {
			t.Fatalf("decode %q: expected ErrInvalidCharacter, got %v", token, err)
		}
	}
}

func TestDecodeForeignSaltIsEmpty(t *testing.T) {
	issuer := newTestCodec(t, "old-salt")
	c := newTestCodec(t, "new-salt")
	for _, id := range []int64{1, 2, 3, 100, 12345} {
		token, err := issuer.EncodeID(id)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		got, err := c.Decode(token)
		if err != nil {
			t.Fatalf("decode %q: %v", token, err)
		}
		if len(got) != 0 {
			t.Fatalf("token %q from another salt decoded to %v", token, got)
		}
	}
}

func TestDecodeID(t *testing.T) {
	c := newTestCodec(t, "test-salt")
	token, err := c.EncodeID(99)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	id, err := c.DecodeID(token)
	if err != nil || id != 99 {
		t.Fatalf("DecodeID(%q) = %d, %v; want 99", token, id, err)
	}

	pair, err := c.Encode(5, 6)
	if err != nil {
		t.Fatalf("encode pair: %v", err)
	}
	if id, err := c.DecodeID(pair); err != nil || id != 5 {
		t.Fatalf("DecodeID(pair) = %d, %v; want first number 5", id, err)
	}

	for _, bad := range []string{"", "12-34", "abc!", "with space"} {
		if _, err := c.DecodeID(bad); !errors.Is(err, ErrMalformed) {
			t.Fatalf("DecodeID(%q): expected ErrMalformed, got %v", bad, err)
		}
	}

	foreign, _ := newTestCodec(t, "other").EncodeID(99)
	if _, err := c.DecodeID(foreign); !errors.Is(err, ErrUndecodable) {
		t.Fatalf("DecodeID(foreign): expected ErrUndecodable, got %v", err)
	}
}
