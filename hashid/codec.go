// Package hashid maps database keys to short opaque tokens and back.
//
// Tokens hide sequential identifiers from API clients. They are obfuscated,
// not signed: anyone holding the salt can mint them, so they must never be
// used for authorization.
package hashid

import (
	"errors"
	"strings"

	hashids "github.com/speps/go-hashids/v2"
)

// DefaultMinLength is the shortest token the codec emits.
const DefaultMinLength = 8

var (
	// ErrInvalidCharacter is returned by Decode when the token holds a
	// character the codec can never produce.
	ErrInvalidCharacter = errors.New("hashid: character outside alphabet")
	// ErrMalformed means the token is not a non-empty run of ASCII letters and digits.
	ErrMalformed = errors.New("invalid ID format")
	// ErrUndecodable means the token is well formed but was not issued by
	// this codec, e.g. it was minted with another salt or has been altered.
	ErrUndecodable = errors.New("invalid or corrupted ID")
)

// Codec encodes and decodes identifiers. It is immutable once built and safe
// for concurrent use.
type Codec struct {
	h        *hashids.HashID
	alphabet string
}

// New builds a codec over the default alphanumeric alphabet. Changing salt
// invalidates every token issued before.
func New(salt string, minLength int) (*Codec, error) {
	if minLength < 0 {
		return nil, errors.New("hashid: negative minimum length")
	}
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = minLength
	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, err
	}
	return &Codec{h: h, alphabet: data.Alphabet}, nil
}

// Encode returns the token for nums. The same input always yields the same
// token. Negative numbers are rejected.
func (c *Codec) Encode(nums ...int64) (string, error) {
	if len(nums) == 0 {
		return "", errors.New("hashid: nothing to encode")
	}
	return c.h.EncodeInt64(nums)
}

// Decode reverses Encode. An empty token, or one this codec did not produce,
// decodes to an empty slice without error. ErrInvalidCharacter is returned
// only when the token contains characters outside the alphabet.
func (c *Codec) Decode(token string) ([]int64, error) {
	if token == "" {
		return []int64{}, nil
	}
	for _, r := range token {
		if !strings.ContainsRune(c.alphabet, r) {
			return nil, ErrInvalidCharacter
		}
	}
	nums, err := c.h.DecodeInt64WithError(token)
	if err != nil {
		// The library re-encodes what it decoded and fails on mismatch,
		// which is how foreign or tampered tokens show up.
		return []int64{}, nil
	}
	return nums, nil
}

// EncodeID is Encode for a single identifier.
func (c *Codec) EncodeID(id int64) (string, error) {
	return c.Encode(id)
}

// DecodeID validates an inbound identifier and returns the first number it
// carries. It returns ErrMalformed for tokens that are not plain alphanumerics
// and ErrUndecodable for tokens that decode to nothing.
func (c *Codec) DecodeID(token string) (int64, error) {
	if !isAlphanumeric(token) {
		return 0, ErrMalformed
	}
	nums, err := c.Decode(token)
	if err != nil || len(nums) == 0 {
		return 0, ErrUndecodable
	}
	return nums[0], nil
}

func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		b := s[i]
		if !('a' <= b && b <= 'z' || 'A' <= b && b <= 'Z' || '0' <= b && b <= '9') {
			return false
		}
	}
	return true
}
