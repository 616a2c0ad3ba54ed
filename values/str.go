package values

import (
	"unicode/utf8"

	perr "github.com/wudi/pyvm/errors"
)

// StrData is the Str variant's payload: a raw byte string (CPython
// 2.7's `str`). Lower-case and wide-char (rune) renderings are cached
// lazily since most strings are never case-folded or iterated as
// unicode.
type StrData struct {
	Bytes []byte

	lowerCache []byte
	haveLower  bool
	wideCache  []rune
	haveWide   bool
}

// Str constructs a Str value from raw bytes.
func Str(s string) *Value {
	return &Value{Type: TypeStr, Data: &StrData{Bytes: []byte(s)}}
}

// StrBytes constructs a Str value from a byte slice without copying.
func StrBytes(b []byte) *Value {
	return &Value{Type: TypeStr, Data: &StrData{Bytes: b}}
}

// DecodeUTF8 decodes the byte string as UTF-8 into a UStr value. Any
// invalid sequence fails; there is no replacement-character fallback.
func (s *StrData) DecodeUTF8() (*Value, error) {
	if !utf8.Valid(s.Bytes) {
		return nil, perr.Value("invalid UTF-8 byte sequence")
	}
	return UStr(string(s.Bytes)), nil
}

// Lower returns (and caches) the ASCII-lowercased bytes.
func (s *StrData) Lower() []byte {
	if s.haveLower {
		return s.lowerCache
	}
	out := make([]byte, len(s.Bytes))
	for i, b := range s.Bytes {
		if b >= 'A' && b <= 'Z' {
			b += 'a' - 'A'
		}
		out[i] = b
	}
	s.lowerCache = out
	s.haveLower = true
	return out
}

// Wide returns (and caches) the bytes decoded as Latin-1 code points,
// the widening CPython 2.7 performs when a `str` is mixed with a
// `unicode` value.
func (s *StrData) Wide() []rune {
	if s.haveWide {
		return s.wideCache
	}
	out := make([]rune, len(s.Bytes))
	for i, b := range s.Bytes {
		out[i] = rune(b)
	}
	s.wideCache = out
	s.haveWide = true
	return out
}

// UStrData is the UStr ("unicode") variant's payload: a sequence of
// wide characters rather than raw bytes.
type UStrData struct {
	Runes []rune
}

func UStr(s string) *Value {
	return &Value{Type: TypeUStr, Data: &UStrData{Runes: []rune(s)}}
}

func UStrRunes(r []rune) *Value {
	return &Value{Type: TypeUStr, Data: &UStrData{Runes: r}}
}
