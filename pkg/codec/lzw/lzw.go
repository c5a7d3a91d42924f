// Package lzw implements the dictionary compressor used to shrink frame
// records into short shareable strings.
//
// The encoder treats every character in U+0000..U+00FF as an implicit code
// and assigns codes from 256 upwards to multi-character phrases as it meets
// them. The decoder rebuilds the same dictionary one step behind the
// encoder, so no dictionary is transmitted.
//
// Each code is written as a single rune. Codes that would fall into the
// UTF-16 surrogate block are shifted past it, which keeps the packed string
// valid UTF-8 and safe to percent-encode.
package lzw

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// FirstPhraseCode is the code assigned to the first multi-character phrase.
const FirstPhraseCode = 256

const (
	surrogateMin  = 0xD800
	surrogateSize = 0x800
	maxCode       = utf8.MaxRune - surrogateSize
)

var (
	// ErrUnsupportedChar is returned by [Encode] for characters above U+00FF.
	ErrUnsupportedChar = errors.New("character outside U+0000..U+00FF")

	// ErrTooLong is returned by [Encode] when the input needs more codes
	// than can be written as runes.
	ErrTooLong = errors.New("input too long to encode")

	// ErrInvalidCode is returned by [Decode] for a code the dictionary
	// cannot hold at that position.
	ErrInvalidCode = errors.New("invalid code")
)

// Encode compresses s. The empty string encodes to the empty string.
func Encode(s string) (string, error) {
	data, err := latin1(s)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", nil
	}

	dict := make(map[string]int)
	next := FirstPhraseCode
	var out strings.Builder

	emit := func(phrase []byte) {
		code := int(phrase[0])
		if len(phrase) > 1 {
			code = dict[string(phrase)]
		}
		out.WriteRune(codeToRune(code))
	}

	start := 0
	for i := 1; i < len(data); i++ {
		candidate := data[start : i+1]
		if _, ok := dict[string(candidate)]; ok {
			continue
		}
		emit(data[start:i])
		if next > maxCode {
			return "", ErrTooLong
		}
		dict[string(candidate)] = next
		next++
		start = i
	}
	emit(data[start:])
	return out.String(), nil
}

// Decode inverts [Encode].
func Decode(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("%w: not valid UTF-8", ErrInvalidCode)
	}

	var (
		dict [][]byte
		out  []byte
		prev []byte
	)
	pos := 0
	for _, r := range s {
		code, ok := runeToCode(r)
		if !ok {
			return "", fmt.Errorf("%w: rune %U at position %d", ErrInvalidCode, r, pos)
		}

		var phrase []byte
		switch next := FirstPhraseCode + len(dict); {
		case code < FirstPhraseCode:
			phrase = []byte{byte(code)}
		case prev == nil:
			return "", fmt.Errorf("%w: stream starts with phrase code %d", ErrInvalidCode, code)
		case code < next:
			phrase = dict[code-FirstPhraseCode]
		case code == next:
			phrase = append(clone(prev), prev[0])
		default:
			return "", fmt.Errorf("%w: code %d at position %d, next is %d", ErrInvalidCode, code, pos, next)
		}

		out = append(out, phrase...)
		if prev != nil {
			dict = append(dict, append(clone(prev), phrase[0]))
		}
		prev = phrase
		pos++
	}

	var b strings.Builder
	b.Grow(len(out))
	for _, c := range out {
		b.WriteRune(rune(c))
	}
	return b.String(), nil
}

func latin1(s string) ([]byte, error) {
	data := make([]byte, 0, len(s))
	for i, r := range s {
		if r > 0xFF {
			return nil, fmt.Errorf("%w: %U at byte %d", ErrUnsupportedChar, r, i)
		}
		data = append(data, byte(r))
	}
	return data, nil
}

func codeToRune(code int) rune {
	if code >= surrogateMin {
		code += surrogateSize
	}
	return rune(code)
}

func runeToCode(r rune) (int, bool) {
	switch {
	case r < surrogateMin:
		return int(r), true
	case r < surrogateMin+surrogateSize:
		return 0, false
	default:
		return int(r) - surrogateSize, true
	}
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
