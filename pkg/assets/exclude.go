package assets

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// ErrInvalidPattern is returned by CompilePattern for entries that are not
// usable regular expressions.
var ErrInvalidPattern = errors.New("invalid exclusion pattern")

// SkipAsset reports whether reference is excluded by exclusions, either by an
// exact entry, by its basename, or by a pattern entry.
func SkipAsset(reference string, exclusions []string) bool {
	if len(exclusions) == 0 {
		return false
	}

	base := basename(reference)
	for _, entry := range exclusions {
		if entry == "" {
			continue
		}
		if entry == reference || entry == base {
			return true
		}
	}

	return SkipByRegexp(reference, exclusions)
}

// SkipByRegexp reports whether any exclusion entry, compiled as a pattern,
// matches reference. Entries that fail to compile count as non-matches.
func SkipByRegexp(reference string, exclusions []string) bool {
	for _, entry := range exclusions {
		re, err := CompilePattern(entry)
		if err != nil {
			continue
		}
		if re.MatchString(reference) {
			return true
		}
	}
	return false
}

// closingDelimiters pairs bracket-style opening delimiters with their closers.
var closingDelimiters = map[byte]byte{
	'(': ')',
	'[': ']',
	'{': '}',
	'<': '>',
}

// CompilePattern compiles a delimited pattern such as `/\.min\.js$/i` or
// `#^/vendor/#`. The delimiter is the first byte and must not be a letter,
// digit, backslash or whitespace. Supported trailing flags are i, m, s, U
// and u (a no-op; patterns are always UTF-8).
func CompilePattern(entry string) (*regexp.Regexp, error) {
	if len(entry) < 2 {
		return nil, fmt.Errorf("%w: %q is too short", ErrInvalidPattern, entry)
	}

	open := entry[0]
	if open == '\\' || open >= 0x80 || unicode.IsLetter(rune(open)) || unicode.IsDigit(rune(open)) || unicode.IsSpace(rune(open)) {
		return nil, fmt.Errorf("%w: %q has no delimiter", ErrInvalidPattern, entry)
	}

	closer := open
	if c, ok := closingDelimiters[open]; ok {
		closer = c
	}

	end := strings.LastIndexByte(entry[1:], closer)
	if end < 0 {
		return nil, fmt.Errorf("%w: %q has no closing delimiter", ErrInvalidPattern, entry)
	}
	end++
	body, flags := entry[1:end], entry[end+1:]

	var goFlags strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's', 'U':
			goFlags.WriteRune(f)
		case 'u':
		default:
			return nil, fmt.Errorf("%w: %q has unsupported flag %q", ErrInvalidPattern, entry, f)
		}
	}
	if goFlags.Len() > 0 {
		body = "(?" + goFlags.String() + ")" + body
	}

	re, err := regexp.Compile(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return re, nil
}
