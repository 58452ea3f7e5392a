package partialjson

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Mode selects how incomplete input is treated.
type Mode uint8

const (
	Lenient Mode = iota
	Strict
)

// Outcome is the result of one parse. Remainder is set on success and on failure: it is the text that follows the parsed value (or, on failure, the text at which parsing
// stopped).
type Outcome struct {
	Value     Value
	Remainder string
	Err       *Error // nil on success
}

// Decoder parses JSON-like text. The zero Decoder is a lenient decoder with no extra-token hook. A Decoder is immutable and safe for concurrent use.
type Decoder struct {
	Strict bool

	// OnExtraToken, if non-nil, is called when non-whitespace text follows the top-level value. It never affects the Outcome.
	OnExtraToken func(text string, v Value, remainder string)
}

// Parse parses text in the given mode without an extra-token hook.
func Parse(text string, mode Mode) Outcome {
	return Decoder{Strict: mode == Strict}.Parse(text)
}

// DecodeComplete parses text that is known to be final. It returns a *DecodeError if the strict parse reports an error.
func DecodeComplete(text string) (Value, error) {
	out := Parse(text, Strict)
	if out.Err != nil {
		return out.Value, &DecodeError{Kind: out.Err.Kind, Remainder: out.Remainder}
	}
	return out.Value, nil
}

// Parse parses the value at the start of text (after leading whitespace). Empty or all-whitespace text is Null with no error.
func (d Decoder) Parse(text string) Outcome {
	r := d.parseAny(text)
	if d.OnExtraToken != nil && strings.TrimSpace(r.rest) != "" {
		d.OnExtraToken(text, r.v, r.rest)
	}
	return Outcome{Value: r.v, Remainder: r.rest, Err: r.err}
}

// LogExtraTokens returns an OnExtraToken hook that logs each occurrence at Warn level.
func LogExtraTokens(logger *slog.Logger) func(text string, v Value, remainder string) {
	return func(text string, v Value, remainder string) {
		if logger == nil {
			return
		}
		logger.Warn("parsed JSON with extra tokens", "text", text, "value", v.String(), "remainder", remainder)
	}
}

// result is the internal form of Outcome. partial is set for a lenient value that was cut off by the end of the text (an unterminated string or a literal prefix).
type result struct {
	v       Value
	rest    string
	err     *Error
	partial bool
}

func fail(kind ErrorKind, rest string) result {
	return result{rest: rest, err: &Error{Kind: kind}}
}

type tokenKind uint8

const (
	tokenInvalid tokenKind = iota
	tokenSpace
	tokenArray
	tokenObject
	tokenString
	tokenTrue
	tokenFalse
	tokenNull
	tokenNumber
)

func classify(c byte) tokenKind {
	switch {
	case c == ' ' || c == '\t' || c == '\r' || c == '\n':
		return tokenSpace
	case c == '[':
		return tokenArray
	case c == '{':
		return tokenObject
	case c == '"':
		return tokenString
	case c == 't':
		return tokenTrue
	case c == 'f':
		return tokenFalse
	case c == 'n':
		return tokenNull
	case c == '-' || c == '.' || (c >= '0' && c <= '9'):
		return tokenNumber
	default:
		return tokenInvalid
	}
}

func trimSpace(s string) string {
	return strings.TrimLeft(s, " \t\r\n")
}

func (d Decoder) parseAny(s string) result {
	if s == "" {
		return result{}
	}
	switch classify(s[0]) {
	case tokenSpace:
		return d.parseAny(trimSpace(s))
	case tokenArray:
		return d.parseArray(s)
	case tokenObject:
		return d.parseObject(s)
	case tokenString:
		return d.parseString(s)
	case tokenTrue:
		return d.parseLiteral(s, "true", Bool(true))
	case tokenFalse:
		return d.parseLiteral(s, "false", Bool(false))
	case tokenNull:
		return d.parseLiteral(s, "null", Null())
	case tokenNumber:
		return parseNumber(s)
	default:
		return fail(UnexpectedToken, s)
	}
}

// parseArray parses elements until `]` or the first failure. On failure the elements so far are returned with the error, except that IncompleteString is dropped (more text
// will complete it). An unterminated array with no elements is Null.
func (d Decoder) parseArray(s string) result {
	s = trimSpace(s[1:])
	var items []Value
	var err *Error
	closed := false

	for s != "" {
		if s[0] == ']' {
			s = s[1:]
			closed = true
			break
		}

		el := d.parseAny(s)
		if el.err != nil {
			if el.err.Kind != IncompleteString {
				err = el.err
			}
			s = trimSpace(el.rest)
			break
		}
		if el.partial {
			// A cut-off element is left out until it's complete.
			s = el.rest
			break
		}

		items = append(items, el.v)
		s = trimSpace(el.rest)
		if strings.HasPrefix(s, ",") {
			s = trimSpace(s[1:])
		}
	}

	if len(items) == 0 && !closed {
		return result{rest: s, err: err}
	}
	if items == nil {
		items = []Value{}
	}
	return result{v: Array(items...), rest: s, err: err}
}

// parseObject parses key/value pairs until `}` or the first failure. Keys whose value was cut off are kept with a Null value; in lenient mode a pair whose key is not yet
// complete is not attempted at all.
func (d Decoder) parseObject(s string) result {
	s = trimSpace(s[1:])
	obj := NewObject()
	var err *Error

	for s != "" {
		if s[0] == '}' {
			s = s[1:]
			break
		}

		if !d.Strict && s[0] == '"' && closingQuote(s) < 0 {
			break
		}

		k := d.parseAny(s)
		if k.err != nil {
			if k.err.Kind != IncompleteString {
				err = k.err
			}
			s = trimSpace(k.rest)
			break
		}
		key, ok := k.v.Str()
		if !ok || k.partial {
			s = trimSpace(k.rest)
			err = &Error{Kind: UnexpectedToken}
			break
		}

		s = trimSpace(k.rest)
		if s == "" || s[0] == '}' {
			obj.Set(key, Null())
			break
		}
		if s[0] != ':' {
			err = &Error{Kind: UnexpectedToken}
			break
		}

		s = trimSpace(s[1:])
		if s == "" || s[0] == '}' {
			obj.Set(key, Null())
			break
		}

		v := d.parseAny(s)
		if v.err != nil {
			switch v.err.Kind {
			case IncompleteString:
				obj.Set(key, Null())
			case IncompleteNumber:
				obj.Set(key, Null())
				err = v.err
			default:
				err = v.err
			}
			s = trimSpace(v.rest)
			break
		}
		if v.partial {
			obj.Set(key, Null())
			s = v.rest
			break
		}

		obj.Set(key, v.v)
		s = trimSpace(v.rest)
		if strings.HasPrefix(s, ",") {
			s = trimSpace(s[1:])
		}
	}

	return result{v: ObjectValue(obj), rest: s, err: err}
}

// closingQuote returns the index of the quote that ends the string starting at s[0], or -1. A quote is escaped iff it is preceded by an odd number of backslashes.
func closingQuote(s string) int {
	backslashes := 0
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			backslashes++
			continue
		case '"':
			if backslashes%2 == 0 {
				return i
			}
		}
		backslashes = 0
	}
	return -1
}

func (d Decoder) parseString(s string) result {
	end := closingQuote(s)
	if end < 0 {
		if d.Strict {
			return fail(IncompleteString, "")
		}
		return result{v: String(decodePartialString(s[1:])), partial: true}
	}

	var str string
	if err := json.Unmarshal([]byte(s[:end+1]), &str); err != nil {
		return fail(UnexpectedToken, s[end+1:])
	}
	return result{v: String(str), rest: s[end+1:]}
}

// decodePartialString decodes the escapes of an unterminated string body as far as possible. A trailing, incomplete escape is dropped. If the body still can't be decoded
// (ex: a raw control character), it is returned as-is.
func decodePartialString(body string) string {
	for i := 0; i < len(body); i++ {
		if body[i] != '\\' {
			continue
		}
		if i+1 >= len(body) || (body[i+1] == 'u' && i+6 > len(body)) {
			body = body[:i]
			break
		}
		if body[i+1] == 'u' {
			i += 5
		} else {
			i++
		}
	}

	var str string
	if err := json.Unmarshal([]byte(`"`+body+`"`), &str); err != nil {
		return body
	}
	return str
}

func parseNumber(s string) result {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}

	hasDigits := false
	for i < len(s) && isDigit(s[i]) {
		hasDigits = true
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			hasDigits = true
			i++
		}
	}
	if !hasDigits {
		return fail(IncompleteNumber, s)
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '-' || s[i] == '+') {
			i++
		}
		hasExponent := false
		for i < len(s) && isDigit(s[i]) {
			hasExponent = true
			i++
		}
		if !hasExponent {
			return fail(IncompleteNumber, s)
		}
	}

	n, err := strconv.ParseFloat(s[:i], 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return fail(IncompleteNumber, s)
	}
	return result{v: Number(n), rest: s[i:]}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// parseLiteral matches lit exactly. In lenient mode, text that ends partway through lit (ex: `fal`) is a cut-off Null.
func (d Decoder) parseLiteral(s string, lit string, v Value) result {
	if strings.HasPrefix(s, lit) {
		return result{v: v, rest: s[len(lit):]}
	}
	if !d.Strict && len(s) < len(lit) && strings.HasPrefix(lit, s) {
		return result{partial: true}
	}
	return fail(UnexpectedToken, s)
}
