package question

import (
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// Value is a sealed interface over the four answer value variants.
// Only Text, Number, Choice, and MultiChoice implement it. A nil Value
// means "not answered".
type Value interface {
	answerValue() // Sealed - only these types implement it

	// Encode renders the value into its stored string form.
	Encode() string
}

// Text is a free-text answer. Encoded as the NFC-normalized string itself.
type Text string

func (Text) answerValue() {}

// Encode returns the NFC-normalized text. Normalizing on write keeps
// equality checks against seeded dependency values byte-stable.
func (t Text) Encode() string {
	return norm.NFC.String(string(t))
}

// Number is an integer answer. Encoded in base 10.
type Number int64

func (Number) answerValue() {}

func (n Number) Encode() string {
	return strconv.FormatInt(int64(n), 10)
}

// Choice is a single selected option. Encoded as the option string.
type Choice string

func (Choice) answerValue() {}

func (c Choice) Encode() string {
	return string(c)
}

// MultiChoice is an ordered list of selected options. Encoded as a JSON
// string array. Selection order is preserved.
type MultiChoice []string

func (MultiChoice) answerValue() {}

func (m MultiChoice) Encode() string {
	if m == nil {
		m = MultiChoice{}
	}
	b, err := json.Marshal([]string(m))
	if err != nil {
		// A []string cannot fail to marshal.
		panic(fmt.Sprintf("encode multi-choice: %v", err))
	}
	return string(b)
}

// Decode parses a stored answer string according to the question kind.
// Returns an error for malformed input; callers that must keep rendering
// use DecodeOrRaw instead.
func Decode(kind Kind, raw string) (Value, error) {
	switch kind {
	case KindText:
		return Text(raw), nil

	case KindNumber:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode number answer %q: %w", raw, err)
		}
		return Number(n), nil

	case KindSingleChoice:
		return Choice(raw), nil

	case KindMultiChoice:
		var opts []string
		if err := json.Unmarshal([]byte(raw), &opts); err != nil {
			return nil, fmt.Errorf("decode multi-choice answer %q: %w", raw, err)
		}
		return MultiChoice(opts), nil

	default:
		return nil, fmt.Errorf("decode answer: unknown kind %q", kind)
	}
}

// DecodeOrRaw decodes a stored answer, substituting the raw string as a
// Text value when decoding fails. A single malformed row must never abort
// session hydration.
func DecodeOrRaw(kind Kind, raw string) Value {
	v, err := Decode(kind, raw)
	if err != nil {
		return Text(raw)
	}
	return v
}

// Answered reports whether a cached value counts as an answer.
//
// nil and the empty string are not answers. Number(0) is an answer. An
// empty MultiChoice is an answer: the emptiness check is string-shaped and
// an empty selection does not render as the empty string.
func Answered(v Value) bool {
	if v == nil {
		return false
	}
	if t, ok := v.(Text); ok && t == "" {
		return false
	}
	if c, ok := v.(Choice); ok && c == "" {
		return false
	}
	return true
}

// Matches reports whether a cached value satisfies a dependency condition.
// The comparison is strict equality against the scalar rendering of the
// value; multi-choice answers never match a scalar condition.
func Matches(v Value, want string) bool {
	if v == nil {
		return false
	}
	switch val := v.(type) {
	case Text:
		return string(val) == want
	case Choice:
		return string(val) == want
	case Number:
		return val.Encode() == want
	case MultiChoice:
		return false
	default:
		return false
	}
}
