package value

import (
	"fmt"
	"math/big"
	"strconv"
)

type Kind int

const (
	Text Kind = iota
	Integer
	Float
	Boolean
)

var kindNames = [...]string{
	Text:    "text",
	Integer: "int",
	Float:   "float",
	Boolean: "bool",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

var (
	// MinInt and MaxInt bound the Integer kind to a signed 128-bit word.
	MinInt = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	MaxInt = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
)

// Value is a literal carried by a token. Exactly one of the payload fields is
// meaningful, selected by Kind.
type Value struct {
	Kind  Kind
	Str   string
	Int   *big.Int
	Float float64
	Bool  bool
}

func NewText(s string) Value   { return Value{Kind: Text, Str: s} }
func NewFloat(f float64) Value { return Value{Kind: Float, Float: f} }
func NewBool(b bool) Value     { return Value{Kind: Boolean, Bool: b} }

// NewInt copies i. It reports false if i does not fit in 128 bits.
func NewInt(i *big.Int) (Value, bool) {
	if i.Cmp(MinInt) < 0 || i.Cmp(MaxInt) > 0 {
		return Value{}, false
	}
	return Value{Kind: Integer, Int: new(big.Int).Set(i)}, true
}

// ParseInt parses a base-10 integer literal.
func ParseInt(s string) (Value, error) {
	i, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Value{}, fmt.Errorf("invalid integer literal %q", s)
	}
	v, ok := NewInt(i)
	if !ok {
		return Value{}, fmt.Errorf("integer literal %s overflows 128 bits", s)
	}
	return v, nil
}

func ParseFloat(s string) (Value, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, fmt.Errorf("invalid floating-point literal %q: %w", s, err)
	}
	return NewFloat(f), nil
}

func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case Text:
		return v.Str == o.Str
	case Integer:
		if v.Int == nil || o.Int == nil {
			return v.Int == o.Int
		}
		return v.Int.Cmp(o.Int) == 0
	case Float:
		return v.Float == o.Float
	case Boolean:
		return v.Bool == o.Bool
	}
	return false
}

func (v Value) String() string {
	switch v.Kind {
	case Text:
		return strconv.Quote(v.Str)
	case Integer:
		if v.Int == nil {
			return "0"
		}
		return v.Int.String()
	case Float:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case Boolean:
		return strconv.FormatBool(v.Bool)
	}
	return "<invalid>"
}
