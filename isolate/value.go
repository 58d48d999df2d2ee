package isolate

import (
	"math"
	"strconv"
	"strings"

	jsg "github.com/jerbob92/wazero-jsg/internal"
)

// primitive provides the negative answers of jsg.Value for the primitive
// value types.
type primitive struct{}

func (primitive) IsUndefined() bool { return false }
func (primitive) IsNull() bool      { return false }
func (primitive) IsBoolean() bool   { return false }
func (primitive) IsNumber() bool    { return false }
func (primitive) IsString() bool    { return false }
func (primitive) IsObject() bool    { return false }

type Undefined struct{ primitive }

func (Undefined) TypeOf() string    { return "undefined" }
func (Undefined) IsUndefined() bool { return true }

type Null struct{ primitive }

// TypeOf of null is "object", as in every ECMAScript engine.
func (Null) TypeOf() string { return "object" }
func (Null) IsNull() bool   { return true }

type Boolean struct {
	primitive
	value bool
}

func (Boolean) TypeOf() string  { return "boolean" }
func (Boolean) IsBoolean() bool { return true }
func (b Boolean) Value() bool   { return b.value }

type Number struct {
	primitive
	value float64
}

func (Number) TypeOf() string   { return "number" }
func (Number) IsNumber() bool   { return true }
func (n Number) Value() float64 { return n.value }

var (
	undefinedValue jsg.Value = Undefined{}
	nullValue      jsg.Value = Null{}
	trueValue      jsg.Value = Boolean{value: true}
	falseValue     jsg.Value = Boolean{value: false}
)

func toBoolean(v jsg.Value) bool {
	switch val := v.(type) {
	case nil, Undefined, Null:
		return false
	case Boolean:
		return val.value
	case Number:
		return val.value != 0 && !math.IsNaN(val.value)
	case *String:
		return val.Length() > 0
	}
	return true
}

func toNumber(v jsg.Value) float64 {
	switch val := v.(type) {
	case nil, Undefined:
		return math.NaN()
	case Null:
		return 0
	case Boolean:
		if val.value {
			return 1
		}
		return 0
	case Number:
		return val.value
	case *String:
		return stringToNumber(val.String())
	}
	return math.NaN()
}

func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	// ParseFloat accepts spellings like "inf" and "1_0" that are not numbers
	// in script code.
	for _, r := range s {
		if !strings.ContainsRune("0123456789+-.eE", r) {
			return math.NaN()
		}
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return n
}

func numberToString(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	}
	abs := math.Abs(n)
	if abs >= 1e21 || abs < 1e-6 {
		return strconv.FormatFloat(n, 'g', -1, 64)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func toString(v jsg.Value) string {
	switch val := v.(type) {
	case nil, Undefined:
		return "undefined"
	case Null:
		return "null"
	case Boolean:
		return strconv.FormatBool(val.value)
	case Number:
		return numberToString(val.value)
	case *String:
		return val.String()
	case *Object:
		return val.toString()
	}
	return ""
}
