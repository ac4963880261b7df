package bencode

import (
	"encoding"
	"fmt"
	"math"
	"math/big"
	"net"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnmarshalStruct(t *testing.T) {
	type Address struct {
		City    string
		ZipCode int32 `bencode:"zip,omitempty"`
	}

	//goland:noinspection ALL
	type Student struct {
		Name       string
		AgeInYears int64  `bencode:"age"`
		SkipThis   string `bencode:"-"`
		Tags       Tags
		Address    *Address
		Height     float32
		Accepted   bool

		// not exported, must not be set
		note string
	}

	source := DictOf(map[string]Value{
		"Name":     Bytes("Albert"),
		"age":      NewInt(21),
		"Height":   Float(1.76),
		"Tags":     Bytes("foo,bar"),
		"Accepted": NewInt(1),
		"Address": DictOf(map[string]Value{
			"City": Text("Zürich"),
			"zip":  NewInt(8015),
		}),

		// should not be used
		"SkipThis": Bytes("FOOBAR"),
		"-":        Bytes("FOOBAR"),
		"note":     Bytes("FOOBAR"),
	})

	var stud Student
	err := UnmarshalValue(source, &stud)
	require.Equal(t, err, nil)
	require.Equal(t, stud, Student{
		Name:       "Albert",
		AgeInYears: 21,
		Tags:       Tags{"foo", "bar"},
		Height:     1.76,
		Accepted:   true,
		Address: &Address{
			City:    "Zürich",
			ZipCode: 8015,
		},
	})
}

func TestUnmarshalStructWithMap(t *testing.T) {
	type Struct struct {
		Type   string
		Values map[string]string
	}

	var stud Struct
	err := Unmarshal([]byte("d4:Type3:Foo6:Valuesd3:One4:Eins3:Two4:Zweiee"), &stud)
	require.Equal(t, err, nil)
	require.Equal(t, stud, Struct{
		Type: "Foo",
		Values: map[string]string{
			"One": "Eins",
			"Two": "Zwei",
		},
	})
}

func TestUnmarshalMapWithIntKeys(t *testing.T) {
	var values map[int]string
	err := Unmarshal([]byte("di1e3:onei2e3:twoe"), &values)
	require.NoError(t, err)
	require.Equal(t, values, map[int]string{1: "one", 2: "two"})
}

func TestNaming_TagExplicit(t *testing.T) {
	type Struct struct {
		A string
		B string `bencode:"A"`
	}

	var stud Struct
	err := UnmarshalValue(DictOf(map[string]Value{"A": Bytes("A"), "B": Bytes("B")}), &stud)
	require.Equal(t, err, nil)
	require.Equal(t, stud, Struct{B: "A"})
}

func TestNaming_TagSkip(t *testing.T) {
	type Struct struct {
		A string
		B string `bencode:"-"`
	}

	var stud Struct
	err := UnmarshalValue(DictOf(map[string]Value{"A": Bytes("A"), "B": Bytes("B")}), &stud)
	require.Equal(t, err, nil)
	require.Equal(t, stud, Struct{A: "A"})
}

func TestNaming_TagNoName(t *testing.T) {
	type Struct struct {
		A string
		B string `bencode:",omitempty"` // same as no tag
	}

	var stud Struct
	err := UnmarshalValue(DictOf(map[string]Value{"A": Bytes("A"), "B": Bytes("B")}), &stud)
	require.Equal(t, err, nil)
	require.Equal(t, stud, Struct{A: "A", B: "B"})
}

func TestNaming_EmbeddedNamingConflict(t *testing.T) {
	type First struct{ A string }
	type Second struct{ A string }

	type Struct struct {
		First
		Second
	}

	var stud Struct
	err := UnmarshalValue(DictOf(map[string]Value{"A": Bytes("A")}), &stud)
	require.Equal(t, err, nil)
	require.Equal(t, stud, Struct{
		// naming conflict, nothing deserializes
	})
}

func TestNaming_EmbeddedNamingExplicitWinsOnSameNesting(t *testing.T) {
	type First struct {
		A string
	}
	type Second struct {
		A string `bencode:"A"` // this one wins
	}

	type Struct struct {
		First
		Second
	}

	var stud Struct
	err := UnmarshalValue(DictOf(map[string]Value{"A": Bytes("A")}), &stud)
	require.Equal(t, err, nil)
	require.Equal(t, stud, Struct{Second: Second{A: "A"}})
}

func TestNaming_EmbeddedLowerNestingWins(t *testing.T) {
	type First struct{ A string }

	type Struct struct {
		First
		A string // this one wins
	}

	var stud Struct
	err := UnmarshalValue(DictOf(map[string]Value{"A": Bytes("A")}), &stud)
	require.Equal(t, err, nil)
	require.Equal(t, stud, Struct{A: "A"})
}

func TestNaming_NoEmbeddingWithExplicitTag(t *testing.T) {
	type First struct{ A string }

	type Struct struct {
		First `bencode:"First"`
		A     string
	}

	source := DictOf(map[string]Value{
		"A":     Bytes("A"),
		"First": DictOf(map[string]Value{"A": Bytes("FirstA")}),
	})

	var stud Struct
	err := UnmarshalValue(source, &stud)
	require.Equal(t, err, nil)
	require.Equal(t, stud, Struct{A: "A", First: First{A: "FirstA"}})
}

func TestNaming_NoEmbeddingWithPointer(t *testing.T) {
	type First struct{ A string }

	type Struct struct {
		*First
	}

	var stud Struct
	err := UnmarshalValue(DictOf(map[string]Value{"A": Bytes("A")}), &stud)
	require.Equal(t, err, nil)
	require.Equal(t, stud, Struct{})
}

func TestNaming_MultipleEmbeddedTypes(t *testing.T) {
	type First struct {
		A string
		B string
		D string `bencode:"D"`
	}

	type Second struct {
		A string // neither First.A, nor Second.A are filled
		B string `bencode:"C"` // First.B and Second.B are both filled
		D string // Only first.D is filled
	}

	type Struct struct {
		First
		Second
	}

	source := DictOf(map[string]Value{
		"A": Bytes("A"),
		"B": Bytes("FirstB"),
		"C": Bytes("SecondB"),
		"D": Bytes("FirstD"),
	})

	var stud Struct
	err := UnmarshalValue(source, &stud)
	require.Equal(t, err, nil)
	require.Equal(t, stud, Struct{
		First:  First{B: "FirstB", D: "FirstD"},
		Second: Second{B: "SecondB"},
	})
}

func TestUnsupportedType(t *testing.T) {
	type Struct struct{ A chan int }

	var stud Struct
	err := UnmarshalValue(NewDict(), &stud)

	var notSupportedError NotSupportedError
	require.ErrorAs(t, err, &notSupportedError)
	require.Equal(t, notSupportedError.Type, reflect.TypeFor[chan int]())
}

func TestUnmarshalTextUnmarshalerInterface(t *testing.T) {
	type Struct struct {
		Foo encoding.TextUnmarshaler
	}

	var stud Struct
	err := UnmarshalValue(NewDict(), &stud)
	require.ErrorIs(t, err, NotSupportedError{Type: reflect.TypeFor[encoding.TextUnmarshaler]()})
}

func TestUnmarshalRequiresPointer(t *testing.T) {
	var value int

	require.ErrorIs(t, UnmarshalValue(NewInt(1), value), ErrNotSupported)
	require.ErrorIs(t, UnmarshalValue(NewInt(1), (*int)(nil)), ErrNotSupported)
}

func TestUnmarshalKindMismatch(t *testing.T) {
	type Struct struct {
		Length int
	}

	var stud Struct
	err := Unmarshal([]byte("d6:Length6:twelvee"), &stud)
	require.ErrorIs(t, err, ErrNotSupported)

	var list []string
	err = UnmarshalValue(NewDict(), &list)
	require.ErrorIs(t, err, ErrNotSupported)
}

func TestUnmarshalWithStructTag(t *testing.T) {
	type Struct struct {
		Foo string `bencode:"foo" json:"bar"`
	}

	data := []byte("d3:bar4:Json3:foo3:Bene")

	var parsed Struct
	err := New(WithStructTag("json")).Unmarshal(data, &parsed)
	require.NoError(t, err)
	require.Equal(t, parsed, Struct{Foo: "Json"})

	err = Strict().Unmarshal(data, &parsed)
	require.NoError(t, err)
	require.Equal(t, parsed, Struct{Foo: "Ben"})
}

type Tags []string

func (t *Tags) UnmarshalText(text []byte) error {
	*t = strings.Split(string(text), ",")
	return nil
}

func (t Tags) MarshalText() ([]byte, error) {
	return []byte(strings.Join(t, ",")), nil
}

func TestTextUnmarshaler(t *testing.T) {
	type Host struct {
		Host net.IP
		Port *int
	}

	http := 80

	var value Host
	err := Unmarshal([]byte("d4:Host9:127.0.0.14:Porti80ee"), &value)
	require.Equal(t, err, nil)
	require.Equal(t, value, Host{
		Host: net.IPv4(127, 0, 0, 1),
		Port: &http,
	})
}

func TestUnmarshalGitCommit(t *testing.T) {
	type GitCommit struct {
		Sha1   string
		Parent *GitCommit
	}

	data := "d6:Parentd6:Parentd6:Parentn4:Sha14:cccce4:Sha14:bbbbe4:Sha14:aaaae"

	var value GitCommit
	err := Unmarshal([]byte(data), &value)
	require.Equal(t, err, nil)
	require.Equal(t, value, GitCommit{
		Sha1: "aaaa",
		Parent: &GitCommit{
			Sha1: "bbbb",
			Parent: &GitCommit{
				Sha1:   "cccc",
				Parent: nil,
			},
		},
	})
}

func TestUnmarshalSliceValue(t *testing.T) {
	type Article struct {
		Text string
		Tags []string
	}

	var value Article
	err := Unmarshal([]byte("d4:Tagsl5:first6:second5:thirde4:Text14:some long texte"), &value)
	require.Equal(t, err, nil)
	require.Equal(t, value, Article{
		Text: "some long text",
		Tags: []string{
			"first",
			"second",
			"third",
		},
	})
}

func TestUnmarshalArrayValue(t *testing.T) {
	data := []byte("l5:first6:second5:thirde")

	var tags4 [4]string
	err := Unmarshal(data, &tags4)
	require.Equal(t, err, nil)
	require.Equal(t, tags4, [4]string{"first", "second", "third", ""})

	var tags2 [2]string
	err = Unmarshal(data, &tags2)
	require.Equal(t, err, nil)
	require.Equal(t, tags2, [2]string{"first", "second"})

	var ints [3]int
	err = Unmarshal([]byte("li1e1:xe"), &ints)
	require.ErrorIs(t, err, ErrNotSupported)
	require.ErrorContains(t, err, "set element idx=1")

	// elements past the length of the array are not looked at
	var first [1]int
	require.NoError(t, Unmarshal([]byte("li1e1:xe"), &first))
	require.Equal(t, [1]int{1}, first)
}

func TestUnmarshalBytes(t *testing.T) {
	type Info struct {
		Pieces []byte
		Hash   [4]byte
	}

	var info Info
	err := Unmarshal([]byte("d4:Hash4:\x01\x02\x03\x046:Pieces3:abce"), &info)
	require.NoError(t, err)
	require.Equal(t, info, Info{Pieces: []byte("abc"), Hash: [4]byte{1, 2, 3, 4}})

	err = Unmarshal([]byte("d4:Hash3:abce"), &info)
	require.ErrorIs(t, err, ErrNotSupported)
}

func TestUnmarshalBigInt(t *testing.T) {
	type Struct struct {
		Value *big.Int
		Plain big.Int
	}

	var value Struct
	err := Unmarshal([]byte("d5:Plaini-5e5:Valuei123456789012345678901234567890ee"), &value)
	require.NoError(t, err)
	require.Equal(t, "123456789012345678901234567890", value.Value.String())
	require.Equal(t, "-5", value.Plain.String())
}

func TestUnmarshalAny(t *testing.T) {
	var value any
	err := Unmarshal([]byte("d1:ai1e1:bl1:xnee"), &value)
	require.NoError(t, err)
	require.Equal(t, value, map[string]any{
		"a": int64(1),
		"b": []any{"x", nil},
	})
}

func TestUnmarshalValueTypes(t *testing.T) {
	type Struct struct {
		Raw   Value
		Info  *Dict
		Count Int
	}

	var value Struct
	err := Unmarshal([]byte("d5:Counti3e4:Infod1:ai1ee3:Rawl1:xee"), &value)
	require.NoError(t, err)

	require.Equal(t, value.Raw, List{Bytes("x")})
	require.Equal(t, value.Count, NewInt(3))
	require.Equal(t, 1, value.Info.Len())

	err = Unmarshal([]byte("d5:Count1:xe"), &value)
	require.ErrorIs(t, err, ErrNotSupported)
}

func TestUnmarshalDecorated(t *testing.T) {
	type Struct struct {
		Name string `bencode:"name"`
	}

	var value Struct
	err := New(WithDecoration()).Unmarshal([]byte("d4:name3:fooe"), &value)
	require.NoError(t, err)
	require.Equal(t, value, Struct{Name: "foo"})
}

func TestTypeInts(t *testing.T) {
	parseTest(t, intTestValues[int]{
		MinIn:      strconv.Itoa(math.MinInt),
		MinOut:     math.MinInt,
		MaxIn:      strconv.Itoa(math.MaxInt),
		MaxOut:     math.MaxInt,
		OutOfRange: []string{"-99999999999999999999", "99999999999999999999"},
	})

	parseTest(t, intTestValues[uint]{
		MinIn:      "0",
		MinOut:     0,
		MaxIn:      strconv.FormatUint(math.MaxUint, 10),
		MaxOut:     math.MaxUint,
		OutOfRange: []string{"99999999999999999999", "-1"},
	})

	parseTest(t, intTestValues[int8]{
		MinIn:      "-128",
		MinOut:     -128,
		MaxIn:      "127",
		MaxOut:     127,
		OutOfRange: []string{"-129", "128"},
	})

	parseTest(t, intTestValues[int16]{
		MinIn:      "-32768",
		MinOut:     -32768,
		MaxIn:      "32767",
		MaxOut:     32767,
		OutOfRange: []string{"-32769", "32768"},
	})

	parseTest(t, intTestValues[int32]{
		MinIn:      "-2147483648",
		MinOut:     -2147483648,
		MaxIn:      "2147483647",
		MaxOut:     2147483647,
		OutOfRange: []string{"-2147483649", "2147483648"},
	})

	parseTest(t, intTestValues[int64]{
		MinIn:      "-9223372036854775808",
		MinOut:     -9223372036854775808,
		MaxIn:      "9223372036854775807",
		MaxOut:     9223372036854775807,
		OutOfRange: []string{"-9223372036854775809", "9223372036854775808"},
	})

	parseTest(t, intTestValues[uint8]{
		MinIn:      "0",
		MinOut:     0,
		MaxIn:      "255",
		MaxOut:     255,
		OutOfRange: []string{"256", "-1"},
	})

	parseTest(t, intTestValues[uint16]{
		MinIn:      "0",
		MinOut:     0,
		MaxIn:      "65535",
		MaxOut:     65535,
		OutOfRange: []string{"65536", "-1"},
	})

	parseTest(t, intTestValues[uint32]{
		MinIn:      "0",
		MinOut:     0,
		MaxIn:      "4294967295",
		MaxOut:     4294967295,
		OutOfRange: []string{"4294967296", "-1"},
	})

	parseTest(t, intTestValues[uint64]{
		MinIn:      "0",
		MinOut:     0,
		MaxIn:      "18446744073709551615",
		MaxOut:     18446744073709551615,
		OutOfRange: []string{"18446744073709551616", "-1"},
	})

	parseTest(t, intTestValues[bool]{
		MinIn:  "0",
		MinOut: false,
		MaxIn:  "1",
		MaxOut: true,
	})

	parseTest(t, intTestValues[float64]{
		MinIn:  "-1234",
		MinOut: -1234,
		MaxIn:  "1235",
		MaxOut: 1235,
	})
}

type intTestValues[T any] struct {
	MinIn  string
	MinOut T

	MaxIn  string
	MaxOut T

	OutOfRange []string
}

func parseTest[T any](t *testing.T, v intTestValues[T]) {
	var tZero T

	t.Run(fmt.Sprintf("parse to %T", tZero), func(t *testing.T) {
		var actual T
		err := Unmarshal([]byte("i"+v.MinIn+"e"), &actual)
		require.NoError(t, err)
		require.Equal(t, actual, v.MinOut)

		err = Unmarshal([]byte("i"+v.MaxIn+"e"), &actual)
		require.NoError(t, err)
		require.Equal(t, actual, v.MaxOut)

		for _, value := range v.OutOfRange {
			actual = tZero
			err = Unmarshal([]byte("i"+value+"e"), &actual)
			require.ErrorIs(t, err, strconv.ErrRange)
			require.Equal(t, actual, tZero)
		}

		for _, value := range []Value{Bytes("foobar"), List{}, NewDict(), None{}} {
			actual = tZero
			err = UnmarshalValue(value, &actual)
			require.ErrorIs(t, err, ErrNotSupported)
			require.Equal(t, actual, tZero)
		}
	})
}
