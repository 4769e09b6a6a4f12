package etherlite

import (
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

/*
Represents a broad category of EVM types. Used internally for ABI encoding and
decoding.
*/
type AbiKind byte

const (
	AbiKindBool AbiKind = iota + 1
	AbiKindUint
	AbiKindInt
	AbiKindAddress
	AbiKindFunction
	AbiKindFixedBytes // `bytes1` .. `bytes32`
	AbiKindBytes      // `bytes`
	AbiKindString     // `string`
	AbiKindArray      // `T[k]` and `T[]`
	AbiKindTuple
)

// Implements "fmt.Stringer".
func (self AbiKind) String() string {
	switch self {
	case AbiKindBool:
		return "AbiKindBool"
	case AbiKindUint:
		return "AbiKindUint"
	case AbiKindInt:
		return "AbiKindInt"
	case AbiKindAddress:
		return "AbiKindAddress"
	case AbiKindFunction:
		return "AbiKindFunction"
	case AbiKindFixedBytes:
		return "AbiKindFixedBytes"
	case AbiKindBytes:
		return "AbiKindBytes"
	case AbiKindString:
		return "AbiKindString"
	case AbiKindArray:
		return "AbiKindArray"
	case AbiKindTuple:
		return "AbiKindTuple"
	default:
		return ""
	}
}

// Width of the EVM's memory granularity, in bytes.
const wordSize = 256 / 8

/*
Details about a concrete EVM type. Used for ABI encoding and decoding.

"Bits" is the declared width of integer types. "ArrayLen" is the byte length of
"bytesN" or the element count of "T[k]". "Components" and "Names" describe the
members of a tuple.
*/
type AbiType struct {
	Type       string
	Kind       AbiKind
	Bits       int
	ArrayLen   int
	FixedLen   bool
	Elem       *AbiType
	Components []AbiType
	Names      []string
}

/*
Determines how many bytes the head slot of this type occupies when
ABI-encoded inline. Returns -1 for dynamically-sized types, which are encoded
as an offset in the head and their content in the tail.
*/
func (self AbiType) Size() int {
	switch self.Kind {
	case AbiKindBytes, AbiKindString:
		return -1

	case AbiKindArray:
		if !self.FixedLen {
			return -1
		}
		size := self.Elem.Size()
		if size < 0 {
			return -1
		}
		return size * self.ArrayLen

	case AbiKindTuple:
		total := 0
		for _, comp := range self.Components {
			size := comp.Size()
			if size < 0 {
				return -1
			}
			total += size
		}
		return total

	default:
		return wordSize
	}
}

// True if a value of this type has a fixed size and is ABI-encoded inline,
// without a "tail" reference.
func (self AbiType) IsStaticallySized() bool {
	return self.Size() >= 0
}

// Number of bytes this type contributes to the head of an enclosing tuple.
func (self AbiType) headSize() int {
	size := self.Size()
	if size < 0 {
		return wordSize
	}
	return size
}

/*
The canonical type name used in function and event signatures. Aliases are
expanded ("uint" becomes "uint256") and tuples are spelled out as
"(t1,t2,...)", keeping any array suffix.
*/
func (self AbiType) Canonical() string {
	switch self.Kind {
	case AbiKindTuple:
		parts := make([]string, len(self.Components))
		for i, comp := range self.Components {
			parts[i] = comp.Canonical()
		}
		return "(" + strings.Join(parts, ",") + ")"

	case AbiKindArray:
		if self.FixedLen {
			return self.Elem.Canonical() + "[" + strconv.Itoa(self.ArrayLen) + "]"
		}
		return self.Elem.Canonical() + "[]"

	case AbiKindUint:
		return "uint" + strconv.Itoa(self.Bits)

	case AbiKindInt:
		return "int" + strconv.Itoa(self.Bits)

	case AbiKindFixedBytes:
		return "bytes" + strconv.Itoa(self.ArrayLen)

	default:
		return self.Type
	}
}

// Integer range for "uintN"/"intN", inclusive on both ends.
func (self AbiType) intRange() (min *big.Int, max *big.Int) {
	if self.Kind == AbiKindUint {
		max = new(big.Int).Lsh(bigOne, uint(self.Bits))
		return new(big.Int), max.Sub(max, bigOne)
	}
	max = new(big.Int).Lsh(bigOne, uint(self.Bits-1))
	min = new(big.Int).Neg(max)
	return min, max.Sub(max, bigOne)
}

var (
	abiUintReg       = regexp.MustCompile(`^uint(\d*)$`)
	abiIntReg        = regexp.MustCompile(`^int(\d*)$`)
	abiByteArrayReg  = regexp.MustCompile(`^bytes(\d+)$`)
	abiFixedArrayReg = regexp.MustCompile(`^(.+)\[(\d+)\]$`)
	abiArrayReg      = regexp.MustCompile(`^(.+)\[\]$`)
)

/*
Accepts a name of an EVM type, such as "bytes32", "uint256" or "address[12]",
and returns its details as an AbiType. Tuples require "ParseAbiTupleType",
since their members aren't part of the name.
*/
func ParseAbiType(typeName string) (AbiType, error) {
	return parseAbiType(typeName, nil)
}

/*
Parses a type that may be, or contain, a tuple: "tuple", "tuple[]",
"tuple[3][]". The components describe the tuple's members.
*/
func ParseAbiTupleType(typeName string, components []AbiParam) (AbiType, error) {
	return parseAbiType(typeName, components)
}

func parseAbiType(typeName string, components []AbiParam) (AbiType, error) {
	switch {
	case typeName == "bool":
		return AbiType{Type: typeName, Kind: AbiKindBool}, nil

	case typeName == "address":
		return AbiType{Type: typeName, Kind: AbiKindAddress}, nil

	case typeName == "function":
		return AbiType{Type: typeName, Kind: AbiKindFunction, ArrayLen: 24, FixedLen: true}, nil

	case typeName == "string":
		return AbiType{Type: typeName, Kind: AbiKindString}, nil

	case typeName == "bytes":
		return AbiType{Type: typeName, Kind: AbiKindBytes}, nil

	case typeName == "byte":
		return AbiType{Type: typeName, Kind: AbiKindFixedBytes, ArrayLen: 1, FixedLen: true}, nil

	case typeName == "tuple":
		return parseAbiTuple(components)

	case abiFixedArrayReg.MatchString(typeName):
		match := abiFixedArrayReg.FindStringSubmatch(typeName)
		length, err := strconv.ParseUint(match[2], 10, 32)
		if err != nil || length == 0 {
			return AbiType{}, errors.Errorf(`failed to parse %q as Solidity type: invalid array length`, typeName)
		}
		elemType, err := parseAbiType(match[1], components)
		if err != nil {
			return AbiType{}, errors.Wrapf(err, `failed to parse %q as Solidity type`, typeName)
		}
		return AbiType{Type: typeName, Kind: AbiKindArray, ArrayLen: int(length), FixedLen: true, Elem: &elemType}, nil

	case abiArrayReg.MatchString(typeName):
		match := abiArrayReg.FindStringSubmatch(typeName)
		elemType, err := parseAbiType(match[1], components)
		if err != nil {
			return AbiType{}, errors.Wrapf(err, `failed to parse %q as Solidity type`, typeName)
		}
		return AbiType{Type: typeName, Kind: AbiKindArray, Elem: &elemType}, nil

	case abiByteArrayReg.MatchString(typeName):
		match := abiByteArrayReg.FindStringSubmatch(typeName)
		length, err := strconv.Atoi(match[1])
		if err != nil || length < 1 || length > wordSize {
			return AbiType{}, errors.Errorf(`failed to parse %q as Solidity type: size must be 1..32`, typeName)
		}
		return AbiType{Type: typeName, Kind: AbiKindFixedBytes, ArrayLen: length, FixedLen: true}, nil

	case abiUintReg.MatchString(typeName):
		bits, err := parseIntBits(typeName, abiUintReg.FindStringSubmatch(typeName)[1])
		return AbiType{Type: typeName, Kind: AbiKindUint, Bits: bits}, err

	case abiIntReg.MatchString(typeName):
		bits, err := parseIntBits(typeName, abiIntReg.FindStringSubmatch(typeName)[1])
		return AbiType{Type: typeName, Kind: AbiKindInt, Bits: bits}, err

	default:
		return AbiType{}, errors.Errorf(`failed to parse %q as Solidity type`, typeName)
	}
}

func parseAbiTuple(components []AbiParam) (AbiType, error) {
	if len(components) == 0 {
		return AbiType{}, errors.New(`failed to parse tuple: missing components`)
	}
	out := AbiType{
		Type:       "tuple",
		Kind:       AbiKindTuple,
		Components: make([]AbiType, len(components)),
		Names:      make([]string, len(components)),
	}
	for i, comp := range components {
		out.Components[i] = comp.AbiType
		out.Names[i] = comp.Name
	}
	return out, nil
}

// Bare "uint" and "int" are aliases for the 256-bit types.
func parseIntBits(typeName string, digits string) (int, error) {
	if digits == "" {
		return 256, nil
	}
	bits, err := strconv.Atoi(digits)
	if err != nil || bits < 8 || bits > 256 || bits%8 != 0 {
		return 0, errors.Errorf(`failed to parse %q as Solidity type: width must be a multiple of 8 in 8..256`, typeName)
	}
	return bits, nil
}
