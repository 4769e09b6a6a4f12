package etherlite

/*
Head/tail ABI codec. See https://docs.soliditylang.org/en/latest/abi-spec.html

Every value of a tuple (argument lists, return lists, event data, struct
values, array elements) occupies a head slot. Statically-sized values are
encoded inline in the head. Dynamically-sized values (bytes, string, T[],
and any array or tuple containing them) put a 32-byte offset into the head,
measured from the start of the enclosing tuple, and their content into the
tail that follows the heads.
*/

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"
)

/*
Allows a user-defined type to implement its own ABI encoding. Invoked by
ABI-encoding functions. The output must be the complete encoding of the value,
padded to a multiple of 32 bytes.
*/
type AbiMarshaler interface {
	EthAbiMarshal() ([]byte, error)
}

/*
Allows a user-defined type to implement its own ABI decoding. Invoked by
ABI-decoding functions with the input positioned at the start of the value.
*/
type AbiUnmarshaler interface {
	EthAbiUnmarshal([]byte) error
}

/*
ABI-encodes an arbitrary Go value as the provided type. For dynamically-sized
types, the output is the tail content (length prefix included) without an
offset. Returns "*AbiEncodeError" in case of type mismatch or a value outside
the type's range.
*/
func AbiMarshal(atype AbiType, input interface{}) ([]byte, error) {
	return abiEncode(atype, reflect.ValueOf(input))
}

/*
ABI-encodes multiple values, typically parameters to a method call. Returns
"*AbiEncodeError" in case of arity mismatch, type mismatch, or out-of-range
values.
*/
func AbiMarshalTuple(params []AbiParam, args ...interface{}) ([]byte, error) {
	return abiAppendTuple(nil, params, args)
}

func abiAppendTuple(out []byte, params []AbiParam, inputs []interface{}) ([]byte, error) {
	if len(params) != len(inputs) {
		return out, &AbiEncodeError{Type: paramsSignature(params),
			Reason: fmt.Sprintf(`arity mismatch: expected %v inputs, got %v`, len(params), len(inputs))}
	}

	types := make([]AbiType, len(params))
	vals := make([]reflect.Value, len(params))
	for i, param := range params {
		types[i] = param.AbiType
		vals[i] = reflect.ValueOf(inputs[i])
	}

	enc, err := abiEncodeTuple(types, vals)
	if err != nil {
		return out, err
	}
	return append(out, enc...), nil
}

func abiEncodeTuple(types []AbiType, vals []reflect.Value) ([]byte, error) {
	headLen := 0
	for _, atype := range types {
		headLen += atype.headSize()
	}

	head := make([]byte, 0, headLen)
	var tail []byte

	for i, atype := range types {
		enc, err := abiEncode(atype, vals[i])
		if err != nil {
			return nil, err
		}

		if len(enc)%wordSize != 0 {
			return nil, &AbiEncodeError{Type: atype.Canonical(),
				Reason: fmt.Sprintf(`expected output to be %v-byte-aligned, found length %v`, wordSize, len(enc))}
		}

		if atype.IsStaticallySized() {
			if len(enc) != atype.Size() {
				return nil, &AbiEncodeError{Type: atype.Canonical(),
					Reason: fmt.Sprintf(`expected output size to be %v bytes, found %v bytes`, atype.Size(), len(enc))}
			}
			head = append(head, enc...)
			continue
		}

		head = abiAppendUint64(head, uint64(headLen+len(tail)))
		tail = append(tail, enc...)
	}

	return append(head, tail...), nil
}

func abiEncode(atype AbiType, val reflect.Value) ([]byte, error) {
	val, err := deref(atype, val)
	if err != nil {
		return nil, err
	}

	if val.CanInterface() {
		if mar, ok := val.Interface().(AbiMarshaler); ok {
			return mar.EthAbiMarshal()
		}
	}

	typ := val.Type()

	switch atype.Kind {
	case AbiKindBool:
		if typ.Kind() == reflect.Bool {
			if val.Bool() {
				return trueWord[:], nil
			}
			return falseWord[:], nil
		}
		return nil, typeMismatchEnc(atype, typ)

	case AbiKindUint, AbiKindInt:
		num, ok := reflectBigInt(val)
		if !ok {
			return nil, typeMismatchEnc(atype, typ)
		}
		min, max := atype.intRange()
		if num.Cmp(min) < 0 || num.Cmp(max) > 0 {
			return nil, &AbiEncodeError{Type: atype.Canonical(),
				Reason: fmt.Sprintf(`value %v out of range [%v, %v]`, num, min, max)}
		}
		return abiEncodeBigInt(num), nil

	case AbiKindAddress:
		if typ.Kind() == reflect.String {
			addr, err := ParseAddress(val.String())
			if err != nil {
				return nil, &AbiEncodeError{Type: atype.Canonical(), Reason: err.Error()}
			}
			return appendLeftPadded(nil, addr[:]), nil
		}
		if typ.ConvertibleTo(addressType) && typ.Kind() == reflect.Array {
			addr := val.Convert(addressType).Interface().(Address)
			return appendLeftPadded(nil, addr[:]), nil
		}
		return nil, typeMismatchEnc(atype, typ)

	case AbiKindFunction, AbiKindFixedBytes:
		input, ok := reflectBytes(val)
		if !ok {
			return nil, typeMismatchEnc(atype, typ)
		}
		if typ.Kind() == reflect.Array && len(input) != atype.ArrayLen {
			return nil, &AbiEncodeError{Type: atype.Canonical(),
				Reason: fmt.Sprintf(`expected exactly %v bytes, got an array of %v`, atype.ArrayLen, len(input))}
		}
		if len(input) > atype.ArrayLen {
			return nil, &AbiEncodeError{Type: atype.Canonical(),
				Reason: fmt.Sprintf(`%v bytes don't fit into %v`, len(input), atype.ArrayLen)}
		}
		return appendRightPadded(nil, input, wordSize), nil

	case AbiKindBytes, AbiKindString:
		var input []byte
		if typ.Kind() == reflect.String {
			input = stringToBytesUnsafe(val.String())
		} else if bytes, ok := reflectBytes(val); ok && typ.Kind() == reflect.Slice {
			input = bytes
		} else {
			return nil, typeMismatchEnc(atype, typ)
		}
		out := abiAppendUint64(nil, uint64(len(input)))
		return appendRightPadded(out, input, 0), nil

	case AbiKindArray:
		if typ.Kind() != reflect.Slice && typ.Kind() != reflect.Array {
			return nil, typeMismatchEnc(atype, typ)
		}
		length := val.Len()
		if atype.FixedLen && length != atype.ArrayLen {
			return nil, &AbiEncodeError{Type: atype.Canonical(),
				Reason: fmt.Sprintf(`expected %v elements, got %v`, atype.ArrayLen, length)}
		}

		types := repeatType(*atype.Elem, length)
		vals := make([]reflect.Value, length)
		for i := range vals {
			vals[i] = val.Index(i)
		}

		body, err := abiEncodeTuple(types, vals)
		if err != nil {
			return nil, err
		}
		if atype.FixedLen {
			return body, nil
		}
		return append(abiAppendUint64(nil, uint64(length)), body...), nil

	case AbiKindTuple:
		vals, err := tupleFields(atype, val)
		if err != nil {
			return nil, err
		}
		return abiEncodeTuple(atype.Components, vals)

	default:
		return nil, typeMismatchEnc(atype, typ)
	}
}

// Accepts a slice or array with one element per component, a struct with one
// exported field per component, or a map keyed by component names.
func tupleFields(atype AbiType, val reflect.Value) ([]reflect.Value, error) {
	count := len(atype.Components)
	typ := val.Type()
	out := make([]reflect.Value, 0, count)

	switch typ.Kind() {
	case reflect.Slice, reflect.Array:
		if val.Len() != count {
			return nil, &AbiEncodeError{Type: atype.Canonical(),
				Reason: fmt.Sprintf(`expected %v tuple members, got %v`, count, val.Len())}
		}
		for i := 0; i < count; i++ {
			out = append(out, val.Index(i))
		}

	case reflect.Struct:
		for i := 0; i < typ.NumField(); i++ {
			if typ.Field(i).IsExported() {
				out = append(out, val.Field(i))
			}
		}
		if len(out) != count {
			return nil, &AbiEncodeError{Type: atype.Canonical(),
				Reason: fmt.Sprintf(`expected %v exported fields in %v, found %v`, count, typ, len(out))}
		}

	case reflect.Map:
		if typ.Key().Kind() != reflect.String {
			return nil, typeMismatchEnc(atype, typ)
		}
		for i, name := range atype.Names {
			elem := val.MapIndex(reflect.ValueOf(name).Convert(typ.Key()))
			if !elem.IsValid() {
				return nil, &AbiEncodeError{Type: atype.Canonical(),
					Reason: fmt.Sprintf(`missing tuple member %q (%v)`, name, i)}
			}
			out = append(out, elem)
		}

	default:
		return nil, typeMismatchEnc(atype, typ)
	}
	return out, nil
}

/*
ABI-decodes multiple values, typically return values from a method call or
non-indexed event parameters, into natural Go values:

	bool              bool
	uintN, intN       *big.Int
	address           Address
	bytesN, bytes     []byte
	string            string
	function          [24]byte
	T[k], T[], tuple  []interface{}

Returns "*AbiDecodeError" when the input is shorter than the static layout,
or longer when every param is statically sized, when an offset or length
points outside the buffer, or when a value violates its type's range or
padding.
*/
func AbiDecodeTuple(input []byte, params []AbiParam) ([]interface{}, error) {
	types := paramTypes(params)
	err := checkStaticLength(types, input)
	if err != nil {
		return nil, err
	}
	return abiDecodeTuple(types, input)
}

func paramTypes(params []AbiParam) []AbiType {
	out := make([]AbiType, len(params))
	for i, param := range params {
		out[i] = param.AbiType
	}
	return out
}

// A fully static tuple has exactly one valid encoding length.
func checkStaticLength(types []AbiType, input []byte) error {
	total := 0
	for _, atype := range types {
		size := atype.Size()
		if size < 0 {
			return nil
		}
		total += size
	}
	if len(input) != total {
		return &AbiDecodeError{Type: tupleCanonical(types), Reason: lenMismatch(total, len(input))}
	}
	return nil
}

func tupleCanonical(types []AbiType) string {
	names := make([]string, len(types))
	for i, atype := range types {
		names[i] = atype.Canonical()
	}
	return "(" + strings.Join(names, ",") + ")"
}

// ABI-decodes a single value positioned at the start of the input. See
// "AbiDecodeTuple" for the output types.
func AbiDecode(atype AbiType, input []byte) (interface{}, error) {
	return abiDecodeValue(atype, input)
}

func abiDecodeTuple(types []AbiType, input []byte) ([]interface{}, error) {
	parts, err := abiTupleParts(types, input)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, len(types))
	for i, atype := range types {
		out[i], err = abiDecodeValue(atype, parts[i])
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

/*
Splits a tuple's encoding into one slice per member. A statically-sized member
gets its head slot; a dynamically-sized member gets the buffer starting at the
offset found in its head slot.
*/
func abiTupleParts(types []AbiType, input []byte) ([][]byte, error) {
	out := make([][]byte, len(types))
	pos := 0

	for i, atype := range types {
		size := atype.Size()
		if size >= 0 {
			if len(input) < pos+size {
				return nil, &AbiDecodeError{Type: atype.Canonical(), Reason: lenMismatch(pos+size, len(input))}
			}
			out[i] = input[pos : pos+size]
			pos += size
			continue
		}

		offset, err := abiReadLength(atype, input, pos)
		if err != nil {
			return nil, err
		}
		if offset > len(input) {
			return nil, &AbiDecodeError{Type: atype.Canonical(),
				Reason: fmt.Sprintf(`offset %v points outside the %v-byte buffer`, offset, len(input))}
		}
		out[i] = input[offset:]
		pos += wordSize
	}
	return out, nil
}

func abiDecodeValue(atype AbiType, input []byte) (interface{}, error) {
	switch atype.Kind {
	case AbiKindBytes, AbiKindString:
		length, err := abiReadLength(atype, input, 0)
		if err != nil {
			return nil, err
		}
		if len(input)-wordSize < length {
			return nil, &AbiDecodeError{Type: atype.Canonical(),
				Reason: fmt.Sprintf(`length %v exceeds the remaining %v bytes`, length, len(input)-wordSize)}
		}
		body := input[wordSize : wordSize+length]
		if atype.Kind == AbiKindString {
			return string(body), nil
		}
		out := make([]byte, length)
		copy(out, body)
		return out, nil

	case AbiKindArray:
		length := atype.ArrayLen
		body := input
		if !atype.FixedLen {
			var err error
			length, err = abiReadLength(atype, input, 0)
			if err != nil {
				return nil, err
			}
			body = input[wordSize:]
			// Reject absurd lengths before allocating.
			if length > len(body)/atype.Elem.headSize() {
				return nil, &AbiDecodeError{Type: atype.Canonical(),
					Reason: fmt.Sprintf(`element count %v exceeds the remaining %v bytes`, length, len(body))}
			}
		}
		return abiDecodeTuple(repeatType(*atype.Elem, length), body)

	case AbiKindTuple:
		return abiDecodeTuple(atype.Components, input)

	default:
		if len(input) < wordSize {
			return nil, &AbiDecodeError{Type: atype.Canonical(), Reason: lenMismatch(wordSize, len(input))}
		}
		return abiDecodeWord(atype, input[:wordSize])
	}
}

func abiDecodeWord(atype AbiType, word []byte) (interface{}, error) {
	switch atype.Kind {
	case AbiKindBool:
		if !isZero(word[:wordSize-1]) || word[wordSize-1] > 1 {
			return nil, &AbiDecodeError{Type: "bool", Reason: fmt.Sprintf(`malformed bool word %x`, word)}
		}
		return word[wordSize-1] == 1, nil

	case AbiKindUint, AbiKindInt:
		num := new(big.Int).SetBytes(word)
		if atype.Kind == AbiKindInt && word[0]&0x80 != 0 {
			num.Sub(num, two256)
		}
		min, max := atype.intRange()
		if num.Cmp(min) < 0 || num.Cmp(max) > 0 {
			return nil, &AbiDecodeError{Type: atype.Canonical(),
				Reason: fmt.Sprintf(`value %v out of range [%v, %v]`, num, min, max)}
		}
		return num, nil

	case AbiKindAddress:
		var addr Address
		if !isZero(word[:wordSize-len(addr)]) {
			return nil, &AbiDecodeError{Type: "address", Reason: fmt.Sprintf(`malformed address word %x`, word)}
		}
		copy(addr[:], word[wordSize-len(addr):])
		return addr, nil

	case AbiKindFunction:
		var fun solFunc
		if !isZero(word[len(fun):]) {
			return nil, &AbiDecodeError{Type: "function", Reason: fmt.Sprintf(`malformed function word %x`, word)}
		}
		copy(fun[:], word)
		return fun, nil

	case AbiKindFixedBytes:
		if !isZero(word[atype.ArrayLen:]) {
			return nil, &AbiDecodeError{Type: atype.Canonical(), Reason: fmt.Sprintf(`non-zero padding in %x`, word)}
		}
		return append([]byte(nil), word[:atype.ArrayLen]...), nil
	}

	return nil, &AbiDecodeError{Type: atype.Canonical(), Reason: "unsupported type"}
}

/*
ABI-decodes a single value into the provided Go output, which must be a
pointer. Outputs implementing "AbiUnmarshaler" receive the raw input. Returns
"*AbiDecodeError" in case of type mismatch, overflow of the Go type, or
malformed input.
*/
func AbiUnmarshal(input []byte, atype AbiType, out interface{}) error {
	if un, ok := out.(AbiUnmarshaler); ok {
		return un.EthAbiUnmarshal(input)
	}

	dst, err := settable(atype, out)
	if err != nil {
		return err
	}

	val, err := abiDecodeValue(atype, input)
	if err != nil {
		return err
	}
	return assignAbiValue(dst, atype, val)
}

/*
ABI-decodes multiple values into the provided outputs, which must be pointers
and must exactly match the params. See "AbiUnmarshal".
*/
func AbiUnmarshalTuple(input []byte, params []AbiParam, outs []interface{}) error {
	if len(params) != len(outs) {
		return &AbiDecodeError{Type: paramsSignature(params),
			Reason: fmt.Sprintf(`arity mismatch: expected %v outputs, got %v`, len(params), len(outs))}
	}

	types := paramTypes(params)
	err := checkStaticLength(types, input)
	if err != nil {
		return err
	}

	parts, err := abiTupleParts(types, input)
	if err != nil {
		return err
	}

	for i, param := range params {
		err := AbiUnmarshal(parts[i], param.AbiType, outs[i])
		if err != nil {
			return &AbiDecodeError{Type: param.AbiType.Canonical(),
				Reason: fmt.Sprintf(`param %v: %v`, i, err)}
		}
	}
	return nil
}

func settable(atype AbiType, out interface{}) (reflect.Value, error) {
	val := reflect.ValueOf(out)
	if !val.IsValid() || val.Kind() != reflect.Ptr || val.IsNil() {
		return val, &AbiDecodeError{Type: atype.Canonical(),
			Reason: fmt.Sprintf(`can't unmarshal into non-pointer %T`, out)}
	}
	return val.Elem(), nil
}

// Stores a value produced by "abiDecodeValue" into a Go destination.
func assignAbiValue(dst reflect.Value, atype AbiType, val interface{}) error {
	typ := dst.Type()

	if typ.Kind() == reflect.Interface && reflect.TypeOf(val).AssignableTo(typ) {
		dst.Set(reflect.ValueOf(val))
		return nil
	}

	switch atype.Kind {
	case AbiKindBool:
		if typ.Kind() == reflect.Bool {
			dst.SetBool(val.(bool))
			return nil
		}

	case AbiKindUint, AbiKindInt:
		num := val.(*big.Int)
		switch typ.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if !num.IsInt64() || dst.OverflowInt(num.Int64()) {
				return &AbiDecodeError{Type: atype.Canonical(), Reason: fmt.Sprintf(`%v overflows %v`, num, typ)}
			}
			dst.SetInt(num.Int64())
			return nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if !num.IsUint64() || dst.OverflowUint(num.Uint64()) {
				return &AbiDecodeError{Type: atype.Canonical(), Reason: fmt.Sprintf(`%v overflows %v`, num, typ)}
			}
			dst.SetUint(num.Uint64())
			return nil
		}
		if abiMaybeSetBigInt(dst, num) {
			return nil
		}

	case AbiKindAddress:
		if typ.Kind() == reflect.Array && addressType.ConvertibleTo(typ) {
			dst.Set(reflect.ValueOf(val).Convert(typ))
			return nil
		}
		if typ.Kind() == reflect.String {
			dst.SetString(val.(Address).String())
			return nil
		}

	case AbiKindFunction:
		if typ.Kind() == reflect.Array && functionType.ConvertibleTo(typ) {
			dst.Set(reflect.ValueOf(val).Convert(typ))
			return nil
		}

	case AbiKindFixedBytes, AbiKindBytes, AbiKindString:
		var bytes []byte
		if str, ok := val.(string); ok {
			if typ.Kind() == reflect.String {
				dst.SetString(str)
				return nil
			}
			bytes = []byte(str)
		} else {
			bytes = val.([]byte)
		}

		switch {
		case typ.Kind() == reflect.Slice && typ.Elem().Kind() == reflect.Uint8:
			dst.SetBytes(bytes)
			return nil
		case typ.Kind() == reflect.Array && typ.Elem().Kind() == reflect.Uint8 && typ.Len() == len(bytes):
			reflect.Copy(dst, reflect.ValueOf(bytes))
			return nil
		case typ.Kind() == reflect.String && atype.Kind == AbiKindBytes:
			dst.SetString(string(bytes))
			return nil
		}

	case AbiKindArray:
		elems := val.([]interface{})
		switch typ.Kind() {
		case reflect.Slice:
			storage := reflect.MakeSlice(typ, len(elems), len(elems))
			for i, elem := range elems {
				if err := assignAbiValue(storage.Index(i), *atype.Elem, elem); err != nil {
					return err
				}
			}
			dst.Set(storage)
			return nil
		case reflect.Array:
			if typ.Len() != len(elems) {
				return &AbiDecodeError{Type: atype.Canonical(),
					Reason: fmt.Sprintf(`expected %v elements in %v, got %v`, typ.Len(), typ, len(elems))}
			}
			for i, elem := range elems {
				if err := assignAbiValue(dst.Index(i), *atype.Elem, elem); err != nil {
					return err
				}
			}
			return nil
		}

	case AbiKindTuple:
		members := val.([]interface{})
		if typ.Kind() == reflect.Struct {
			field := 0
			for i := 0; i < typ.NumField(); i++ {
				if !typ.Field(i).IsExported() {
					continue
				}
				if field >= len(members) {
					return &AbiDecodeError{Type: atype.Canonical(),
						Reason: fmt.Sprintf(`too many exported fields in %v`, typ)}
				}
				if err := assignAbiValue(dst.Field(i), atype.Components[field], members[field]); err != nil {
					return err
				}
				field++
			}
			if field != len(members) {
				return &AbiDecodeError{Type: atype.Canonical(),
					Reason: fmt.Sprintf(`expected %v exported fields in %v, found %v`, len(members), typ, field)}
			}
			return nil
		}
		if typ.Kind() == reflect.Slice && typ.Elem().Kind() == reflect.Interface {
			dst.Set(reflect.ValueOf(members))
			return nil
		}
	}

	return &AbiDecodeError{Type: atype.Canonical(), Reason: typeMismatch(atype.Canonical(), typ)}
}

func abiMaybeSetBigInt(val reflect.Value, num *big.Int) bool {
	typ := val.Type()
	switch {
	case typ == bigIntType:
		val.Set(reflect.ValueOf(*num))
	case typ == bigIntPtrType:
		val.Set(reflect.ValueOf(num))
	case typ.Kind() == reflect.Ptr && bigIntPtrType.ConvertibleTo(typ):
		val.Set(reflect.ValueOf(num).Convert(typ))
	case bigIntType.ConvertibleTo(typ):
		val.Set(reflect.ValueOf(*num).Convert(typ))
	default:
		return false
	}
	return true
}

// Unwraps interfaces and pointers. Pointers convertible to *big.Int are kept.
func deref(atype AbiType, val reflect.Value) (reflect.Value, error) {
	for val.IsValid() {
		kind := val.Kind()
		if kind == reflect.Ptr && val.Type().ConvertibleTo(bigIntPtrType) {
			if val.IsNil() {
				break
			}
			return val, nil
		}
		if kind != reflect.Ptr && kind != reflect.Interface {
			return val, nil
		}
		if val.IsNil() {
			break
		}
		if kind == reflect.Ptr && val.CanInterface() {
			if _, ok := val.Interface().(AbiMarshaler); ok {
				return val, nil
			}
		}
		val = val.Elem()
	}
	return val, &AbiEncodeError{Type: atype.Canonical(), Reason: "nil value"}
}

func reflectBigInt(val reflect.Value) (*big.Int, bool) {
	typ := val.Type()
	switch typ.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(val.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return new(big.Int).SetUint64(val.Uint()), true
	}
	if typ.ConvertibleTo(bigIntPtrType) && typ.Kind() == reflect.Ptr {
		return val.Convert(bigIntPtrType).Interface().(*big.Int), true
	}
	if typ == bigIntType {
		num := val.Interface().(big.Int)
		return &num, true
	}
	return nil, false
}

func reflectBytes(val reflect.Value) ([]byte, bool) {
	typ := val.Type()
	if (typ.Kind() != reflect.Slice && typ.Kind() != reflect.Array) || typ.Elem().Kind() != reflect.Uint8 {
		return nil, false
	}
	if typ.Kind() == reflect.Slice {
		return val.Convert(byteSliceType).Bytes(), true
	}
	out := make([]byte, val.Len())
	reflect.Copy(reflect.ValueOf(out), val)
	return out, true
}

// Reads a word holding a length or offset, rejecting values that can't
// address a Go slice.
func abiReadLength(atype AbiType, input []byte, pos int) (int, error) {
	if len(input) < pos+wordSize {
		return 0, &AbiDecodeError{Type: atype.Canonical(), Reason: lenMismatch(pos+wordSize, len(input))}
	}
	word := input[pos : pos+wordSize]
	if !isZero(word[:wordSize-8]) {
		return 0, &AbiDecodeError{Type: atype.Canonical(), Reason: fmt.Sprintf(`oversized offset or length %x`, word)}
	}
	num := binary.BigEndian.Uint64(word[wordSize-8:])
	if num > uint64(len(input)) {
		return 0, &AbiDecodeError{Type: atype.Canonical(),
			Reason: fmt.Sprintf(`offset or length %v exceeds the %v-byte buffer`, num, len(input))}
	}
	return int(num), nil
}

func repeatType(atype AbiType, count int) []AbiType {
	out := make([]AbiType, count)
	for i := range out {
		out[i] = atype
	}
	return out
}

var (
	bigIntType    = reflect.TypeOf(big.Int{})
	bigIntPtrType = reflect.TypeOf((*big.Int)(nil))
	addressType   = reflect.TypeOf(Address{})
	functionType  = reflect.TypeOf(solFunc{})
	byteSliceType = reflect.TypeOf([]byte(nil))
)

// Solidity external function reference: an address followed by a selector.
type solFunc = [24]byte

func typeMismatch(expected string, actual reflect.Type) string {
	return fmt.Sprintf(`type mismatch: Solidity type %q, Go type %q`, expected, actual)
}

func typeMismatchEnc(atype AbiType, actual reflect.Type) error {
	return &AbiEncodeError{Type: atype.Canonical(), Reason: typeMismatch(atype.Canonical(), actual)}
}

func lenMismatch(expected, actual int) string {
	return `length mismatch: expected at least ` + strconv.Itoa(expected) + ` bytes, got ` + strconv.Itoa(actual)
}

func appendLeftPadded(out []byte, buf []byte) []byte {
	for delta := abiPaddingDelta(len(buf)); delta > 0; delta-- {
		out = append(out, 0)
	}
	return append(out, buf...)
}

// Pads to a multiple of 32 bytes, or to "min" bytes if that's larger.
func appendRightPadded(out []byte, buf []byte, min int) []byte {
	out = append(out, buf...)
	delta := abiPaddingDelta(len(buf))
	if len(buf)+delta < min {
		delta = min - len(buf)
	}
	for ; delta > 0; delta-- {
		out = append(out, 0)
	}
	return out
}

func abiPaddingDelta(length int) int {
	if length <= 0 {
		return 0
	}
	return (wordSize - length%wordSize) % wordSize
}

func abiAppendUint64(out []byte, num uint64) []byte {
	var word Word
	binary.BigEndian.PutUint64(word[wordSize-8:], num)
	return append(out, word[:]...)
}

// Two's complement in 256 bits. The caller checks the range.
func abiEncodeBigInt(num *big.Int) []byte {
	out := make([]byte, wordSize)
	if num.Sign() < 0 {
		num = new(big.Int).Add(num, two256)
	}
	return num.FillBytes(out)
}

func isZero(input []byte) bool {
	for _, char := range input {
		if char != 0 {
			return false
		}
	}
	return true
}

var (
	trueWord = func() Word {
		var out Word
		out[len(out)-1] = 1
		return out
	}()
	falseWord Word
)

var (
	bigOne = big.NewInt(1)
	two256 = new(big.Int).Lsh(bigOne, 256)
)
