package etherlite

/*
See https://docs.soliditylang.org/en/latest/abi-spec.html
*/

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

/*
Decodes output from a Solidity compiler. Expects JSON produced by the following
incantation:

	solc --combined-json=abi,bin --optimize

Maps contract identifiers to decoded "ContractDef" values. Each identifier has
the form "filePath:contractName".
*/
func ReadContractDefs(src io.Reader) (map[string]ContractDef, error) {
	var input struct {
		Contracts map[string]struct {
			Abi json.RawMessage
			Bin string
		}
	}

	err := json.NewDecoder(src).Decode(&input)
	if err != nil {
		return nil, &AbiParseError{Reason: `failed to read Solidity output`, Err: err}
	}

	out := make(map[string]ContractDef, len(input.Contracts))
	for name, inp := range input.Contracts {
		path := strings.SplitN(name, ":", 2)
		if len(path) != 2 {
			return nil, &AbiParseError{Reason: `malformed contract identifier ` + name}
		}

		abiJson, err := unquoteAbiJson(inp.Abi)
		if err != nil {
			return nil, err
		}

		def := ContractDef{
			FileName:     path[0],
			ContractName: path[1],
			AbiJson:      string(abiJson),
		}

		err = json.Unmarshal(abiJson, &def.Abi)
		if err != nil {
			return nil, asAbiParseError(err, `failed to decode Solidity output`)
		}

		def.Code, err = decodeBytecode(inp.Bin)
		if err != nil {
			return nil, err
		}

		out[name] = def
	}

	return out, nil
}

// Older compilers emit the ABI as a JSON string holding JSON.
func unquoteAbiJson(input json.RawMessage) ([]byte, error) {
	input = bytes.TrimSpace(input)
	if len(input) == 0 || input[0] != '"' {
		return input, nil
	}
	var str string
	err := json.Unmarshal(input, &str)
	if err != nil {
		return nil, &AbiParseError{Reason: `failed to decode ABI string`, Err: err}
	}
	return []byte(str), nil
}

// Accepts bytecode with or without the "0x" prefix.
func decodeBytecode(input string) (HexBytes, error) {
	input = strings.TrimPrefix(strings.TrimSpace(input), "0x")
	if input == "" {
		return nil, nil
	}
	out, err := hex.DecodeString(input)
	if err != nil {
		return nil, &AbiParseError{Reason: `failed to decode contract bytecode`, Err: err}
	}
	return HexBytes(out), nil
}

/*
A structure representing the output of a Solidity compiler for a single
contract. See "ReadContractDefs" for details.
*/
type ContractDef struct {
	FileName     string
	ContractName string
	Abi          Abi
	AbiJson      string
	Code         HexBytes
}

/*
Abi represents method and event definitions of a Solidity contract, in the
order of the JSON definition. It's parsed from the output of a Solidity
compiler. Name lookups go through "ContractType", which indexes the entries
once at load time.

See the "AbiMethod" definition.
*/
type Abi []AbiMethod

/*
Implements "json.Unmarshaler". Decodes a JSON ABI definition produced by a
Solidity compiler. Automatically selects the appropriate data structures for
constructors, functions, events and errors, based on their type.
*/
func (self *Abi) UnmarshalJSON(input []byte) error {
	var chunks []json.RawMessage

	err := json.Unmarshal(input, &chunks)
	if err != nil {
		return &AbiParseError{Reason: `expected a JSON array`, Err: err}
	}

	for i, chunk := range chunks {
		val, err := unmarshalAbiMethod(chunk)
		if err != nil {
			return asAbiParseError(err, `entry `+strconv.Itoa(i))
		}
		*self = append(*self, val)
	}
	return nil
}

func unmarshalAbiMethod(input []byte) (AbiMethod, error) {
	var tag struct{ Type string }

	err := json.Unmarshal(input, &tag)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var out AbiMethod
	switch tag.Type {
	case "constructor":
		var val AbiConstructor
		err = json.Unmarshal(input, &val)
		out = val
	case "function", "":
		var val AbiFunction
		err = json.Unmarshal(input, &val)
		out = val
	case "event":
		var val AbiEvent
		err = json.Unmarshal(input, &val)
		out = val
	case "error":
		var val AbiError
		err = json.Unmarshal(input, &val)
		out = val
	case "fallback", "receive":
		var val AbiFallback
		err = json.Unmarshal(input, &val)
		out = val
	default:
		return nil, &AbiParseError{Reason: `unknown ABI entry type ` + tag.Type}
	}
	if err != nil {
		return nil, err
	}

	return out, nil
}

/*
Represents one of several possible ABI definitions. Possible types:

	AbiConstructor
	AbiFunction
	AbiEvent
	AbiError
	AbiFallback
*/
type AbiMethod interface{}

// Represents a contract constructor.
type AbiConstructor struct {
	Type            string     `json:"type"` // "constructor"
	Inputs          []AbiParam `json:"inputs"`
	Payable         bool       `json:"payable"`
	StateMutability string     `json:"stateMutability"`
}

/*
ABI-encodes constructor arguments. The result must be appended to the
contract's creation code.
*/
func (self AbiConstructor) Marshal(args ...interface{}) ([]byte, error) {
	return abiAppendTuple(nil, self.Inputs, args)
}

/*
Represents a contract method. Useful for ABI-encoding arguments and ABI-decoding
return values. Usually obtained via "ContractType.Function".
*/
type AbiFunction struct {
	Type            string     `json:"type"` // "function" | ""
	Name            string     `json:"name"`
	Constant        bool       `json:"constant"`
	Inputs          []AbiParam `json:"inputs"`
	Outputs         []AbiParam `json:"outputs"`
	Payable         bool       `json:"payable"`
	StateMutability string     `json:"stateMutability"`
	Signature       string     `json:"-"`
	Selector        [4]byte    `json:"-"`
}

/*
True for functions that don't mutate state ("view", "pure", or the legacy
"constant" flag). These are invoked with "eth_call" rather than a transaction.
*/
func (self AbiFunction) IsConstant() bool {
	switch self.StateMutability {
	case "view", "pure":
		return true
	case "nonpayable", "payable":
		return false
	}
	return self.Constant
}

// True for functions that accept ether along with the call.
func (self AbiFunction) IsPayable() bool {
	return self.StateMutability == "payable" || self.Payable
}

/*
ABI-encodes the arguments, which must exactly match this method's parameter
signature. Prepends the method's ".Selector". The result should be used as a
transaction payload, i.e. "TxMsg.Data". Returns "*AbiEncodeError" in case of
arity or type mismatch, or out-of-range values.
*/
func (self AbiFunction) Marshal(args ...interface{}) ([]byte, error) {
	out, err := abiAppendTuple(self.Selector[:], self.Inputs, args)
	return out, errors.Wrapf(err, `failed to encode arguments of %v`, self.Signature)
}

/*
ABI-decodes return data into natural Go values (see "AbiDecodeTuple"), one per
output parameter.
*/
func (self AbiFunction) DecodeReturns(input []byte) ([]interface{}, error) {
	out, err := AbiDecodeTuple(input, self.Outputs)
	return out, errors.Wrapf(err, `failed to decode return values of %v`, self.Signature)
}

/*
ABI-decodes raw bytes into the provided Go values, which must exactly match this
method's return signature. The outputs must be pointers.
*/
func (self AbiFunction) Unmarshal(input []byte, outs ...interface{}) error {
	err := AbiUnmarshalTuple(input, self.Outputs, outs)
	return errors.Wrapf(err, `failed to decode return values of %v`, self.Signature)
}

/*
Implements "json.Unmarshaler". In addition to parsing the JSON structure, this
precomputes the method's canonical ".Signature" and ".Selector".
*/
func (self *AbiFunction) UnmarshalJSON(input []byte) error {
	type plain AbiFunction
	var out plain

	err := json.Unmarshal(input, &out)
	if err != nil {
		return asAbiParseError(err, `invalid function`)
	}
	if out.Name == "" {
		return &AbiParseError{Reason: `function without a name`}
	}

	*self = AbiFunction(out)
	self.Signature = abiSignature(self.Name, self.Inputs)
	sum := keccak256([]byte(self.Signature))
	copy(self.Selector[:], sum[:4])
	return nil
}

/*
Represents a contract event. Useful for filtering and decoding event logs.
Usually obtained via "ContractType.Event".
*/
type AbiEvent struct {
	Type      string     `json:"type"` // "event"
	Name      string     `json:"name"`
	Inputs    []AbiParam `json:"inputs"`
	Anonymous bool       `json:"anonymous"`
	Signature string     `json:"-"`
	Selector  Word       `json:"-"`
}

/*
Implements "json.Unmarshaler". In addition to parsing the JSON structure, this
precomputes the event's ".Selector", which is topic 0 of its log entries.
*/
func (self *AbiEvent) UnmarshalJSON(input []byte) error {
	type plain AbiEvent
	var out plain

	err := json.Unmarshal(input, &out)
	if err != nil {
		return asAbiParseError(err, `invalid event`)
	}
	if out.Name == "" {
		return &AbiParseError{Reason: `event without a name`}
	}

	*self = AbiEvent(out)
	self.Signature = abiSignature(self.Name, self.Inputs)
	self.Selector = Word(keccak256([]byte(self.Signature)))
	return nil
}

// Parameters in declaration order, filtered by their "indexed" flag.
func (self AbiEvent) IndexedInputs() []AbiParam    { return filterIndexed(self.Inputs, true) }
func (self AbiEvent) NonIndexedInputs() []AbiParam { return filterIndexed(self.Inputs, false) }

func filterIndexed(params []AbiParam, indexed bool) []AbiParam {
	var out []AbiParam
	for _, param := range params {
		if param.Indexed == indexed {
			out = append(out, param)
		}
	}
	return out
}

/*
Decodes the event's parameters from a log's topics and data, returning them in
declaration order (see "AbiDecodeTuple" for the Go types).

Indexed parameters come from topics, after topic 0 unless the event is
anonymous. Non-indexed parameters are encoded as their own tuple in the data,
as if the indexed ones didn't exist.

Indexed parameters of reference types (string, bytes, arrays, tuples) are
stored by the node as the Keccak-256 hash of their encoding. The original value is not present in the log and can't be
recovered; such parameters decode to the "Hash" from the topic.
*/
func (self AbiEvent) DecodeLog(topics []Word, data []byte) ([]interface{}, error) {
	if !self.Anonymous {
		if len(topics) == 0 || topics[0] != self.Selector {
			return nil, errors.WithStack(&AbiDecodeError{Type: self.Signature,
				Reason: `log entry doesn't appear to contain this event`})
		}
		topics = topics[1:]
	}

	indexed := self.IndexedInputs()
	if len(topics) != len(indexed) {
		return nil, errors.WithStack(&AbiDecodeError{Type: self.Signature,
			Reason: `expected ` + strconv.Itoa(len(indexed)) + ` indexed topics, found ` + strconv.Itoa(len(topics))})
	}

	plain, err := AbiDecodeTuple(data, self.NonIndexedInputs())
	if err != nil {
		return nil, errors.Wrapf(err, `failed to decode data of event %v`, self.Signature)
	}

	out := make([]interface{}, len(self.Inputs))
	for i, param := range self.Inputs {
		if !param.Indexed {
			out[i], plain = plain[0], plain[1:]
			continue
		}

		topic := topics[0]
		topics = topics[1:]

		if isHashedTopic(param.AbiType) {
			out[i] = Hash(topic)
			continue
		}

		out[i], err = abiDecodeValue(param.AbiType, topic[:])
		if err != nil {
			return nil, errors.Wrapf(err, `failed to decode indexed param %v of event %v`, i, self.Signature)
		}
	}
	return out, nil
}

/*
Same as "DecodeLog", but returns the parameters keyed by name. Unnamed
parameters are keyed "arg<N>" by position.
*/
func (self AbiEvent) DecodeLogValues(topics []Word, data []byte) (map[string]interface{}, error) {
	args, err := self.DecodeLog(topics, data)
	if err != nil {
		return nil, err
	}
	return namedValues(self.Inputs, args), nil
}

/*
Decodes event parameters from the log entry into the provided outputs, which
must be pointers and exactly match the event's signature. Hashed indexed
parameters must be decoded into a "*Hash" or "*interface{}"; see "DecodeLog".
*/
func (self AbiEvent) UnmarshalLogEntry(input RawLog, outs ...interface{}) error {
	if len(outs) != len(self.Inputs) {
		return errors.WithStack(&AbiDecodeError{Type: self.Signature,
			Reason: `have ` + strconv.Itoa(len(self.Inputs)) + ` parameters, found ` + strconv.Itoa(len(outs)) + ` outputs`})
	}

	args, err := self.DecodeLog(input.Topics, input.Data)
	if err != nil {
		return err
	}

	for i, param := range self.Inputs {
		if hash, ok := args[i].(Hash); ok {
			if out, ok := outs[i].(*Hash); ok {
				*out = hash
				continue
			}
			if out, ok := outs[i].(*interface{}); ok {
				*out = hash
				continue
			}
			return errors.WithStack(&AbiDecodeError{Type: param.AbiType.Canonical(),
				Reason: `indexed param ` + strconv.Itoa(i) + ` is hashed; decode it into a Hash`})
		}

		dst, err := settable(param.AbiType, outs[i])
		if err != nil {
			return err
		}
		err = assignAbiValue(dst, param.AbiType, args[i])
		if err != nil {
			return errors.Wrapf(err, `failed to decode param %v of event %v`, i, self.Signature)
		}
	}
	return nil
}

func isHashedTopic(atype AbiType) bool {
	switch atype.Kind {
	case AbiKindBytes, AbiKindString, AbiKindArray, AbiKindTuple:
		return true
	}
	return false
}

// Represents a custom error declared by a contract.
type AbiError struct {
	Type     string     `json:"type"` // "error"
	Name     string     `json:"name"`
	Inputs   []AbiParam `json:"inputs"`
	Selector [4]byte    `json:"-"`
}

// Implements "json.Unmarshaler". Precomputes the error's ".Selector".
func (self *AbiError) UnmarshalJSON(input []byte) error {
	type plain AbiError
	var out plain

	err := json.Unmarshal(input, &out)
	if err != nil {
		return asAbiParseError(err, `invalid error`)
	}

	*self = AbiError(out)
	sum := keccak256([]byte(abiSignature(self.Name, self.Inputs)))
	copy(self.Selector[:], sum[:4])
	return nil
}

// Represents the "fallback" or "receive" entry of a contract.
type AbiFallback struct {
	Type            string `json:"type"`
	Payable         bool   `json:"payable"`
	StateMutability string `json:"stateMutability"`
}

/*
Represents a method parameter, method return value, event parameter, or tuple
component. Part of an ABI definition, used for encoding and decoding.
*/
type AbiParam struct {
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Components []AbiParam `json:"components,omitempty"` // tuple type only
	Indexed    bool       `json:"indexed,omitempty"`    // event only
	AbiType    AbiType    `json:"-"`
}

// Implements "json.Unmarshaler". Parses the Solidity type.
func (self *AbiParam) UnmarshalJSON(input []byte) error {
	type plain AbiParam
	var out plain

	err := json.Unmarshal(input, &out)
	if err != nil {
		return asAbiParseError(err, `invalid parameter`)
	}

	out.AbiType, err = ParseAbiTupleType(out.Type, out.Components)
	if err != nil {
		return &AbiParseError{Reason: `parameter ` + out.Name, Err: err}
	}

	*self = AbiParam(out)
	return nil
}

/*
Canonical signature of a method, event, or error: its name followed by the
canonical types of its parameters, such as "transfer(address,uint256)". The
Keccak-256 hash of the signature yields the function selector or event topic.
*/
func abiSignature(name string, params []AbiParam) string {
	var buf strings.Builder
	buf.WriteString(name)
	buf.WriteString(paramsSignature(params))
	return buf.String()
}

func paramsSignature(params []AbiParam) string {
	var buf strings.Builder
	buf.WriteByte('(')
	for i, param := range params {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(param.AbiType.Canonical())
	}
	buf.WriteByte(')')
	return buf.String()
}

// Pairs decoded values with parameter names. Unnamed parameters become
// "arg<N>".
func namedValues(params []AbiParam, args []interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(args))
	for i, param := range params {
		name := param.Name
		if name == "" {
			name = "arg" + strconv.Itoa(i)
		}
		out[name] = args[i]
	}
	return out
}

func keccak256(input ...[]byte) [32]byte {
	var out [32]byte
	hash := sha3.NewLegacyKeccak256()
	for _, chunk := range input {
		hash.Write(chunk)
	}
	hash.Sum(out[:0])
	return out
}

func asAbiParseError(err error, reason string) error {
	var parseErr *AbiParseError
	if errors.As(err, &parseErr) {
		return err
	}
	return &AbiParseError{Reason: reason, Err: err}
}
