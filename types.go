package etherlite

import (
	"encoding/json"
	"math/big"
	"strconv"

	"github.com/pkg/errors"
)

var null = []byte{'n', 'u', 'l', 'l'}

// Version of "[]byte" that uses "0x"-prefixed hex encoding and decoding.
type HexBytes []byte

/*
Decodes the provided string. Zero-length input is ok. Otherwise, it must be
prefixed with "0x".
*/
func ParseHexBytes(input string) (HexBytes, error) {
	var out HexBytes
	err := out.UnmarshalText(stringToBytesUnsafe(input))
	return out, err
}

/*
Same as "ParseHexBytes", but panics on error. Convenient for initializing
global variables.
*/
func MustParseHexBytes(input string) HexBytes {
	out, err := ParseHexBytes(input)
	if err != nil {
		panic(err)
	}
	return out
}

// Implements "encoding.TextMarshaler". Uses hex encoding prefixed with "0x".
func (self HexBytes) MarshalText() ([]byte, error) {
	return HexEncode([]byte(self)), nil
}

/*
Implements "encoding.TextUnmarshaler". Empty input is ok. Otherwise, it must be
prefixed with "0x".
*/
func (self *HexBytes) UnmarshalText(input []byte) error {
	out, err := HexDecode(input)
	if err != nil {
		return err
	}
	*self = HexBytes(out)
	return nil
}

/*
Implements "json.Marshaler". A zero-length value encodes as "null". Otherwise,
it encodes as a hex string, prefixed with "0x".
*/
func (self HexBytes) MarshalJSON() ([]byte, error) {
	if len(self) == 0 {
		return null, nil
	}
	return hexEncodeQuoted(self), nil
}

// Implements "fmt.Stringer". Follows the same rules as "MarshalText".
func (self HexBytes) String() string {
	return bytesToMutableString(HexEncode([]byte(self)))
}

// Version of `big.Int` that encodes/decodes in base 16 with the "0x" prefix.
type HexInt big.Int

// Implements "encoding.TextMarshaler". Uses hex encoding prefixed with "0x".
func (self *HexInt) MarshalText() ([]byte, error) {
	out := make([]byte, 0, 16)
	out = append(out, '0', 'x')
	return (*big.Int)(self).Append(out, 16), nil
}

/*
Implements "encoding.TextUnmarshaler". The input must be in base 16, prefixed
with "0x".
*/
func (self *HexInt) UnmarshalText(input []byte) error {
	input, err := drop0x(input)
	if err != nil {
		return err
	}
	if len(input) == 0 {
		return errors.New("failed to decode empty input as a hex integer")
	}

	_, ok := (*big.Int)(self).SetString(bytesToMutableString(input), 16)
	if !ok {
		return errors.Errorf("failed to decode %q as a hex integer", input)
	}
	return nil
}

// Implements "fmt.Stringer". Follows the same rules as "MarshalText".
func (self *HexInt) String() string {
	bytes, _ := self.MarshalText()
	return bytesToMutableString(bytes)
}

// Converts to a regular "*big.Int", treating nil as zero.
func (self *HexInt) BigInt() *big.Int {
	if self == nil {
		return new(big.Int)
	}
	return (*big.Int)(self)
}

// Version of `uint64` that encodes/decodes in base 16 with the "0x" prefix.
type HexUint64 uint64

// Implements "encoding.TextMarshaler". Uses hex encoding prefixed with "0x".
func (self HexUint64) MarshalText() ([]byte, error) {
	out := make([]byte, 0, 16)
	out = append(out, '0', 'x')
	return strconv.AppendUint(out, uint64(self), 16), nil
}

/*
Implements "encoding.TextUnmarshaler". The input must be in base 16, prefixed
with "0x".
*/
func (self *HexUint64) UnmarshalText(input []byte) error {
	input, err := drop0x(input)
	if err != nil {
		return err
	}
	out, err := strconv.ParseUint(bytesToMutableString(input), 16, 64)
	if err != nil {
		return errors.WithStack(err)
	}
	*self = HexUint64(out)
	return nil
}

// Implements "fmt.Stringer". Follows the same rules as "MarshalText".
func (self HexUint64) String() string {
	bytes, _ := self.MarshalText()
	return bytesToMutableString(bytes)
}

/*
A Word represents the standard memory granularity of the EVM: 32 bytes of
arbitrary content. All EVM types are padded to at least this size when
ABI-encoded. This size is also used for hashes, log topics, etc.

Note that Hash has exactly the same structure, but a slightly different
interpretation. A Word is not assumed to be a hash.

An empty Word{} text-encodes as "" and JSON-encodes as `null`.
*/
type Word [32]byte

/*
Decodes the provided string. Zero-length input is ok. Otherwise, it must be
prefixed with "0x".
*/
func ParseWord(input string) (Word, error) {
	var out Word
	err := out.UnmarshalText(stringToBytesUnsafe(input))
	return out, err
}

/*
Same as "ParseWord", but panics on error. Convenient for initializing global
variables.
*/
func MustParseWord(input string) Word {
	out, err := ParseWord(input)
	if err != nil {
		panic(err)
	}
	return out
}

/*
Implements "encoding.TextMarshaler". A zero-initialized value encodes as "",
otherwise uses hex encoding prefixed with "0x".
*/
func (self Word) MarshalText() ([]byte, error) {
	if self == ZeroWord {
		return nil, nil
	}
	return HexEncode(self[:]), nil
}

/*
Implements "encoding.TextUnmarshaler". Empty input is ok. Otherwise, it must be
prefixed with "0x".
*/
func (self *Word) UnmarshalText(input []byte) error {
	if len(input) == 0 {
		*self = Word{}
		return nil
	}
	return HexDecodeTo(self[:], input)
}

/*
Implements "json.Marshaler". A zero-initialized value encodes as "null".
Otherwise, it encodes as a hex string, prefixed with "0x".
*/
func (self Word) MarshalJSON() ([]byte, error) {
	if self == ZeroWord {
		return null, nil
	}
	return hexEncodeQuoted(self[:]), nil
}

/*
Implements "fmt.Stringer". Uses hex encoding prefixed with "0x". Unlike
"MarshalText" and "MarshalJSON", doesn't have special rules for zero-initialized
values.
*/
func (self Word) String() string {
	return bytesToMutableString(HexEncode(self[:]))
}

/*
Usually represents a block or transaction hash, or the hash of an indexed
variable-sized event parameter.

Note that while this shares structure and encoding/decoding behavior with Word,
the assumed interpretation is different: a Word is not assumed to be a hash.
*/
type Hash [32]byte

// Decodes the provided string. Same rules as "ParseWord".
func ParseHash(input string) (Hash, error) {
	hash, err := ParseWord(input)
	return Hash(hash), err
}

// Same as "ParseHash", but panics on error.
func MustParseHash(input string) Hash { return Hash(MustParseWord(input)) }

// Implements "encoding.TextMarshaler". Same rules as "Word".
func (self Hash) MarshalText() ([]byte, error) { return Word(self).MarshalText() }

// Implements "encoding.TextUnmarshaler". Same rules as "Word".
func (self *Hash) UnmarshalText(input []byte) error { return (*Word)(self).UnmarshalText(input) }

// Implements "json.Marshaler". Same rules as "Word".
func (self Hash) MarshalJSON() ([]byte, error) { return Word(self).MarshalJSON() }

// Implements "fmt.Stringer".
func (self Hash) String() string { return Word(self).String() }

type Bloom [256]byte

// Implements "encoding.TextMarshaler". Same rules as "Word".
func (self Bloom) MarshalText() ([]byte, error) {
	if self == ZeroBloom {
		return nil, nil
	}
	return HexEncode(self[:]), nil
}

// Implements "encoding.TextUnmarshaler". Same rules as "Word".
func (self *Bloom) UnmarshalText(input []byte) error {
	if len(input) == 0 {
		*self = ZeroBloom
		return nil
	}
	return HexDecodeTo(self[:], input)
}

// https://www.jsonrpc.org/specification#request_object
type rpcRequest struct {
	Jsonrpc string        `json:"jsonrpc"`
	Id      string        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// https://www.jsonrpc.org/specification#response_object
type rpcResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	Id      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result"` // assign `*someType` to decode as that type
	Error   *RpcError       `json:"error"`
}

/*
Represents an error that arrives over JSON RPC. See
https://www.jsonrpc.org/specification#error_object for details.
*/
type RpcError struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Implements "error". Includes the RPC error details if possible.
func (self RpcError) Error() string {
	str := "RPC error " + strconv.FormatInt(self.Code, 10) + ": " + self.Message
	if len(self.Data) > 0 && string(self.Data) != "null" {
		str += " Additional details: " + string(self.Data)
	}
	return str
}

/*
Represents the input for an Ethereum transaction sent through the node
("eth_sendTransaction"), or the input to a non-mutating contract call
("eth_call"). A zero "To" encodes as `null`, which means contract creation.
*/
type TxMsg struct {
	From     Address    `json:"from"`
	To       Address    `json:"to"`
	Data     HexBytes   `json:"data"`
	Value    *HexInt    `json:"value,omitempty"`
	GasPrice *HexInt    `json:"gasPrice,omitempty"`
	GasLimit *HexInt    `json:"gas,omitempty"`
	Nonce    *HexUint64 `json:"nonce,omitempty"`
}

// Represents a transaction receipt. The node returns `null` while the
// transaction is pending.
type TxReceipt struct {
	BlockHash         Hash       `json:"blockHash"`
	BlockNumber       *HexUint64 `json:"blockNumber"`
	ContractAddress   Address    `json:"contractAddress"`
	GasUsed           *HexUint64 `json:"gasUsed"`
	Logs              []RawLog   `json:"logs"`
	LogsBloom         Bloom      `json:"logsBloom"`
	CumulativeGasUsed *HexUint64 `json:"cumulativeGasUsed"`
	Status            *HexUint64 `json:"status"` // absent before Byzantium
	TransactionHash   Hash       `json:"transactionHash"`
	TransactionIndex  *HexUint64 `json:"transactionIndex"`
}

/*
A log entry as reported by the node, typically obtained via "EthGetLogs".
See "LogEntry" for the decoded form.
*/
type RawLog struct {
	Address          Address   `json:"address"`
	Topics           []Word    `json:"topics"`
	Data             HexBytes  `json:"data"`
	BlockHash        Hash      `json:"blockHash"`
	BlockNumber      HexUint64 `json:"blockNumber"`
	TransactionHash  Hash      `json:"transactionHash"`
	TransactionIndex HexUint64 `json:"transactionIndex"`
	LogIndex         HexUint64 `json:"logIndex"`
	Removed          bool      `json:"removed"`
}

/*
Stand-in for anything representing a block number. Makes the signatures of
RPC functions more readable. Accepts uint64, *big.Int, HexUint64, or one of the
"BlockNumberX" constants.
*/
type BlockNumber interface{}

func encodeBlockNumber(num BlockNumber) BlockNumber {
	switch num := num.(type) {
	case nil:
		return nil
	case uint64:
		return HexUint64(num)
	case *big.Int:
		return (*HexInt)(num)
	}
	return num
}

/*
LogFilter is passed to "EthGetLogs".

"Topics" are positional: the first position matches topic 0 (the event
selector), and so on. Each position is either nil (match anything) or a list of
alternatives. For a fixed-size indexed parameter, the topic is its ABI-encoded
word; for a variable-sized one, it's the Keccak-256 hash of its encoding.
*/
type LogFilter struct {
	FromBlock BlockNumber `json:"fromBlock,omitempty"`
	ToBlock   BlockNumber `json:"toBlock,omitempty"`
	Address   []Address   `json:"address,omitempty"`
	Topics    [][]Word    `json:"topics,omitempty"`
}

/*
String256 is a regular string that behaves as "bytes32" for ABI encoding and
decoding. When encoding, it's interpreted as raw bytes, zero-padded on the
right; strings longer than 32 bytes are rejected. When decoding, it takes 32
bytes from the input and truncates them at the first zero byte.

Useful for event parameters: marking a "string" parameter as "indexed" turns
it into a hash, while an indexed "bytes32" remains readable.
*/
type String256 string

// Implements "AbiMarshaler".
func (self String256) EthAbiMarshal() ([]byte, error) {
	word, err := self.Word()
	if err != nil {
		return nil, err
	}
	return word[:], nil
}

// Implements "AbiUnmarshaler".
func (self *String256) EthAbiUnmarshal(input []byte) error {
	if len(input) < wordSize {
		return &AbiDecodeError{Type: "bytes32", Reason: lenMismatch(wordSize, len(input))}
	}
	input = input[:wordSize]
	*self = String256(input[:strlen(input)])
	return nil
}

// Converts to a Word for use in log filtering.
func (self String256) Word() (Word, error) {
	var out Word
	if len(self) > len(out) {
		return out, &AbiEncodeError{Type: "bytes32",
			Reason: "string " + strconv.Quote(string(self)) + " doesn't fit into 32 bytes"}
	}
	copy(out[:], self)
	return out, nil
}

// Length of a C-style zero-terminated string.
func strlen(input []byte) int {
	for i, char := range input {
		if char == 0 {
			return i
		}
	}
	return len(input)
}
