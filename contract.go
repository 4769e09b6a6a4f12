package etherlite

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/big"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

/*
A contract's interface, loaded once from its ABI definition. Lookup tables for
functions, events and event selectors are built at load time.

Overloaded functions and events: the first declaration keeps the plain name;
every declaration is also addressable by its full signature, such as
"transfer(address,uint256)".
*/
type ContractType struct {
	Name        string
	Abi         Abi
	Bytecode    HexBytes
	Constructor *AbiConstructor

	functions map[string]*AbiFunction
	events    map[string]*AbiEvent
	topics    map[Word]*AbiEvent
	eventList []*AbiEvent
}

/*
Parses a contract definition. Accepts either a bare ABI array, or a compiler
artifact object with an "abi" field (an array, or a string holding one) and
optional "bytecode"/"bin" and "contractName" fields, as produced by Truffle,
Hardhat, Foundry or solc. Invalid definitions fail with "*AbiParseError".
*/
func LoadContractType(src []byte) (*ContractType, error) {
	src = bytes.TrimSpace(src)
	if len(src) == 0 {
		return nil, &AbiParseError{Reason: `empty contract definition`}
	}

	if src[0] == '[' {
		var abi Abi
		err := json.Unmarshal(src, &abi)
		if err != nil {
			return nil, asAbiParseError(err, `failed to decode ABI`)
		}
		return NewContractType("", abi, nil)
	}

	var artifact struct {
		ContractName string          `json:"contractName"`
		Abi          json.RawMessage `json:"abi"`
		Bytecode     json.RawMessage `json:"bytecode"`
		Bin          string          `json:"bin"`
	}
	err := json.Unmarshal(src, &artifact)
	if err != nil {
		return nil, &AbiParseError{Reason: `expected an ABI array or an artifact object`, Err: err}
	}
	if len(artifact.Abi) == 0 {
		return nil, &AbiParseError{Reason: `artifact has no "abi" field`}
	}

	abiJson, err := unquoteAbiJson(artifact.Abi)
	if err != nil {
		return nil, err
	}

	var abi Abi
	err = json.Unmarshal(abiJson, &abi)
	if err != nil {
		return nil, asAbiParseError(err, `failed to decode ABI`)
	}

	code, err := artifactBytecode(artifact.Bytecode, artifact.Bin)
	if err != nil {
		return nil, err
	}
	return NewContractType(artifact.ContractName, abi, code)
}

// Same as "LoadContractType", but reads from a stream.
func ReadContractType(src io.Reader) (*ContractType, error) {
	input, err := io.ReadAll(src)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return LoadContractType(input)
}

// Same as "LoadContractType", but reads a file.
func LoadContractTypeFile(path string) (*ContractType, error) {
	input, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	out, err := LoadContractType(input)
	return out, errors.Wrapf(err, `failed to load contract definition from %q`, path)
}

/*
Same as "LoadContractType", but panics on error. Convenient for initializing
global variables; used by code generated with "gen_eth".
*/
func MustLoadContractType(src string) *ContractType {
	out, err := LoadContractType([]byte(src))
	if err != nil {
		panic(err)
	}
	return out
}

/*
Builds a contract type from ABI JSON and creation code, panicking on error.
Used by code generated with "gen_eth".
*/
func MustNewContractType(name string, abiJson string, code []byte) *ContractType {
	var abi Abi
	err := json.Unmarshal([]byte(abiJson), &abi)
	if err != nil {
		panic(asAbiParseError(err, `failed to decode ABI of `+name))
	}
	out, err := NewContractType(name, abi, code)
	if err != nil {
		panic(err)
	}
	return out
}

// Bytecode is a hex string, or an object with an "object" field (Foundry).
func artifactBytecode(bytecode json.RawMessage, bin string) (HexBytes, error) {
	bytecode = bytes.TrimSpace(bytecode)
	if len(bytecode) == 0 || bytes.Equal(bytecode, null) {
		return decodeBytecode(bin)
	}

	var str string
	if bytecode[0] == '{' {
		var obj struct{ Object string }
		err := json.Unmarshal(bytecode, &obj)
		if err != nil {
			return nil, &AbiParseError{Reason: `invalid "bytecode" field`, Err: err}
		}
		str = obj.Object
	} else {
		err := json.Unmarshal(bytecode, &str)
		if err != nil {
			return nil, &AbiParseError{Reason: `invalid "bytecode" field`, Err: err}
		}
	}
	return decodeBytecode(str)
}

/*
Builds a contract type from parsed ABI entries and optional creation code.
Fails with "*AbiParseError" if two events share a signature.
*/
func NewContractType(name string, abi Abi, code []byte) (*ContractType, error) {
	out := &ContractType{
		Name:      name,
		Abi:       abi,
		Bytecode:  HexBytes(code),
		functions: map[string]*AbiFunction{},
		events:    map[string]*AbiEvent{},
		topics:    map[Word]*AbiEvent{},
	}

	for i := range abi {
		switch entry := abi[i].(type) {
		case AbiConstructor:
			out.Constructor = &entry

		case AbiFunction:
			fn := &entry
			if _, ok := out.functions[fn.Name]; !ok {
				out.functions[fn.Name] = fn
			}
			out.functions[fn.Signature] = fn

		case AbiEvent:
			event := &entry
			if _, ok := out.events[event.Signature]; ok {
				return nil, &AbiParseError{Reason: `duplicate event ` + event.Signature}
			}
			if _, ok := out.events[event.Name]; !ok {
				out.events[event.Name] = event
			}
			out.events[event.Signature] = event
			out.eventList = append(out.eventList, event)
			if !event.Anonymous {
				out.topics[event.Selector] = event
			}
		}
	}
	return out, nil
}

// Converts compiler output into a contract type.
func (self ContractDef) ContractType() (*ContractType, error) {
	return NewContractType(self.ContractName, self.Abi, self.Code)
}

/*
Finds a function by name or full signature. Fails with "*UnknownFunctionError".
*/
func (self *ContractType) Function(name string) (*AbiFunction, error) {
	fn := self.functions[name]
	if fn == nil {
		return nil, errors.WithStack(&UnknownFunctionError{Contract: self.Name, Name: name})
	}
	return fn, nil
}

// Finds an event by name or full signature. Fails with "*UnknownEventError".
func (self *ContractType) Event(name string) (*AbiEvent, error) {
	event := self.events[name]
	if event == nil {
		return nil, errors.WithStack(&UnknownEventError{Contract: self.Name, Name: name})
	}
	return event, nil
}

// Finds the non-anonymous event whose selector equals the given topic 0.
func (self *ContractType) EventByTopic(topic Word) (*AbiEvent, bool) {
	event, ok := self.topics[topic]
	return event, ok
}

// All events, in declaration order.
func (self *ContractType) Events() []*AbiEvent { return self.eventList }

// Decodes logs with this contract's events. See "DecodeLogs".
func (self *ContractType) DecodeLogs(raw []RawLog) []LogEntry {
	return DecodeLogs(raw, self.eventList)
}

// Optional transaction settings. Zero values are filled in by the node's
// estimates.
type TxOpts struct {
	Value    *big.Int
	GasLimit uint64
	GasPrice *big.Int
}

func (self TxOpts) apply(msg TxMsg) TxMsg {
	if self.Value != nil {
		msg.Value = (*HexInt)(self.Value)
	}
	if self.GasLimit > 0 {
		msg.GasLimit = (*HexInt)(new(big.Int).SetUint64(self.GasLimit))
	}
	if self.GasPrice != nil {
		msg.GasPrice = (*HexInt)(self.GasPrice)
	}
	return msg
}

// Shortcut for "DeployWith" that only sets the gas limit.
func (self *ContractType) Deploy(ctx context.Context, acc Account, gas uint64, args ...interface{}) (*Transaction, error) {
	return self.DeployWith(ctx, acc, TxOpts{GasLimit: gas}, args...)
}

/*
Deploys a new instance of the contract: sends a transaction with the creation
code followed by the ABI-encoded constructor arguments. Returns the pending
transaction; once mined, "Transaction.ContractAddress" holds the new
contract's address.

The account must be a "Sender", otherwise this fails with "*NotSupportedError"
before encoding anything.
*/
func (self *ContractType) DeployWith(ctx context.Context, acc Account, opts TxOpts, args ...interface{}) (*Transaction, error) {
	sender, ok := acc.(Sender)
	if !ok {
		return nil, notSupported("contract deployment", acc)
	}
	if len(self.Bytecode) == 0 {
		return nil, errors.Errorf(`contract %q has no bytecode to deploy`, self.Name)
	}

	var ctor AbiConstructor
	if self.Constructor != nil {
		ctor = *self.Constructor
	}

	data, err := ctor.Marshal(args...)
	if err != nil {
		return nil, errors.Wrap(err, `failed to encode constructor arguments`)
	}

	msg := opts.apply(TxMsg{Data: append(append(HexBytes{}, self.Bytecode...), data...)})

	tx, err := sender.SendTx(ctx, msg)
	if err != nil {
		return nil, err
	}
	acc.owner().log.WithFields(logrus.Fields{
		"contract": self.Name,
		"hash":     tx.Hash().String(),
	}).Debug("sent contract deployment")
	return tx, nil
}

/*
Binds the contract type to a deployed address and an acting account. The same
contract may be bound to different accounts independently.
*/
func (self *ContractType) At(address Address, acc Account) *ContractInstance {
	return &ContractInstance{typ: self, address: address, account: acc}
}

// A deployed contract seen through one account.
type ContractInstance struct {
	typ     *ContractType
	address Address
	account Account
}

func (self *ContractInstance) Type() *ContractType { return self.typ }
func (self *ContractInstance) Address() Address    { return self.address }
func (self *ContractInstance) Account() Account    { return self.account }

// Same contract, different acting account.
func (self *ContractInstance) WithAccount(acc Account) *ContractInstance {
	return self.typ.At(self.address, acc)
}

/*
Result of "ContractInstance.Invoke". Constant functions produce "Values";
mutating functions produce a pending "Tx".
*/
type CallResult struct {
	Values []interface{}
	Tx     *Transaction
}

/*
Invokes a function by name or signature, choosing the mechanism by the
function's mutability. Constant functions ("view", "pure", or legacy
"constant") are executed via "eth_call" and return decoded values. Others are
sent as transactions, which requires a "Sender" account; the anonymous
account fails with "*NotSupportedError" and nothing is sent.
*/
func (self *ContractInstance) Invoke(ctx context.Context, name string, args ...interface{}) (CallResult, error) {
	fn, err := self.typ.Function(name)
	if err != nil {
		return CallResult{}, err
	}

	if fn.IsConstant() {
		vals, err := self.call(ctx, fn, args)
		return CallResult{Values: vals}, err
	}

	tx, err := self.transact(ctx, fn, TxOpts{}, args)
	return CallResult{Tx: tx}, err
}

/*
Executes a function via "eth_call" and decodes its return values. Mutating
functions are simulated against the latest block; nothing is persisted.
*/
func (self *ContractInstance) Call(ctx context.Context, name string, args ...interface{}) ([]interface{}, error) {
	fn, err := self.typ.Function(name)
	if err != nil {
		return nil, err
	}
	return self.call(ctx, fn, args)
}

/*
Same as "Call", but decodes the return values into the provided outputs,
which must be pointers. See "AbiFunction.Unmarshal".
*/
func (self *ContractInstance) CallInto(ctx context.Context, name string, outs []interface{}, args ...interface{}) error {
	fn, err := self.typ.Function(name)
	if err != nil {
		return err
	}
	out, err := self.rawCall(ctx, fn, args)
	if err != nil {
		return err
	}
	return fn.Unmarshal(out, outs...)
}

func (self *ContractInstance) call(ctx context.Context, fn *AbiFunction, args []interface{}) ([]interface{}, error) {
	out, err := self.rawCall(ctx, fn, args)
	if err != nil {
		return nil, err
	}
	return fn.DecodeReturns(out)
}

func (self *ContractInstance) rawCall(ctx context.Context, fn *AbiFunction, args []interface{}) ([]byte, error) {
	data, err := fn.Marshal(args...)
	if err != nil {
		return nil, err
	}
	return self.account.Call(ctx, TxMsg{To: self.address, Data: data})
}

/*
Sends a transaction invoking the function, regardless of its mutability.
Returns the pending transaction. Requires a "Sender" account.
*/
func (self *ContractInstance) Transact(ctx context.Context, opts TxOpts, name string, args ...interface{}) (*Transaction, error) {
	fn, err := self.typ.Function(name)
	if err != nil {
		return nil, err
	}
	return self.transact(ctx, fn, opts, args)
}

func (self *ContractInstance) transact(ctx context.Context, fn *AbiFunction, opts TxOpts, args []interface{}) (*Transaction, error) {
	sender, ok := self.account.(Sender)
	if !ok {
		return nil, notSupported(`calling non-constant function `+fn.Signature, self.account)
	}

	data, err := fn.Marshal(args...)
	if err != nil {
		return nil, err
	}
	return sender.SendTx(ctx, opts.apply(TxMsg{To: self.address, Data: data}))
}

/*
Fetches and decodes this contract's logs. The address filter defaults to the
instance's address. Every event of the contract type is used for decoding;
"query.Events", when given, narrows what the node returns.
*/
func (self *ContractInstance) GetLogs(ctx context.Context, query LogQuery) ([]LogEntry, error) {
	if len(query.Addresses) == 0 {
		query.Addresses = []Address{self.address}
	}
	return self.account.owner().getLogs(ctx, query, self.typ.eventList)
}
