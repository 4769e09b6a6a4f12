package etherlite

import (
	"fmt"
	"time"
)

/*
Local validation and capability failures. Each is a distinct type so callers
can tell them apart with "errors.As":

	var notSupported *etherlite.NotSupportedError
	if errors.As(err, &notSupported) {
		...
	}

Errors reported by the node over JSON RPC arrive as "RpcError"; transport
failures are passed through as-is, wrapped with the RPC method name.
*/

// Malformed textual address. Raised before any network call.
type AddressFormatError struct {
	Input  string
	Reason string
}

func (self *AddressFormatError) Error() string {
	return fmt.Sprintf("invalid address %q: %v", self.Input, self.Reason)
}

// Structurally invalid ABI definition.
type AbiParseError struct {
	Reason string
	Err    error
}

func (self *AbiParseError) Error() string {
	if self.Err != nil {
		return "invalid ABI definition: " + self.Reason + ": " + self.Err.Error()
	}
	return "invalid ABI definition: " + self.Reason
}

func (self *AbiParseError) Unwrap() error { return self.Err }

// A Go value can't be ABI-encoded as the requested Solidity type: type
// mismatch, arity mismatch, or a value outside the type's range.
type AbiEncodeError struct {
	Type   string
	Reason string
}

func (self *AbiEncodeError) Error() string {
	return fmt.Sprintf("failed to ABI-encode %v: %v", self.Type, self.Reason)
}

// Input bytes don't match the expected ABI layout.
type AbiDecodeError struct {
	Type   string
	Reason string
}

func (self *AbiDecodeError) Error() string {
	return fmt.Sprintf("failed to ABI-decode %v: %v", self.Type, self.Reason)
}

type UnknownFunctionError struct {
	Contract string
	Name     string
}

func (self *UnknownFunctionError) Error() string {
	if self.Contract == "" {
		return fmt.Sprintf("function %q not found in ABI definition", self.Name)
	}
	return fmt.Sprintf("function %q not found in ABI definition of %v", self.Name, self.Contract)
}

type UnknownEventError struct {
	Contract string
	Name     string
}

func (self *UnknownEventError) Error() string {
	if self.Contract == "" {
		return fmt.Sprintf("event %q not found in ABI definition", self.Name)
	}
	return fmt.Sprintf("event %q not found in ABI definition of %v", self.Name, self.Contract)
}

// The acting account lacks the capability the operation requires, typically
// signing or sending transactions.
type NotSupportedError struct {
	Op      string
	Account string
}

func (self *NotSupportedError) Error() string {
	return fmt.Sprintf("%v is not supported by %v", self.Op, self.Account)
}

// The transaction didn't reach the requested depth within the time bound.
type TransactionTimeoutError struct {
	Hash          Hash
	Timeout       time.Duration
	Confirmations uint64
}

func (self *TransactionTimeoutError) Error() string {
	return fmt.Sprintf("transaction %v did not reach %v confirmation(s) within %v",
		self.Hash, self.Confirmations, self.Timeout)
}

func notSupported(op string, acc Account) error {
	return &NotSupportedError{Op: op, Account: describeAccount(acc)}
}
