package etherlite

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
)

// Strongly-typed version of the "eth_accounts" RPC method.
func EthAccounts(ctx context.Context, trans Trans) ([]Address, error) {
	var out []Address
	err := trans.Call(ctx, &out, "eth_accounts")
	return out, errors.Wrap(err, `error in "eth_accounts"`)
}

// Strongly-typed version of the "eth_getBalance" RPC method, at the latest
// block.
func EthGetBalance(ctx context.Context, trans Trans, addr Address) (*big.Int, error) {
	var out HexInt
	err := trans.Call(ctx, &out, "eth_getBalance", addr, BlockNumberLatest)
	return (*big.Int)(&out), errors.Wrap(err, `error in "eth_getBalance"`)
}

// Strongly-typed version of the "eth_gasPrice" RPC method.
func EthGasPrice(ctx context.Context, trans Trans) (*big.Int, error) {
	var out HexInt
	err := trans.Call(ctx, &out, "eth_gasPrice")
	return (*big.Int)(&out), errors.Wrap(err, `error in "eth_gasPrice"`)
}

/*
Strongly-typed version of the "eth_estimateGas" RPC method.

Note that estimating gas is a somewhat slow operation; the remote node will
attempt to execute the transaction against the current block, running EVM code
if required. This can easily take tens of milliseconds, or more.
*/
func EthEstimateGas(ctx context.Context, trans Trans, msg TxMsg) (*big.Int, error) {
	var out HexInt
	err := trans.Call(ctx, &out, "eth_estimateGas", msg)
	return (*big.Int)(&out), errors.Wrap(err, `error in "eth_estimateGas"`)
}

// Strongly-typed version of the "eth_blockNumber" RPC method.
func EthBlockNumber(ctx context.Context, trans Trans) (uint64, error) {
	var out HexUint64
	err := trans.Call(ctx, &out, "eth_blockNumber")
	return uint64(out), errors.Wrap(err, `error in "eth_blockNumber"`)
}

// Strongly-typed version of the "eth_chainId" RPC method.
func EthChainId(ctx context.Context, trans Trans) (*big.Int, error) {
	var out HexInt
	err := trans.Call(ctx, &out, "eth_chainId")
	return (*big.Int)(&out), errors.Wrap(err, `error in "eth_chainId"`)
}

/*
Strongly-typed version of the "eth_getTransactionCount" RPC method. Use
"BlockNumberPending" to count transactions still in the node's pool, which is
what nonce assignment needs.
*/
func EthGetTransactionCount(ctx context.Context, trans Trans, addr Address, num BlockNumber) (uint64, error) {
	var out HexUint64
	err := trans.Call(ctx, &out, "eth_getTransactionCount", addr, encodeBlockNumber(num))
	return uint64(out), errors.Wrap(err, `error in "eth_getTransactionCount"`)
}

/*
Strongly-typed version of the "eth_sendRawTransaction" RPC method. The input
must be a signed transaction in its binary encoding; see "LocalAccount.Sign".
*/
func EthSendRawTx(ctx context.Context, trans Trans, raw []byte) (Hash, error) {
	var out Hash
	err := trans.Call(ctx, &out, "eth_sendRawTransaction", HexBytes(raw))
	return out, errors.Wrap(err, `error in "eth_sendRawTransaction"`)
}

/*
Strongly-typed version of the "eth_sendTransaction" RPC method. The node signs
the transaction, so "msg.From" must be an account it manages. Automatically
adds gas estimates.
*/
func EthSendTx(ctx context.Context, trans Trans, msg TxMsg) (Hash, error) {
	msg, err := AddEstimates(ctx, trans, msg)
	if err != nil {
		return Hash{}, errors.Wrap(err, "failed to add gas estimates")
	}

	var out Hash
	err = trans.Call(ctx, &out, "eth_sendTransaction", msg)
	return out, errors.Wrap(err, `error in "eth_sendTransaction"`)
}

/*
Strongly-typed version of the "eth_getTransactionReceipt" RPC method. Returns
nil without an error while the transaction is pending or unknown to the node.
*/
func EthGetTxReceipt(ctx context.Context, trans Trans, hash Hash) (*TxReceipt, error) {
	var out *TxReceipt
	err := trans.Call(ctx, &out, "eth_getTransactionReceipt", hash)
	return out, errors.Wrap(err, `error in "eth_getTransactionReceipt"`)
}

// Strongly-typed version of the "eth_getLogs" RPC method.
func EthGetLogs(ctx context.Context, trans Trans, filter LogFilter) ([]RawLog, error) {
	filter.FromBlock = encodeBlockNumber(filter.FromBlock)
	filter.ToBlock = encodeBlockNumber(filter.ToBlock)

	var out []RawLog
	err := trans.Call(ctx, &out, "eth_getLogs", filter)
	return out, errors.Wrap(err, `error in "eth_getLogs"`)
}

/*
Strongly-typed version of the "eth_call" RPC method.

Invokes a "view" or "pure" contract method. In other words, a read-only method
that doesn't create a new transaction. The caller must ABI-pack the "TxMsg.Data"
payload and ABI-unpack the output.
*/
func EthCall(ctx context.Context, trans Trans, msg TxMsg, num BlockNumber) ([]byte, error) {
	var out HexBytes
	err := trans.Call(ctx, &out, "eth_call", msg, encodeBlockNumber(num))
	return out, errors.Wrap(err, `error in "eth_call"`)
}

// Same as "EthCall", but always uses the latest block number.
func EthCallLatest(ctx context.Context, trans Trans, msg TxMsg) ([]byte, error) {
	return EthCall(ctx, trans, msg, BlockNumberLatest)
}

/*
Asks a development node (Ganache, Hardhat, Anvil) to mine a block. Not part of
the standard API; production nodes reject it.
*/
func EvmMine(ctx context.Context, trans Trans) error {
	var out interface{}
	err := trans.Call(ctx, &out, "evm_mine")
	return errors.Wrap(err, `error in "evm_mine"`)
}

/*
Asks the remote node to estimate the gas required for the transaction. Useful
for ensuring that a contract method will succeed regardless of the expense,
instead of trying to manually "guess" a sensible limit. Use with caution.

Used automatically when sending transactions without an explicit gas price or
limit.
*/
func AddEstimates(ctx context.Context, trans Trans, msg TxMsg) (TxMsg, error) {
	if msg.GasPrice == nil {
		gasPrice, err := EthGasPrice(ctx, trans)
		if err != nil {
			return msg, err
		}
		msg.GasPrice = (*HexInt)(gasPrice)
	}

	// Estimating gas is a somewhat slow operation, but leaving this empty
	// allows transactions to execute with near-infinite gas, and may cause
	// transactions to be spuriously rejected.
	if msg.GasLimit == nil {
		gasLimit, err := EthEstimateGas(ctx, trans, msg)
		if err != nil {
			return msg, err
		}
		msg.GasLimit = (*HexInt)(gasLimit)
	}

	return msg, nil
}

/*
Formulates a TxMsg that will deploy a contract with the provided code. Exists
mainly for convenience and validation. Returns an error if any of the inputs
appear to be invalid.
*/
func ContractDeploymentTxMsg(code []byte, sender Address) (TxMsg, error) {
	if sender == ZeroAddress {
		return TxMsg{}, errors.New("contract deployment requires a sender address")
	}
	if len(code) == 0 {
		return TxMsg{}, errors.New("contract deployment requires contract code")
	}
	return TxMsg{
		From: sender,
		Data: HexBytes(code),
	}, nil
}
