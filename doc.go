/*
Library for talking to an Ethereum node from a Go program: accounts and keys,
signing and sending transactions, ABI-encoding contract calls, decoding event
logs, and following a transaction until it's confirmed. Works with any node
that speaks the standard JSON-RPC API; development nodes (Ganache, Hardhat,
Anvil) get a few extras such as "Client.Mine".

Everything lives in ONE package. Signing primitives come from go-ethereum's
"crypto" and "core/types" packages; the rest is implemented here, with a much
smaller API surface.

# Types

Interacting with Ethereum over RPC involves transmitting raw bytes, addresses,
hashes, and numbers in a hex-encoded format prefixed with "0x". This package
provides aliases for regular Go types such as []byte, [32]byte, *big.Int,
uint64, specialized for hex encoding and decoding.

To avoid potential gotchas, all byte array types such as Address, Hash, and Word
have a special rule: a zero-initialized array is JSON-encoded as "null", not as
"0x0000000000000.....". For consistency, this rule also affects MarshalText,
where an empty array encodes as "". However, the .String() method is unaffected.

Addresses print in the EIP-55 checksum form. "ParseAddress" rejects mixed-case
input with a wrong checksum:

	addr, err := etherlite.ParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")

# Client

Connect to a node:

	client, err := etherlite.Dial(etherlite.Config{
		RpcUrl: "http://localhost:8545",
		Logger: logrus.StandardLogger(),
	})

Supported transports: HTTP and WebSocket. The WebSocket transport reconnects
automatically. Set "Config.Registerer" to collect Prometheus metrics about RPC
calls.

The strongly-typed "EthXxx" functions work with the raw transport:

	num, err := etherlite.EthBlockNumber(ctx, client.Trans())

# Accounts

There are three kinds of accounts:

	node, err := client.DefaultAccount(ctx)   // signed by the node
	local, err := client.LoadAccount(hexKey)  // signed locally
	anon := client.AnonymousAccount()         // constant calls only

Anything that sends a transaction returns a pending "*Transaction" right after
the broadcast. Operations an account can't perform fail with
"*NotSupportedError" before anything is sent.

# Transactions

A "*Transaction" is an immutable snapshot. "Refresh" returns a new one, and
the waiting methods poll with exponential backoff:

	tx, err := node.TransferTo(ctx, recipient, big.NewInt(etherlite.Ether))
	tx, err = tx.WaitForBlock(ctx, time.Minute)
	fmt.Println(tx.Succeeded(), tx.Confirmations())

# Contracts

Load a contract type from a compiler artifact or a bare ABI array:

	typ, err := etherlite.LoadContractTypeFile("build/Token.json")

Deploy it, or bind it to an existing address:

	tx, err := typ.Deploy(ctx, node, 1000000, "initial", 100)
	tx, err = tx.WaitForBlock(ctx, 0)
	addr, _ := tx.ContractAddress()
	token := typ.At(addr, node)

"Invoke" picks "eth_call" for constant functions and a transaction for
mutating ones. "Call" and "Transact" are the explicit variants:

	res, err := token.Invoke(ctx, "balanceOf", holder)
	balance := res.Values[0].(*big.Int)

	tx, err := token.Transact(ctx, etherlite.TxOpts{}, "transfer", to, amount)

ABI encoding and decoding supports all Solidity types, including tuples and
nested arrays. Decoded values use natural Go types; see "AbiDecodeTuple". For
typed outputs, see "AbiFunction.Unmarshal". Custom types may implement
"AbiMarshaler" and "AbiUnmarshaler".

Logs

	logs, err := token.GetLogs(ctx, etherlite.LogQuery{})
	for _, log := range logs {
		fmt.Println(log.EventName(), log.Values)
	}

Indexed parameters of reference types (string, bytes, arrays, tuples) are
stored by the node as a hash; they decode to "Hash".

# Code generation

The "gen_eth" subpackage turns compiler output into Go source with ready-made
contract types:

	//go:generate gen_eth --out=gen.go MyContract.sol:MyContract

# Cancelation

All network operations accept a context.Context as the first argument. Use
it for cancelation and deadlines.
*/
package etherlite
