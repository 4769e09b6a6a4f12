package etherlite

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

/*
Account is the identity a contract call or transaction is made as. There are
exactly three implementations:

	*LocalAccount      holds a private key, signs locally
	*NodeAccount       managed by the node, which signs on our behalf
	*AnonymousAccount  has no address, may only make constant calls

Capabilities are expressed as wider interfaces: "Sender" can broadcast
transactions, "Signer" can also produce signatures. Use a type switch or
"errors.As" on "*NotSupportedError" to handle the differences.
*/
type Account interface {
	// The account's address. False for the anonymous account.
	NormalizedAddress() (Address, bool)

	// Executes a constant call via "eth_call" as this account.
	Call(ctx context.Context, msg TxMsg) ([]byte, error)

	owner() *Client
}

// An Account that can broadcast transactions.
type Sender interface {
	Account
	SendTx(ctx context.Context, msg TxMsg) (*Transaction, error)
}

// A Sender that holds a private key and can sign transactions locally.
type Signer interface {
	Sender
	Sign(tx *types.Transaction, chainID *big.Int) ([]byte, error)
}

/*
Signs the transaction as the given account and returns its binary encoding,
ready for "eth_sendRawTransaction". Fails with "*NotSupportedError" unless the
account is a "Signer".
*/
func Sign(acc Account, tx *types.Transaction, chainID *big.Int) ([]byte, error) {
	signer, ok := acc.(Signer)
	if !ok {
		return nil, notSupported("signing", acc)
	}
	return signer.Sign(tx, chainID)
}

/*
Sends "amount" wei from the account to the given address. Returns a pending
transaction right after the broadcast. Fails with "*NotSupportedError" before
building anything unless the account is a "Sender".
*/
func TransferTo(ctx context.Context, acc Account, to Address, amount *big.Int) (*Transaction, error) {
	sender, ok := acc.(Sender)
	if !ok {
		return nil, notSupported("sending transactions", acc)
	}
	return sender.SendTx(ctx, TxMsg{
		To:       to,
		Value:    (*HexInt)(amount),
		GasLimit: (*HexInt)(big.NewInt(TransferGas)),
	})
}

// Shared by every "Account.Call". Anonymous calls go out with a null "from".
func accountCall(ctx context.Context, client *Client, acc Account, msg TxMsg) ([]byte, error) {
	if addr, ok := acc.NormalizedAddress(); ok {
		msg.From = addr
	} else {
		msg.From = ZeroAddress
	}
	return EthCallLatest(ctx, client.trans, msg)
}

func describeAccount(acc Account) string {
	switch acc := acc.(type) {
	case *LocalAccount:
		return "local account " + acc.address.String()
	case *NodeAccount:
		return "node account " + acc.address.String()
	case *AnonymousAccount:
		return "anonymous account"
	case nil:
		return "no account"
	default:
		return "unknown account"
	}
}

/*
Account backed by a private key held in memory. Transactions are signed
locally (EIP-155) and broadcast with "eth_sendRawTransaction".

Submissions from one LocalAccount are serialized: the nonce is the larger of
the node's pending transaction count and the local counter, and the counter
advances only after a successful broadcast. Safe for concurrent use.
*/
type LocalAccount struct {
	client  *Client
	key     *ecdsa.PrivateKey
	address Address

	lock      sync.Mutex
	nextNonce uint64
}

func (self *LocalAccount) owner() *Client { return self.client }

// Implements "Account".
func (self *LocalAccount) NormalizedAddress() (Address, bool) { return self.address, true }

// Shortcut for the account's address.
func (self *LocalAccount) Address() Address { return self.address }

// The account's private key.
func (self *LocalAccount) PrivateKey() *ecdsa.PrivateKey { return self.key }

// Implements "Account".
func (self *LocalAccount) Call(ctx context.Context, msg TxMsg) ([]byte, error) {
	return accountCall(ctx, self.client, self, msg)
}

// Balance of the account at the latest block, in wei.
func (self *LocalAccount) GetBalance(ctx context.Context) (*big.Int, error) {
	return EthGetBalance(ctx, self.client.trans, self.address)
}

// Shortcut for "TransferTo".
func (self *LocalAccount) TransferTo(ctx context.Context, to Address, amount *big.Int) (*Transaction, error) {
	return TransferTo(ctx, self, to, amount)
}

/*
Implements "Signer". Produces an EIP-155 signature with the account's key and
returns the signed transaction's binary encoding.
*/
func (self *LocalAccount) Sign(tx *types.Transaction, chainID *big.Int) ([]byte, error) {
	signer := types.NewEIP155Signer(chainID)
	hash := signer.Hash(tx)

	sig, err := crypto.Sign(hash[:], self.key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction")
	}

	signed, err := tx.WithSignature(signer, sig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction")
	}

	out, err := signed.MarshalBinary()
	return out, errors.Wrap(err, "failed to encode signed transaction")
}

/*
Implements "Sender". Fills in the nonce, gas price, gas limit and chain ID
where the message leaves them unset, signs, and broadcasts. A zero "msg.To"
deploys a contract. "msg.From" is ignored.
*/
func (self *LocalAccount) SendTx(ctx context.Context, msg TxMsg) (*Transaction, error) {
	msg.From = self.address

	chainID, err := self.client.ChainID(ctx)
	if err != nil {
		return nil, err
	}

	self.lock.Lock()
	defer self.lock.Unlock()

	nonce, err := EthGetTransactionCount(ctx, self.client.trans, self.address, BlockNumberPending)
	if err != nil {
		return nil, err
	}
	if nonce < self.nextNonce {
		nonce = self.nextNonce
	}
	if msg.Nonce != nil {
		nonce = uint64(*msg.Nonce)
	}

	msg, err = AddEstimates(ctx, self.client.trans, msg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to add gas estimates")
	}

	gas := msg.GasLimit.BigInt()
	if !gas.IsUint64() {
		return nil, errors.Errorf("gas limit %v doesn't fit into 64 bits", gas)
	}

	raw, err := self.Sign(types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: msg.GasPrice.BigInt(),
		Gas:      gas.Uint64(),
		To:       toCommonAddress(msg.To),
		Value:    msg.Value.BigInt(),
		Data:     msg.Data,
	}), chainID)
	if err != nil {
		return nil, err
	}

	hash, err := EthSendRawTx(ctx, self.client.trans, raw)
	if err != nil {
		return nil, err
	}
	// Replacing an older transaction must not rewind the counter.
	if nonce+1 > self.nextNonce {
		self.nextNonce = nonce + 1
	}

	self.client.metrics.txSent("raw")
	self.client.log.WithFields(logrus.Fields{
		"from":  self.address.String(),
		"nonce": nonce,
		"hash":  hash.String(),
	}).Debug("broadcast signed transaction")

	return self.client.LoadTransaction(hash), nil
}

func toCommonAddress(addr Address) *common.Address {
	if addr == ZeroAddress {
		return nil
	}
	out := common.Address(addr)
	return &out
}

/*
Account managed by the node, as listed by "eth_accounts". Transactions go
through "eth_sendTransaction" and the node signs them; the private key never
leaves the node, so "Sign" isn't available.
*/
type NodeAccount struct {
	client  *Client
	address Address
}

func (self *NodeAccount) owner() *Client { return self.client }

// Implements "Account".
func (self *NodeAccount) NormalizedAddress() (Address, bool) { return self.address, true }

// Shortcut for the account's address.
func (self *NodeAccount) Address() Address { return self.address }

// Implements "Account".
func (self *NodeAccount) Call(ctx context.Context, msg TxMsg) ([]byte, error) {
	return accountCall(ctx, self.client, self, msg)
}

// Balance of the account at the latest block, in wei.
func (self *NodeAccount) GetBalance(ctx context.Context) (*big.Int, error) {
	return EthGetBalance(ctx, self.client.trans, self.address)
}

// Shortcut for "TransferTo".
func (self *NodeAccount) TransferTo(ctx context.Context, to Address, amount *big.Int) (*Transaction, error) {
	return TransferTo(ctx, self, to, amount)
}

/*
Implements "Sender". The node assigns the nonce and signs; missing gas
settings are estimated first. "msg.From" is ignored.
*/
func (self *NodeAccount) SendTx(ctx context.Context, msg TxMsg) (*Transaction, error) {
	msg.From = self.address

	hash, err := EthSendTx(ctx, self.client.trans, msg)
	if err != nil {
		return nil, err
	}

	self.client.metrics.txSent("node")
	self.client.log.WithFields(logrus.Fields{
		"from": self.address.String(),
		"hash": hash.String(),
	}).Debug("broadcast node-signed transaction")

	return self.client.LoadTransaction(hash), nil
}

/*
Account without an address. Useful for reading contract state without any
identity. Can't send or sign; balance queries fail as well.
*/
type AnonymousAccount struct {
	client *Client
}

func (self *AnonymousAccount) owner() *Client { return self.client }

// Implements "Account". Always false.
func (self *AnonymousAccount) NormalizedAddress() (Address, bool) { return ZeroAddress, false }

// Implements "Account". The call is made without "from".
func (self *AnonymousAccount) Call(ctx context.Context, msg TxMsg) ([]byte, error) {
	return accountCall(ctx, self.client, self, msg)
}

// Always fails with "*NotSupportedError".
func (self *AnonymousAccount) GetBalance(context.Context) (*big.Int, error) {
	return nil, notSupported("balance queries", self)
}

// Always fails with "*NotSupportedError".
func (self *AnonymousAccount) TransferTo(ctx context.Context, to Address, amount *big.Int) (*Transaction, error) {
	return TransferTo(ctx, self, to, amount)
}

// Parses a hex-encoded secp256k1 private key, with or without the "0x" prefix.
func parsePrivateKey(input string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(input), "0x"))
	return key, errors.Wrap(err, "invalid private key")
}

func keyAddress(key *ecdsa.PrivateKey) Address {
	return Address(crypto.PubkeyToAddress(key.PublicKey))
}
