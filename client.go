package etherlite

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

/*
Entry point of the library: one RPC endpoint, plus the settings shared by the
accounts, contracts and transactions created through it. Safe for concurrent
use.
*/
type Client struct {
	trans   Trans
	config  Config
	log     logrus.FieldLogger
	metrics *Metrics

	chainLock sync.Mutex
	chainID   *big.Int
}

/*
Validates the config, connects to "Config.RpcUrl" (HTTP or websocket) and
returns a client. See "NewClient" for the remaining settings.
*/
func Dial(conf Config) (*Client, error) {
	err := conf.Validate()
	if err != nil {
		return nil, err
	}

	trans, err := DialTrans(conf.RpcUrl, conf.Logger)
	if err != nil {
		return nil, errors.Wrapf(err, `failed to connect to %v`, conf.RpcUrl)
	}
	return NewClient(trans, conf)
}

/*
Creates a client over an existing transport. "Config.RpcUrl" is ignored. When
"Config.Registerer" is set, RPC calls and broadcasts are recorded in
Prometheus collectors registered there.
*/
func NewClient(trans Trans, conf Config) (*Client, error) {
	if trans == nil {
		return nil, errors.New("client requires an RPC transport")
	}
	conf = conf.withDefaults()

	out := &Client{
		trans:  trans,
		config: conf,
		log:    conf.Logger,
	}
	if conf.ChainID != 0 {
		out.chainID = new(big.Int).SetUint64(conf.ChainID)
	}

	if conf.Registerer != nil {
		out.metrics = NewMetrics()
		err := out.metrics.Register(conf.Registerer)
		if err != nil {
			return nil, err
		}
		out.trans = InstrumentTrans(trans, out.metrics)
	}
	return out, nil
}

// The underlying transport, for use with the "EthXxx" functions.
func (self *Client) Trans() Trans { return self.trans }

// Accounts managed by the node, in the node's order.
func (self *Client) Accounts(ctx context.Context) ([]*NodeAccount, error) {
	addrs, err := EthAccounts(ctx, self.trans)
	if err != nil {
		return nil, err
	}
	out := make([]*NodeAccount, len(addrs))
	for i, addr := range addrs {
		out[i] = &NodeAccount{client: self, address: addr}
	}
	return out, nil
}

// The first account managed by the node. Fails if the node has none.
func (self *Client) DefaultAccount(ctx context.Context) (*NodeAccount, error) {
	accounts, err := self.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, errors.New("the node manages no accounts")
	}
	return accounts[0], nil
}

// An account without an address, for constant calls only.
func (self *Client) AnonymousAccount() *AnonymousAccount {
	return &AnonymousAccount{client: self}
}

/*
Creates a local account from a hex-encoded secp256k1 private key, with or
without the "0x" prefix. The address is derived from the key.
*/
func (self *Client) LoadAccount(hexKey string) (*LocalAccount, error) {
	key, err := parsePrivateKey(hexKey)
	if err != nil {
		return nil, err
	}
	return self.NewLocalAccount(key), nil
}

// Creates a local account from a private key.
func (self *Client) NewLocalAccount(key *ecdsa.PrivateKey) *LocalAccount {
	return &LocalAccount{client: self, key: key, address: keyAddress(key)}
}

/*
Parses an address for read-only queries. Unlike "ParseAddress", requires the
"0x" prefix. Mixed-case input must carry a valid checksum.
*/
func (self *Client) LoadAddress(text string) (*AddressRef, error) {
	if !has0x(stringToBytesUnsafe(text)) {
		return nil, errors.WithStack(&AddressFormatError{Input: text, Reason: "missing 0x prefix"})
	}
	addr, err := ParseAddress(text)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &AddressRef{client: self, address: addr}, nil
}

// Pending snapshot of the transaction with the given hash. See "Refresh".
func (self *Client) LoadTransaction(hash Hash) *Transaction {
	return &Transaction{client: self, hash: hash}
}

// Sends "amount" wei from the default account.
func (self *Client) TransferTo(ctx context.Context, to Address, amount *big.Int) (*Transaction, error) {
	acc, err := self.DefaultAccount(ctx)
	if err != nil {
		return nil, err
	}
	return acc.TransferTo(ctx, to, amount)
}

// Balance of the address at the latest block, in wei.
func (self *Client) GetBalance(ctx context.Context, addr Address) (*big.Int, error) {
	return EthGetBalance(ctx, self.trans, addr)
}

// Number of the latest block.
func (self *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return EthBlockNumber(ctx, self.trans)
}

/*
Chain ID used for EIP-155 signatures. Taken from "Config.ChainID" or fetched
with "eth_chainId" on first use, then cached.
*/
func (self *Client) ChainID(ctx context.Context) (*big.Int, error) {
	self.chainLock.Lock()
	defer self.chainLock.Unlock()

	if self.chainID == nil {
		id, err := EthChainId(ctx, self.trans)
		if err != nil {
			return nil, err
		}
		self.chainID = id
	}
	return new(big.Int).Set(self.chainID), nil
}

// Mines a block on a development node. See "EvmMine".
func (self *Client) Mine(ctx context.Context) error {
	return EvmMine(ctx, self.trans)
}

// An address bound to a client, for read-only queries.
type AddressRef struct {
	client  *Client
	address Address
}

func (self *AddressRef) Address() Address { return self.address }

// Implements "fmt.Stringer". Uses the checksum form.
func (self *AddressRef) String() string { return self.address.String() }

// Balance at the latest block, in wei.
func (self *AddressRef) GetBalance(ctx context.Context) (*big.Int, error) {
	return EthGetBalance(ctx, self.client.trans, self.address)
}

/*
Binds a contract type at this address, acting as the given account. Same as
"ContractType.At".
*/
func (self *AddressRef) Contract(typ *ContractType, acc Account) *ContractInstance {
	return typ.At(self.address, acc)
}
