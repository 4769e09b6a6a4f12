package etherlite

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Whether a transaction has been included in a block.
type TxStatus byte

const (
	TxPending TxStatus = iota
	TxMined
)

// Implements "fmt.Stringer".
func (self TxStatus) String() string {
	switch self {
	case TxPending:
		return "pending"
	case TxMined:
		return "mined"
	default:
		return ""
	}
}

/*
Immutable snapshot of a transaction's state as last observed from the node.
"Refresh" and the waiting methods return a new snapshot; existing ones never
change. Mined-only fields report false from their accessors while pending.
*/
type Transaction struct {
	client  *Client
	hash    Hash
	receipt *TxReceipt
	head    uint64
}

func (self *Transaction) Hash() Hash { return self.hash }

func (self *Transaction) Status() TxStatus {
	if self.Mined() {
		return TxMined
	}
	return TxPending
}

func (self *Transaction) Mined() bool {
	return self.receipt != nil && self.receipt.BlockNumber != nil
}

// The receipt this snapshot was built from; nil while pending.
func (self *Transaction) Receipt() *TxReceipt {
	if !self.Mined() {
		return nil
	}
	return self.receipt
}

func (self *Transaction) BlockNumber() (uint64, bool) {
	if !self.Mined() {
		return 0, false
	}
	return uint64(*self.receipt.BlockNumber), true
}

func (self *Transaction) BlockHash() (Hash, bool) {
	if !self.Mined() {
		return Hash{}, false
	}
	return self.receipt.BlockHash, true
}

func (self *Transaction) GasUsed() (uint64, bool) {
	if !self.Mined() || self.receipt.GasUsed == nil {
		return 0, false
	}
	return uint64(*self.receipt.GasUsed), true
}

/*
True when the transaction was mined and executed without reverting. Receipts
from before the Byzantium fork carry no status; those count as succeeded.
*/
func (self *Transaction) Succeeded() bool {
	if !self.Mined() {
		return false
	}
	return self.receipt.Status == nil || *self.receipt.Status == 1
}

// Address of the contract created by this transaction, if it was a deployment.
func (self *Transaction) ContractAddress() (Address, bool) {
	if !self.Mined() || self.receipt.ContractAddress == ZeroAddress {
		return Address{}, false
	}
	return self.receipt.ContractAddress, true
}

// Logs emitted by the transaction, in the node's representation.
func (self *Transaction) RawLogs() []RawLog {
	if !self.Mined() {
		return nil
	}
	return self.receipt.Logs
}

/*
Number of blocks on top of and including the transaction's block, as of the
head observed with the receipt. Zero while pending.
*/
func (self *Transaction) Confirmations() uint64 {
	num, ok := self.BlockNumber()
	if !ok || self.head < num {
		return 0
	}
	return self.head - num + 1
}

/*
Queries the node for the transaction's receipt and returns a new snapshot.
When the node reports no receipt, the snapshot is pending; otherwise the
current block number is fetched too, for "Confirmations".
*/
func (self *Transaction) Refresh(ctx context.Context) (*Transaction, error) {
	trans := self.client.trans

	receipt, err := EthGetTxReceipt(ctx, trans, self.hash)
	if err != nil {
		return nil, err
	}

	out := &Transaction{client: self.client, hash: self.hash, receipt: receipt}
	if !out.Mined() {
		return out, nil
	}

	out.head, err = EthBlockNumber(ctx, trans)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Shortcut for "WaitForConfirmations" with a depth of one block.
func (self *Transaction) WaitForBlock(ctx context.Context, timeout time.Duration) (*Transaction, error) {
	return self.WaitForConfirmations(ctx, 1, timeout)
}

/*
Polls the node until the transaction has at least "count" confirmations, and
returns the snapshot that satisfied the condition. Polling starts at
"Config.PollInterval" and backs off exponentially up to "Config.MaxPollInterval".

A zero timeout means "Config.ConfirmTimeout". Running out of time returns
"*TransactionTimeoutError"; cancelation of the parent context returns its
error. RPC failures abort the wait without retrying.
*/
func (self *Transaction) WaitForConfirmations(ctx context.Context, count uint64, timeout time.Duration) (*Transaction, error) {
	conf := self.client.config
	timeout = durationOr(timeout, conf.ConfirmTimeout)
	if count < 1 {
		count = 1
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = conf.PollInterval
	policy.MaxInterval = conf.MaxPollInterval
	policy.MaxElapsedTime = 0

	log := self.client.log.WithFields(logrus.Fields{"hash": self.hash.String(), "want": count})
	current := self

	err := backoff.Retry(func() error {
		next, err := current.Refresh(waitCtx)
		if err != nil {
			return backoff.Permanent(err)
		}
		current = next

		have := next.Confirmations()
		log.WithField("confirmations", have).Debug("polled transaction receipt")
		if have >= count {
			return nil
		}
		return errNotConfirmed
	}, backoff.WithContext(policy, waitCtx))

	if err == nil {
		return current, nil
	}
	if ctx.Err() != nil {
		return current, errors.WithStack(ctx.Err())
	}
	if waitCtx.Err() != nil {
		return current, errors.WithStack(&TransactionTimeoutError{
			Hash:          self.hash,
			Timeout:       timeout,
			Confirmations: count,
		})
	}
	return current, err
}

var errNotConfirmed = errors.New("transaction not yet confirmed")
