package etherlite

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sendTestTransfer(t testing.TB, client *Client, node *fakeNode) *Transaction {
	t.Helper()
	acc, err := client.DefaultAccount(context.Background())
	require.NoError(t, err)
	tx, err := acc.TransferTo(context.Background(), node.accounts[1], big.NewInt(1))
	require.NoError(t, err)
	return tx
}

func TestTransactionPendingSnapshot(t *testing.T) {
	ctx := context.Background()
	client, node := newFakeClient(t)
	node.setAutoMine(false)

	tx := sendTestTransfer(t, client, node)
	assert.Equal(t, TxPending, tx.Status())
	assert.Equal(t, "pending", tx.Status().String())

	tx, err := tx.Refresh(ctx)
	require.NoError(t, err)
	assert.False(t, tx.Mined())
	assert.Nil(t, tx.Receipt())
	assert.Nil(t, tx.RawLogs())
	assert.False(t, tx.Succeeded())
	assert.Zero(t, tx.Confirmations())

	_, ok := tx.BlockNumber()
	assert.False(t, ok)
	_, ok = tx.BlockHash()
	assert.False(t, ok)
	_, ok = tx.GasUsed()
	assert.False(t, ok)
	_, ok = tx.ContractAddress()
	assert.False(t, ok)

	node.mineNow()

	mined, err := tx.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, TxMined, mined.Status())
	assert.Equal(t, tx.Hash(), mined.Hash())
	assert.NotNil(t, mined.Receipt())
	assert.Equal(t, uint64(1), mined.Confirmations())

	assert.False(t, tx.Mined(), "older snapshots must not change")
}

func TestTransactionWaitTimeout(t *testing.T) {
	client, node := newFakeClient(t)
	node.setAutoMine(false)
	tx := sendTestTransfer(t, client, node)

	start := time.Now()
	out, err := tx.WaitForBlock(context.Background(), 30*time.Millisecond)

	var timeoutErr *TransactionTimeoutError
	require.True(t, errors.As(err, &timeoutErr), "expected timeout, got %v", err)
	assert.Equal(t, tx.Hash(), timeoutErr.Hash)
	assert.Equal(t, uint64(1), timeoutErr.Confirmations)
	assert.Less(t, time.Since(start), 5*time.Second)

	require.NotNil(t, out)
	assert.False(t, out.Mined())
	assert.Greater(t, node.countCalls("eth_getTransactionReceipt"), 1, "expected repeated polling")
}

func TestTransactionWaitCanceled(t *testing.T) {
	client, node := newFakeClient(t)
	node.setAutoMine(false)
	tx := sendTestTransfer(t, client, node)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := tx.WaitForBlock(ctx, time.Minute)
	assert.True(t, errors.Is(err, context.Canceled), "expected cancelation, got %v", err)

	var timeoutErr *TransactionTimeoutError
	assert.False(t, errors.As(err, &timeoutErr))
}

func TestTransactionWaitForConfirmations(t *testing.T) {
	ctx := context.Background()
	client, node := newFakeClient(t)
	tx := sendTestTransfer(t, client, node)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2; i++ {
			time.Sleep(5 * time.Millisecond)
			node.mineNow()
		}
	}()

	out, err := tx.WaitForConfirmations(ctx, 3, time.Minute)
	<-done
	require.NoError(t, err)
	assert.GreaterOrEqual(t, out.Confirmations(), uint64(3))

	num, ok := out.BlockNumber()
	assert.True(t, ok)
	assert.Equal(t, uint64(1), num)
}

func TestTransactionWaitRpcError(t *testing.T) {
	client, _ := newFakeClient(t)
	trans := new(mockTrans)
	client.trans = trans

	hash := Hash{1}
	trans.On("eth_getTransactionReceipt", hash).Return("", RpcError{Code: -32000, Message: "boom"}).Once()

	_, err := client.LoadTransaction(hash).WaitForBlock(context.Background(), time.Minute)
	var rpcErr RpcError
	require.True(t, errors.As(err, &rpcErr), "expected the RPC failure, got %v", err)
	trans.AssertExpectations(t)
}

func TestTransactionRevertedStatus(t *testing.T) {
	ctx := context.Background()
	client, node := newFakeClient(t)
	typ := loadTestContract(t)
	node.deploy = testContractBehavior(t, typ)

	acc, err := client.DefaultAccount(ctx)
	require.NoError(t, err)

	deployTx, err := typ.Deploy(ctx, acc, 0)
	require.NoError(t, err)
	deployTx, err = deployTx.WaitForBlock(ctx, 0)
	require.NoError(t, err)
	addr, ok := deployTx.ContractAddress()
	require.True(t, ok)

	// "test_uint" is pure, so a transaction invoking it is rejected by the fake
	// contract's executor.
	tx, err := typ.At(addr, acc).Transact(ctx, TxOpts{}, "test_uint", 1)
	require.NoError(t, err)
	tx, err = tx.WaitForBlock(ctx, 0)
	require.NoError(t, err)
	assert.True(t, tx.Mined())
	assert.False(t, tx.Succeeded())
}

func TestTransactionPreByzantiumReceipt(t *testing.T) {
	num := HexUint64(3)
	tx := &Transaction{receipt: &TxReceipt{BlockNumber: &num}, head: 4}
	assert.True(t, tx.Succeeded(), "receipts without status count as succeeded")
	assert.Equal(t, uint64(2), tx.Confirmations())
}

func TestTransactionConfirmationsGrowWithBlocks(t *testing.T) {
	ctx := context.Background()
	client, node := newFakeClient(t)

	tx, err := sendTestTransfer(t, client, node).WaitForBlock(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(1), tx.Confirmations())

	prev := tx
	for _, blocks := range []uint64{1, 3, 5} {
		for i := uint64(0); i < blocks; i++ {
			require.NoError(t, client.Mine(ctx))
		}
		next, err := prev.Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, prev.Confirmations()+blocks, next.Confirmations())

		num, ok := next.BlockNumber()
		assert.True(t, ok)
		assert.Equal(t, uint64(1), num, "the inclusion block must not move")
		prev = next
	}
	assert.Equal(t, uint64(10), prev.Confirmations())
}
