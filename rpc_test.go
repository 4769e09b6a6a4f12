package etherlite

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Transport stub. Each expectation returns a JSON result, decoded into the
// caller's output, and an error.
type mockTrans struct{ mock.Mock }

func (self *mockTrans) Connected() chan struct{} { return alwaysConnected }

func (self *mockTrans) Call(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	args := self.MethodCalled(method, params...)
	if result := args.String(0); result != "" {
		if err := json.Unmarshal([]byte(result), out); err != nil {
			return errors.WithStack(err)
		}
	}
	return args.Error(1)
}

func TestEthBlockNumber(t *testing.T) {
	trans := new(mockTrans)
	trans.On("eth_blockNumber").Return(`"0x1b4"`, nil).Once()

	num, err := EthBlockNumber(context.Background(), trans)
	require.NoError(t, err)
	assert.Equal(t, uint64(436), num)
	trans.AssertExpectations(t)
}

func TestEthGetBalance(t *testing.T) {
	addr := MustParseAddress(checksumVectors[0])
	trans := new(mockTrans)
	trans.On("eth_getBalance", addr, "latest").Return(`"0xde0b6b3a7640000"`, nil)

	balance, err := EthGetBalance(context.Background(), trans, addr)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", balance.String())
}

func TestEthGetTxReceiptPending(t *testing.T) {
	hash := MustParseHash("0x" + uintWord(1))
	trans := new(mockTrans)
	trans.On("eth_getTransactionReceipt", hash).Return(`null`, nil)

	receipt, err := EthGetTxReceipt(context.Background(), trans, hash)
	require.NoError(t, err)
	assert.Nil(t, receipt)
}

func TestEthGetTxReceipt(t *testing.T) {
	hash := MustParseHash("0x" + uintWord(1))
	trans := new(mockTrans)
	trans.On("eth_getTransactionReceipt", hash).Return(`{
		"blockNumber": "0x5",
		"blockHash": "0x`+uintWord(2)+`",
		"gasUsed": "0x5208",
		"status": "0x1",
		"transactionHash": "0x`+uintWord(1)+`",
		"logs": []
	}`, nil)

	receipt, err := EthGetTxReceipt(context.Background(), trans, hash)
	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.Equal(t, HexUint64(5), *receipt.BlockNumber)
	assert.Equal(t, HexUint64(21000), *receipt.GasUsed)
	assert.Equal(t, hash, receipt.TransactionHash)
	assert.Equal(t, ZeroAddress, receipt.ContractAddress)
}

func TestRpcErrorWrapping(t *testing.T) {
	rpcErr := RpcError{Code: -32000, Message: "insufficient funds"}
	trans := new(mockTrans)
	trans.On("eth_chainId").Return("", errors.WithStack(rpcErr))

	_, err := EthChainId(context.Background(), trans)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `error in "eth_chainId"`)
	assert.Contains(t, err.Error(), "insufficient funds")

	var cause RpcError
	require.True(t, errors.As(err, &cause))
	assert.Equal(t, int64(-32000), cause.Code)
}

func TestEthSendTxAddsEstimates(t *testing.T) {
	from := MustParseAddress(checksumVectors[0])
	to := MustParseAddress(checksumVectors[1])
	hash := "0x" + uintWord(7)

	trans := new(mockTrans)
	trans.On("eth_gasPrice").Return(`"0x3b9aca00"`, nil).Once()
	trans.On("eth_estimateGas", mock.Anything).Return(`"0x5208"`, nil).Once()
	trans.On("eth_sendTransaction", mock.MatchedBy(func(msg TxMsg) bool {
		return msg.From == from && msg.To == to &&
			msg.GasPrice.BigInt().Int64() == Gwei &&
			msg.GasLimit.BigInt().Int64() == TransferGas
	})).Return(`"`+hash+`"`, nil).Once()

	out, err := EthSendTx(context.Background(), trans, TxMsg{From: from, To: to})
	require.NoError(t, err)
	assert.Equal(t, MustParseHash(hash), out)
	trans.AssertExpectations(t)
}

func TestAddEstimatesKeepsExplicitValues(t *testing.T) {
	trans := new(mockTrans)
	msg := TxMsg{
		GasPrice: (*HexInt)(big.NewInt(5)),
		GasLimit: (*HexInt)(big.NewInt(50000)),
	}

	out, err := AddEstimates(context.Background(), trans, msg)
	require.NoError(t, err)
	assert.Equal(t, msg, out)
	trans.AssertNotCalled(t, "eth_gasPrice")
	trans.AssertNotCalled(t, "eth_estimateGas", mock.Anything)
}

func TestAddEstimatesFailure(t *testing.T) {
	trans := new(mockTrans)
	trans.On("eth_gasPrice").Return(`"0x1"`, nil)
	trans.On("eth_estimateGas", mock.Anything).Return("", RpcError{Code: 3, Message: "execution reverted"})

	_, err := EthSendTx(context.Background(), trans, TxMsg{From: MustParseAddress(checksumVectors[0])})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execution reverted")
	trans.AssertNotCalled(t, "eth_sendTransaction", mock.Anything)
}

func TestEthGetLogsEncodesBlocks(t *testing.T) {
	trans := new(mockTrans)
	trans.On("eth_getLogs", mock.MatchedBy(func(filter LogFilter) bool {
		return filter.FromBlock == HexUint64(5) && filter.ToBlock == "latest"
	})).Return(`[{"topics": [], "data": "0x", "blockNumber": "0x6"}]`, nil)

	logs, err := EthGetLogs(context.Background(), trans, LogFilter{FromBlock: uint64(5), ToBlock: BlockNumberLatest})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, HexUint64(6), logs[0].BlockNumber)
}

func TestEthCall(t *testing.T) {
	to := MustParseAddress(checksumVectors[2])
	trans := new(mockTrans)
	trans.On("eth_call", TxMsg{To: to, Data: HexBytes{1, 2}}, HexUint64(9)).Return(`"0x`+uintWord(42)+`"`, nil)

	out, err := EthCall(context.Background(), trans, TxMsg{To: to, Data: HexBytes{1, 2}}, uint64(9))
	require.NoError(t, err)
	assert.Equal(t, unhex(uintWord(42)), []byte(out))
}

func TestContractDeploymentTxMsg(t *testing.T) {
	_, err := ContractDeploymentTxMsg([]byte{1}, ZeroAddress)
	assert.Error(t, err)

	_, err = ContractDeploymentTxMsg(nil, MustParseAddress(checksumVectors[0]))
	assert.Error(t, err)

	msg, err := ContractDeploymentTxMsg([]byte{1}, MustParseAddress(checksumVectors[0]))
	require.NoError(t, err)
	assert.Equal(t, ZeroAddress, msg.To)
}
