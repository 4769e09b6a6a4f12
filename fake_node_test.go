package etherlite

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const fakeChainID = 1337

/*
In-process stand-in for a development node. Implements "Trans" by
round-tripping params and results through JSON, like a real transport would.
Mines a block per transaction unless "autoMine" is off.
*/
type fakeNode struct {
	lock sync.Mutex

	chainID   uint64
	accounts  []Address
	balances  map[Address]*big.Int
	nonces    map[Address]uint64
	block     uint64
	autoMine  bool
	pending   []Hash
	receipts  map[Hash]*TxReceipt
	logs      []RawLog
	contracts map[Address]*fakeContract
	deploy    *fakeContract
	rawTxs    []*types.Transaction
	methods   []string
}

// Behavior of a deployed contract. Either function may be nil.
type fakeContract struct {
	call func(data []byte) ([]byte, error)
	exec func(self Address, data []byte) ([]RawLog, bool)
}

func newFakeNode() *fakeNode {
	node := &fakeNode{
		chainID:   fakeChainID,
		balances:  map[Address]*big.Int{},
		nonces:    map[Address]uint64{},
		autoMine:  true,
		receipts:  map[Hash]*TxReceipt{},
		contracts: map[Address]*fakeContract{},
	}
	for i := 1; i <= 3; i++ {
		var addr Address
		addr[0] = 0xaa
		addr[len(addr)-1] = byte(i)
		node.accounts = append(node.accounts, addr)
		node.balances[addr] = new(big.Int).Mul(big.NewInt(100), big.NewInt(Ether))
	}
	return node
}

func newFakeClient(t testing.TB) (*Client, *fakeNode) {
	node := newFakeNode()
	client, err := NewClient(node, Config{PollInterval: 1e6, MaxPollInterval: 5e6})
	require.NoError(t, err)
	return client, node
}

func (self *fakeNode) Connected() chan struct{} { return alwaysConnected }

func (self *fakeNode) Call(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}

	input, err := json.Marshal(params)
	if err != nil {
		return errors.WithStack(err)
	}
	var args []json.RawMessage
	err = json.Unmarshal(input, &args)
	if err != nil {
		return errors.WithStack(err)
	}

	self.lock.Lock()
	self.methods = append(self.methods, method)
	result, err := self.handle(method, args)
	self.lock.Unlock()
	if err != nil {
		return err
	}

	output, err := json.Marshal(result)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(json.Unmarshal(output, out))
}

func (self *fakeNode) handle(method string, args []json.RawMessage) (interface{}, error) {
	arg := func(i int, out interface{}) error {
		if i >= len(args) {
			return RpcError{Code: -32602, Message: "missing param"}
		}
		err := json.Unmarshal(args[i], out)
		if err != nil {
			return RpcError{Code: -32602, Message: err.Error()}
		}
		return nil
	}

	switch method {
	case "eth_accounts":
		return self.accounts, nil

	case "eth_chainId":
		return HexUint64(self.chainID), nil

	case "eth_blockNumber":
		return HexUint64(self.block), nil

	case "eth_gasPrice":
		return (*HexInt)(big.NewInt(Gwei)), nil

	case "eth_getBalance":
		var addr Address
		if err := arg(0, &addr); err != nil {
			return nil, err
		}
		return (*HexInt)(self.balance(addr)), nil

	case "eth_getTransactionCount":
		var addr Address
		if err := arg(0, &addr); err != nil {
			return nil, err
		}
		return HexUint64(self.nonces[addr]), nil

	case "eth_estimateGas":
		var msg TxMsg
		if err := arg(0, &msg); err != nil {
			return nil, err
		}
		if len(msg.Data) == 0 {
			return HexUint64(TransferGas), nil
		}
		return HexUint64(200000), nil

	case "eth_sendTransaction":
		var msg TxMsg
		if err := arg(0, &msg); err != nil {
			return nil, err
		}
		if !self.isManaged(msg.From) {
			return nil, RpcError{Code: -32000, Message: "unknown account"}
		}
		return self.apply(msg.From, msg.To, msg.Value.BigInt(), msg.Data), nil

	case "eth_sendRawTransaction":
		var raw HexBytes
		if err := arg(0, &raw); err != nil {
			return nil, err
		}
		tx := new(types.Transaction)
		err := tx.UnmarshalBinary(raw)
		if err != nil {
			return nil, RpcError{Code: -32000, Message: err.Error()}
		}
		from, err := types.Sender(types.NewEIP155Signer(new(big.Int).SetUint64(self.chainID)), tx)
		if err != nil {
			return nil, RpcError{Code: -32000, Message: err.Error()}
		}
		if tx.Nonce() != self.nonces[Address(from)] {
			return nil, RpcError{Code: -32000, Message: "nonce too low"}
		}
		self.rawTxs = append(self.rawTxs, tx)

		var to Address
		if tx.To() != nil {
			to = Address(*tx.To())
		}
		return self.apply(Address(from), to, tx.Value(), tx.Data()), nil

	case "eth_getTransactionReceipt":
		var hash Hash
		if err := arg(0, &hash); err != nil {
			return nil, err
		}
		receipt := self.receipts[hash]
		if receipt == nil || receipt.BlockNumber == nil {
			return nil, nil
		}
		return receipt, nil

	case "eth_call":
		var msg TxMsg
		if err := arg(0, &msg); err != nil {
			return nil, err
		}
		contract := self.contracts[msg.To]
		if contract == nil || contract.call == nil {
			return HexBytes(nil), nil
		}
		out, err := contract.call(msg.Data)
		if err != nil {
			return nil, RpcError{Code: 3, Message: "execution reverted: " + err.Error()}
		}
		return HexBytes(out), nil

	case "eth_getLogs":
		var filter struct {
			FromBlock string    `json:"fromBlock"`
			ToBlock   string    `json:"toBlock"`
			Address   []Address `json:"address"`
			Topics    [][]Word  `json:"topics"`
		}
		if err := arg(0, &filter); err != nil {
			return nil, err
		}
		return self.filterLogs(filter.FromBlock, filter.ToBlock, filter.Address, filter.Topics), nil

	case "evm_mine":
		self.mine()
		return "0x0", nil

	default:
		return nil, RpcError{Code: -32601, Message: "the method " + method + " does not exist"}
	}
}

func (self *fakeNode) balance(addr Address) *big.Int {
	val := self.balances[addr]
	if val == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(val)
}

func (self *fakeNode) isManaged(addr Address) bool {
	for _, acc := range self.accounts {
		if acc == addr {
			return true
		}
	}
	return false
}

func (self *fakeNode) apply(from Address, to Address, value *big.Int, data []byte) Hash {
	nonce := self.nonces[from]
	self.nonces[from] = nonce + 1

	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], nonce)
	hash := Hash(keccak256(from[:], nonceBytes[:]))

	if value == nil {
		value = new(big.Int)
	}
	self.balances[from] = new(big.Int).Sub(self.balance(from), value)

	status := HexUint64(1)
	gasUsed := HexUint64(TransferGas)
	receipt := &TxReceipt{TransactionHash: hash, Status: &status, GasUsed: &gasUsed}

	switch contract := self.contracts[to]; {
	case to == ZeroAddress:
		addr := Address(crypto.CreateAddress(common.Address(from), nonce))
		receipt.ContractAddress = addr
		self.contracts[addr] = self.deploy
		gasUsed = 150000

	case contract != nil && contract.exec != nil:
		logs, ok := contract.exec(to, data)
		gasUsed = 50000
		if ok {
			receipt.Logs = logs
		} else {
			status = 0
		}

	default:
		self.balances[to] = new(big.Int).Add(self.balance(to), value)
	}

	self.receipts[hash] = receipt
	self.pending = append(self.pending, hash)
	if self.autoMine {
		self.mine()
	}
	return hash
}

func (self *fakeNode) mine() {
	self.block++
	num := HexUint64(self.block)
	blockHash := Hash(keccak256([]byte("block"), []byte(num.String())))

	var logIndex HexUint64
	for i, hash := range self.pending {
		receipt := self.receipts[hash]
		receipt.BlockNumber = &num
		receipt.BlockHash = blockHash
		index := HexUint64(i)
		receipt.TransactionIndex = &index

		for j := range receipt.Logs {
			log := &receipt.Logs[j]
			log.BlockNumber = num
			log.BlockHash = blockHash
			log.TransactionHash = hash
			log.TransactionIndex = index
			log.LogIndex = logIndex
			logIndex++
			self.logs = append(self.logs, *log)
		}
	}
	self.pending = nil
}

func (self *fakeNode) filterLogs(from, to string, addrs []Address, topics [][]Word) []RawLog {
	fromNum := self.parseBlockTag(from, 0)
	toNum := self.parseBlockTag(to, self.block)

	out := []RawLog{}
	for _, log := range self.logs {
		num := uint64(log.BlockNumber)
		if num < fromNum || num > toNum {
			continue
		}
		if len(addrs) > 0 && !containsAddress(addrs, log.Address) {
			continue
		}
		if !matchTopics(topics, log.Topics) {
			continue
		}
		out = append(out, log)
	}
	return out
}

func (self *fakeNode) parseBlockTag(tag string, fallback uint64) uint64 {
	switch tag {
	case "", BlockNumberLatest, BlockNumberPending:
		return fallback
	case BlockNumberEarliest:
		return 0
	}
	var num HexUint64
	if num.UnmarshalText([]byte(tag)) != nil {
		return fallback
	}
	return uint64(num)
}

func containsAddress(list []Address, addr Address) bool {
	for _, val := range list {
		if val == addr {
			return true
		}
	}
	return false
}

func matchTopics(filter [][]Word, topics []Word) bool {
	for i, alternatives := range filter {
		if len(alternatives) == 0 {
			continue
		}
		if i >= len(topics) {
			return false
		}
		found := false
		for _, alt := range alternatives {
			if alt == topics[i] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (self *fakeNode) calledMethods() []string {
	self.lock.Lock()
	defer self.lock.Unlock()
	return append([]string(nil), self.methods...)
}

func (self *fakeNode) countCalls(method string) int {
	count := 0
	for _, val := range self.calledMethods() {
		if val == method {
			count++
		}
	}
	return count
}

func (self *fakeNode) setAutoMine(val bool) {
	self.lock.Lock()
	self.autoMine = val
	self.lock.Unlock()
}

func (self *fakeNode) mineNow() {
	self.lock.Lock()
	self.mine()
	self.lock.Unlock()
}

/*
Behavior of "testdata/TestContract.json": "test_uint" and "test_overload" echo
their argument, "test_tuple" sums the batch amounts, "test_event" emits
"TestEvent" with its arguments, "test_events" emits one of each event.
*/
func testContractBehavior(t testing.TB, typ *ContractType) *fakeContract {
	find := func(data []byte) (*AbiFunction, []interface{}, error) {
		if len(data) < 4 {
			return nil, nil, errors.New("missing selector")
		}
		for _, entry := range typ.Abi {
			fn, ok := entry.(AbiFunction)
			if !ok || string(fn.Selector[:]) != string(data[:4]) {
				continue
			}
			args, err := AbiDecodeTuple(data[4:], fn.Inputs)
			return &fn, args, err
		}
		return nil, nil, errors.New("unknown selector")
	}

	emit := func(self Address, name string, args ...interface{}) RawLog {
		event, err := typ.Event(name)
		require.NoError(t, err)

		log := RawLog{Address: self, Topics: []Word{event.Selector}}
		var plainArgs []interface{}
		for i, param := range event.Inputs {
			if !param.Indexed {
				plainArgs = append(plainArgs, args[i])
				continue
			}
			if param.AbiType.Kind == AbiKindString {
				log.Topics = append(log.Topics, Word(keccak256([]byte(args[i].(string)))))
				continue
			}
			enc, err := AbiMarshal(param.AbiType, args[i])
			require.NoError(t, err)
			log.Topics = append(log.Topics, Word(enc))
		}
		data, err := AbiMarshalTuple(event.NonIndexedInputs(), plainArgs...)
		require.NoError(t, err)
		log.Data = data
		return log
	}

	return &fakeContract{
		call: func(data []byte) ([]byte, error) {
			fn, args, err := find(data)
			if err != nil {
				return nil, err
			}
			switch {
			case fn.Name == "test_uint", fn.Name == "test_overload":
				return AbiMarshalTuple(fn.Outputs, args[0])
			case fn.Name == "test_tuple":
				batch := args[0].([]interface{})
				total := new(big.Int)
				for _, amount := range batch[1].([]interface{}) {
					total.Add(total, amount.(*big.Int))
				}
				return AbiMarshalTuple(fn.Outputs, total)
			case strings.HasPrefix(fn.Name, "test_event"):
				return nil, nil
			}
			return nil, errors.New("unsupported call")
		},

		exec: func(self Address, data []byte) ([]RawLog, bool) {
			fn, args, err := find(data)
			if err != nil {
				return nil, false
			}
			switch fn.Name {
			case "test_event":
				return []RawLog{emit(self, "TestEvent", args...)}, true
			case "test_events":
				return []RawLog{
					emit(self, "TestEvent", big.NewInt(-1), big.NewInt(1), "x"),
					emit(self, "TestLabel", "label", big.NewInt(7)),
				}, true
			}
			return nil, false
		},
	}
}

func loadTestContract(t testing.TB) *ContractType {
	typ, err := LoadContractTypeFile("testdata/TestContract.json")
	require.NoError(t, err)
	return typ
}
