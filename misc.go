package etherlite

import (
	"math/big"
	"time"
	"unsafe"
)

// Conversion ratios.
const (
	Wei   = 1
	Gwei  = 1e9  // Measured in wei
	Ether = 1e18 // Measured in wei
)

// "Magic" words understood by RPC methods that expect a block number.
const (
	BlockNumberEarliest = "earliest"
	BlockNumberLatest   = "latest"
	BlockNumberPending  = "pending"
)

// Zero-initialized arrays for equality comparisons.
var (
	ZeroAddress Address
	ZeroWord    Word
	ZeroHash    Hash
	ZeroBloom   Bloom
)

// Gas required by a plain value transfer with no payload.
const TransferGas = 21000

var (
	// Determines the default reconnect interval of long-lived RPC transports,
	// such as WsTrans. Configurable on per-transport basis.
	defaultReconnectInterval = time.Second

	// Defaults for "Config" fields left at zero.
	defaultPollInterval    = 250 * time.Millisecond
	defaultMaxPollInterval = 5 * time.Second
	defaultConfirmTimeout  = 2 * time.Minute

	etherBig = big.NewFloat(Ether)
)

/*
Converts ethers to wei. Truncates leftover fractional digits. Beware: floats
should not be used for financial calculations. Conversion functions are
provided only for display purposes and for handling user input.
*/
func EthToWei(eth float64) *big.Int {
	num := big.NewFloat(eth)
	num.Mul(num, etherBig)
	out, _ := num.Int(nil)
	return out
}

/*
Converts wei to ethers. Beware: floats should not be used for financial
calculations. Conversion functions are provided only for display purposes and
for handling user input.
*/
func WeiToEth(wei *big.Int) float64 {
	num := new(big.Float).SetInt(wei)
	num.Quo(num, etherBig)
	out, _ := num.Float64()
	return out
}

/*
Reinterprets a byte slice as a string, saving an allocation.
Borrowed from the standard library. Reasonably safe.
*/
func bytesToMutableString(bytes []byte) string {
	return *(*string)(unsafe.Pointer(&bytes))
}

/*
Returns a byte slice backed by the provided string. Must be treated as
read-only: strings may be backed by constant storage.
*/
func stringToBytesUnsafe(str string) []byte {
	return unsafe.Slice(unsafe.StringData(str), len(str))
}

func durationOr(val, fallback time.Duration) time.Duration {
	if val > 0 {
		return val
	}
	return fallback
}
