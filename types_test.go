package etherlite

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexBytes(t *testing.T) {
	val, err := ParseHexBytes("0xdeadBEEF")
	require.NoError(t, err)
	assert.Equal(t, HexBytes{0xde, 0xad, 0xbe, 0xef}, val)
	assert.Equal(t, "0xdeadbeef", val.String())

	empty, err := ParseHexBytes("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	out, err := json.Marshal(struct{ A, B HexBytes }{A: val})
	require.NoError(t, err)
	assert.JSONEq(t, `{"A": "0xdeadbeef", "B": null}`, string(out))

	for _, input := range []string{"deadbeef", "0xabc", "0xzz"} {
		_, err := ParseHexBytes(input)
		assert.Error(t, err, input)
	}
	assert.Panics(t, func() { MustParseHexBytes("nope") })
}

func TestHexNumbers(t *testing.T) {
	var num HexUint64
	require.NoError(t, json.Unmarshal([]byte(`"0x1b4"`), &num))
	assert.Equal(t, HexUint64(436), num)
	assert.Equal(t, "0x1b4", num.String())
	assert.Error(t, json.Unmarshal([]byte(`"1b4"`), &num))

	var bigNum HexInt
	require.NoError(t, json.Unmarshal([]byte(`"0xde0b6b3a7640000"`), &bigNum))
	assert.Equal(t, 0, big.NewInt(Ether).Cmp(bigNum.BigInt()))
	assert.Equal(t, "0xde0b6b3a7640000", bigNum.String())
	assert.Error(t, json.Unmarshal([]byte(`"0x"`), &bigNum))
	assert.Error(t, json.Unmarshal([]byte(`"0xgg"`), &bigNum))

	var nilNum *HexInt
	assert.Equal(t, 0, nilNum.BigInt().Sign())
}

func TestWordEncoding(t *testing.T) {
	word := MustParseWord("0x" + uintWord(255))
	assert.Equal(t, byte(255), word[31])
	assert.Equal(t, "0x"+uintWord(255), word.String())

	out, err := json.Marshal([]Word{word, {}})
	require.NoError(t, err)
	assert.JSONEq(t, `["0x`+uintWord(255)+`", null]`, string(out))

	_, err = ParseWord("0x01")
	assert.Error(t, err, "a word must be exactly 32 bytes")

	hash, err := ParseHash(word.String())
	require.NoError(t, err)
	assert.Equal(t, Hash(word), hash)
	assert.Equal(t, word.String(), hash.String())

	var bloom Bloom
	require.NoError(t, bloom.UnmarshalText(nil))
	assert.Equal(t, ZeroBloom, bloom)
	text, err := bloom.MarshalText()
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestString256(t *testing.T) {
	atype := mustAbiType(t, "bytes32")

	encoded, err := AbiMarshal(atype, String256("hello"))
	require.NoError(t, err)
	require.Len(t, encoded, wordSize)
	assert.Equal(t, []byte("hello"), encoded[:5])
	assert.True(t, isZero(encoded[5:]))

	var decoded String256
	require.NoError(t, AbiUnmarshal(encoded, atype, &decoded))
	assert.Equal(t, String256("hello"), decoded)

	_, err = String256("this string is much longer than thirty two bytes").Word()
	assertAbiEncodeError(t, err)

	err = decoded.EthAbiUnmarshal([]byte{1, 2, 3})
	assertAbiDecodeError(t, err)
}

func TestEtherConversions(t *testing.T) {
	assert.Equal(t, 0, EthToWei(1.5).Cmp(big.NewInt(1.5*Ether)))
	assert.Equal(t, 0, EthToWei(0).Sign())
	assert.Equal(t, 2.0, WeiToEth(big.NewInt(2*Ether)))
	assert.InDelta(t, 0.000000001, WeiToEth(big.NewInt(Gwei)), 1e-18)
}

func TestHexEncodeTo(t *testing.T) {
	input := []byte{0x01, 0xab}
	out := make([]byte, HexEncodedLen(len(input)))
	require.NoError(t, HexEncodeTo(out, input))
	assert.Equal(t, "0x01ab", string(out))
	assert.Error(t, HexEncodeTo(make([]byte, 3), input))

	decoded := make([]byte, HexDecodedLen(len(out)))
	require.NoError(t, HexDecodeTo(decoded, out))
	assert.Equal(t, input, decoded)
	assert.Error(t, HexDecodeTo(make([]byte, 1), out))
	assert.Zero(t, HexDecodedLen(1))
}
