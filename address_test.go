package etherlite

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var checksumVectors = []string{
	"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
	"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
	"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
	"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
}

func TestAddressChecksum(t *testing.T) {
	for _, input := range checksumVectors {
		addr, err := ParseAddress(strings.ToLower(input))
		require.NoError(t, err)
		assert.Equal(t, input, addr.Checksum())
		assert.Equal(t, input, addr.String())
		assert.True(t, IsChecksumValid(input))
	}
}

func TestParseAddressRoundTrip(t *testing.T) {
	for _, input := range checksumVectors {
		addr, err := ParseAddress(input)
		require.NoError(t, err)

		again, err := ParseChecksummedAddress(addr.Checksum())
		require.NoError(t, err)
		assert.True(t, addr.Equal(again))
	}
}

func TestParseAddressCasing(t *testing.T) {
	input := checksumVectors[0]
	lower := strings.ToLower(input)
	upper := "0x" + strings.ToUpper(input[2:])

	a, err := ParseAddress(lower)
	require.NoError(t, err)
	b, err := ParseAddress(upper)
	require.NoError(t, err)
	c, err := ParseAddress(input[2:])
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, a, c)

	_, err = ParseChecksummedAddress(lower)
	assert.Error(t, err, "strict parsing must reject unchecksummed input")
}

func TestParseAddressRejectsCaseFlip(t *testing.T) {
	for _, input := range checksumVectors {
		for i := 2; i < len(input); i++ {
			char := input[i]
			var flipped byte
			switch {
			case 'a' <= char && char <= 'f':
				flipped = char - 'a' + 'A'
			case 'A' <= char && char <= 'F':
				flipped = char - 'A' + 'a'
			default:
				continue
			}

			mutated := input[:i] + string(flipped) + input[i+1:]
			if !isMixedCase(mutated[2:]) {
				continue
			}

			_, err := ParseAddress(mutated)
			var formatErr *AddressFormatError
			require.Truef(t, errors.As(err, &formatErr), "expected checksum failure for %v", mutated)
			assert.False(t, IsChecksumValid(mutated))
		}
	}
}

func TestParseAddressInvalid(t *testing.T) {
	inputs := []string{
		"",
		"0x",
		"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beae",   // 39 digits
		"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaedd", // 41 digits
		"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaeg",
		"0x 5aaeb6053f3e94c9b9a09f33669435e7ef1beae",
	}
	for _, input := range inputs {
		_, err := ParseAddress(input)
		var formatErr *AddressFormatError
		assert.Truef(t, errors.As(err, &formatErr), "expected format error for %q, got %v", input, err)
	}
}

func TestAddressJson(t *testing.T) {
	addr := MustParseAddress(checksumVectors[0])

	out, err := json.Marshal(addr)
	require.NoError(t, err)
	assert.Equal(t, `"`+strings.ToLower(checksumVectors[0])+`"`, string(out))

	var decoded Address
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, addr, decoded)

	out, err = json.Marshal(Address{})
	require.NoError(t, err)
	assert.Equal(t, `null`, string(out))

	err = json.Unmarshal([]byte(`"5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"`), &decoded)
	assert.Error(t, err, "text decoding requires the 0x prefix")
}

func TestAddressWord(t *testing.T) {
	addr := MustParseAddress(checksumVectors[1])
	word := addr.Word()
	assert.Equal(t, ZeroWord[:12], word[:12])
	assert.Equal(t, addr[:], word[12:])
}
