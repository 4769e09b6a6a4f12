package etherlite

import (
	"database/sql/driver"
	"encoding/hex"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

/*
Compact representation of an Ethereum address: 20 raw bytes. Equality is by
bytes; the textual casing only matters for checksum validation.

The canonical text is the "0x"-prefixed EIP-55 mixed-case checksum form, used
by "String". To avoid gotchas, a zero-initialized Address{} JSON-encodes as
"null" and text-encodes as "".
*/
type Address [20]byte

const addressHexLen = len(Address{}) * 2

/*
Parses a textual address. The "0x" prefix is optional; the rest must be exactly
40 hex digits. All-lowercase and all-uppercase digits are accepted as-is; a
mixed-case input must carry a valid EIP-55 checksum. Any violation is reported
as "*AddressFormatError".
*/
func ParseAddress(input string) (Address, error) {
	digits := input
	if has0x(stringToBytesUnsafe(input)) {
		digits = input[2:]
	}
	return parseAddressDigits(input, digits, false)
}

/*
Strict variant of "ParseAddress": requires the "0x" prefix and exact EIP-55
casing. Any single-character case flip is rejected.
*/
func ParseChecksummedAddress(input string) (Address, error) {
	if !has0x(stringToBytesUnsafe(input)) {
		return Address{}, &AddressFormatError{Input: input, Reason: "missing 0x prefix"}
	}
	return parseAddressDigits(input, input[2:], true)
}

/*
Same as "ParseAddress", but panics on error. Convenient for initializing global
variables.
*/
func MustParseAddress(input string) Address {
	out, err := ParseAddress(input)
	if err != nil {
		panic(err)
	}
	return out
}

func parseAddressDigits(input string, digits string, strict bool) (Address, error) {
	var out Address

	if len(digits) != addressHexLen {
		return out, &AddressFormatError{Input: input,
			Reason: "expected 40 hex digits, got " + strconv.Itoa(len(digits))}
	}

	_, err := hex.Decode(out[:], stringToBytesUnsafe(digits))
	if err != nil {
		return Address{}, &AddressFormatError{Input: input, Reason: "invalid hex digits"}
	}

	if (strict || isMixedCase(digits)) && out.checksumDigits() != digits {
		return Address{}, &AddressFormatError{Input: input, Reason: "checksum mismatch"}
	}
	return out, nil
}

// Reports whether the input is a "0x"-prefixed address in exact EIP-55 form.
func IsChecksumValid(input string) bool {
	_, err := ParseChecksummedAddress(input)
	return err == nil
}

/*
Returns the EIP-55 mixed-case form: each hex letter is uppercased when the
matching nibble of Keccak-256(lowercase hex) is 8 or higher.
*/
func (self Address) Checksum() string {
	return "0x" + self.checksumDigits()
}

func (self Address) checksumDigits() string {
	var buf [addressHexLen]byte
	hex.Encode(buf[:], self[:])

	hash := sha3.NewLegacyKeccak256()
	hash.Write(buf[:])
	sum := hash.Sum(nil)

	for i, char := range buf {
		if char < 'a' {
			continue
		}
		nibble := sum[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0xf >= 8 {
			buf[i] = char - 'a' + 'A'
		}
	}
	return string(buf[:])
}

// Byte equality. Provided for readability; "==" works too.
func (self Address) Equal(other Address) bool { return self == other }

/*
Implements "encoding.TextMarshaler". A zero-initialized value encodes as "",
otherwise uses lowercase hex encoding prefixed with "0x".
*/
func (self Address) MarshalText() ([]byte, error) {
	if self == ZeroAddress {
		return nil, nil
	}
	return HexEncode(self[:]), nil
}

/*
Implements "encoding.TextUnmarshaler". Empty input is ok. Otherwise, follows
the rules of "ParseAddress", but requires the "0x" prefix.
*/
func (self *Address) UnmarshalText(input []byte) error {
	if len(input) == 0 {
		*self = Address{}
		return nil
	}
	if !has0x(input) {
		return &AddressFormatError{Input: string(input), Reason: "missing 0x prefix"}
	}
	out, err := ParseAddress(string(input))
	if err != nil {
		return err
	}
	*self = out
	return nil
}

/*
Implements "json.Marshaler". A zero-initialized value encodes as "null".
Otherwise, it encodes as a lowercase hex string, prefixed with "0x".
*/
func (self Address) MarshalJSON() ([]byte, error) {
	if self == ZeroAddress {
		return null, nil
	}
	return hexEncodeQuoted(self[:]), nil
}

/*
Implements "fmt.Stringer". Uses the EIP-55 checksum form. Unlike "MarshalText"
and "MarshalJSON", doesn't have special rules for zero-initialized values.
*/
func (self Address) String() string {
	return self.Checksum()
}

// Converts into a Word for event log filtering, zero-padded on the left.
func (self Address) Word() Word {
	var out Word
	copy(out[len(out)-len(self):], self[:])
	return out
}

// Implements "sql.Scanner" in terms of "UnmarshalText".
func (self *Address) Scan(src interface{}) error {
	switch src := src.(type) {
	case string:
		return self.UnmarshalText(stringToBytesUnsafe(src))
	case []byte:
		return self.UnmarshalText(src)
	default:
		return errors.Errorf("unrecognized input for %T: %T %v", self, src, src)
	}
}

// Implements "sql/driver.Valuer". A zero-initialized Address{} encodes as NULL.
func (self Address) Value() (driver.Value, error) {
	if self == ZeroAddress {
		return nil, nil
	}
	return self.MarshalText()
}

func isMixedCase(digits string) bool {
	var lower, upper bool
	for i := 0; i < len(digits); i++ {
		switch char := digits[i]; {
		case 'a' <= char && char <= 'f':
			lower = true
		case 'A' <= char && char <= 'F':
			upper = true
		}
	}
	return lower && upper
}
