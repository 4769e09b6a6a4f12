package etherlite

import (
	"math/big"
	"testing"
)

func BenchmarkContractTypeFunction(b *testing.B) {
	typ := loadTestContract(b)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		// Our contract is a bit small.
		_, _ = typ.Function("test_uint")
		_, _ = typ.Function("test_event")
		_, _ = typ.Function("test_overload(string)")
		_, _ = typ.Function("test_tuple")
	}
}

func BenchmarkFunctionMarshal(b *testing.B) {
	typ := loadTestContract(b)
	fn, err := typ.Function("test_tuple")
	if err != nil {
		b.Fatalf("%+v", err)
	}
	batch := testBatch{
		Owner:   MustParseAddress(checksumVectors[0]),
		Amounts: []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)},
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, err := fn.Marshal(batch)
		if err != nil {
			b.Fatalf("%+v", err)
		}
	}
}

func BenchmarkFunctionDecodeReturns(b *testing.B) {
	typ := loadTestContract(b)
	fn, err := typ.Function("test_uint")
	if err != nil {
		b.Fatalf("%+v", err)
	}
	output, err := AbiMarshal(fn.Outputs[0].AbiType, 726261)
	if err != nil {
		b.Fatalf("%+v", err)
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, err := fn.DecodeReturns(output)
		if err != nil {
			b.Fatalf("%+v", err)
		}
	}
}

func BenchmarkAbiEncoding(b *testing.B) {
	atype, err := ParseAbiType("uint32[2][3][4]")
	if err != nil {
		b.Fatalf("%+v", err)
	}

	var input = [4][3][2]uint32{{{1, 2}, {3, 4}, {5, 6}}, {{7, 8}, {9, 10}, {11, 12}}, {{13, 14}, {15, 16}, {17, 18}}, {{19, 20}, {21, 22}, {23, 24}}}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, err := AbiMarshal(atype, input)
		if err != nil {
			b.Fatalf("%+v", err)
		}
	}
}

func BenchmarkParseAddress(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, err := ParseAddress(checksumVectors[i%len(checksumVectors)])
		if err != nil {
			b.Fatalf("%+v", err)
		}
	}
}

func BenchmarkAddressChecksum(b *testing.B) {
	addr := MustParseAddress(checksumVectors[0])
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = addr.Checksum()
	}
}

func BenchmarkHexEncode(b *testing.B) {
	input := make([]byte, 1024)
	for i := range input {
		input[i] = byte(i)
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = HexEncode(input)
	}
}
