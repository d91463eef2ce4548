package arm64

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/arch/arm64/arm64asm"
)

// toLE packs a 32-bit AArch64 word into its little-endian wire bytes, the
// same order machinst.MachBuffer.Emit4 writes.
func toLE(word uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, word)
	return b
}

// These tests decode this package's own encoder output with x/arch's
// independent AArch64 disassembler, a second source of truth for the bit
// layouts encode.go hand-derives from the architecture reference.

func TestEncodeAluRRImm12_DecodesAsADD(t *testing.T) {
	word := encodeAluRRImm12(aluAdd, true, 0, 1, 4)
	inst, err := arm64asm.Decode(toLE(word))
	require.NoError(t, err)
	require.Equal(t, arm64asm.ADD, inst.Op)
}

func TestEncodeMovz_DecodesAsMOVZ(t *testing.T) {
	word := encodeMovz(true, 2, 42, 0)
	inst, err := arm64asm.Decode(toLE(word))
	require.NoError(t, err)
	require.Equal(t, arm64asm.MOVZ, inst.Op)
}

func TestEncodeRET_DecodesAsRET(t *testing.T) {
	word := encodeRET()
	inst, err := arm64asm.Decode(toLE(word))
	require.NoError(t, err)
	require.Equal(t, arm64asm.RET, inst.Op)
}

func TestEncodeBUncond_DecodesAsB(t *testing.T) {
	word := encodeBUncond(16)
	inst, err := arm64asm.Decode(toLE(word))
	require.NoError(t, err)
	require.Equal(t, arm64asm.B, inst.Op)
}

func TestEncodeBL_DecodesAsBL(t *testing.T) {
	word := encodeBL(-32)
	inst, err := arm64asm.Decode(toLE(word))
	require.NoError(t, err)
	require.Equal(t, arm64asm.BL, inst.Op)
}

func TestEncodeAluRRR_DecodesAsADD(t *testing.T) {
	word := encodeAluRRR(aluAdd, true, 0, 1, 2)
	inst, err := arm64asm.Decode(toLE(word))
	require.NoError(t, err)
	require.Equal(t, arm64asm.ADD, inst.Op)
}

func TestEncodeMul_DecodesAsMUL(t *testing.T) {
	word := encodeMul(true, 0, 1, 2)
	inst, err := arm64asm.Decode(toLE(word))
	require.NoError(t, err)
	require.Equal(t, arm64asm.MUL, inst.Op)
}

func TestEncodeUmulh_DecodesAsUMULH(t *testing.T) {
	word := encodeUmulh(0, 1, 2)
	inst, err := arm64asm.Decode(toLE(word))
	require.NoError(t, err)
	require.Equal(t, arm64asm.UMULH, inst.Op)
}

func TestEncodeSmulh_DecodesAsSMULH(t *testing.T) {
	word := encodeSmulh(0, 1, 2)
	inst, err := arm64asm.Decode(toLE(word))
	require.NoError(t, err)
	require.Equal(t, arm64asm.SMULH, inst.Op)
}

func TestEncodeUdiv_DecodesAsUDIV(t *testing.T) {
	word := encodeUdiv(true, 0, 1, 2)
	inst, err := arm64asm.Decode(toLE(word))
	require.NoError(t, err)
	require.Equal(t, arm64asm.UDIV, inst.Op)
}

func TestEncodeSdiv_DecodesAsSDIV(t *testing.T) {
	word := encodeSdiv(true, 0, 1, 2)
	inst, err := arm64asm.Decode(toLE(word))
	require.NoError(t, err)
	require.Equal(t, arm64asm.SDIV, inst.Op)
}

func TestEncodeLslv_DecodesAsLSLV(t *testing.T) {
	word := encodeLslv(true, 0, 1, 2)
	inst, err := arm64asm.Decode(toLE(word))
	require.NoError(t, err)
	require.Equal(t, arm64asm.LSLV, inst.Op)
}

func TestEncodeAsrv_DecodesAsASRV(t *testing.T) {
	word := encodeAsrv(true, 0, 1, 2)
	inst, err := arm64asm.Decode(toLE(word))
	require.NoError(t, err)
	require.Equal(t, arm64asm.ASRV, inst.Op)
}

func TestEncodeFrameAdjust_SmallTotal_DecodesAsSingleSUB(t *testing.T) {
	words := encodeFrameAdjust(true, 32)
	require.Len(t, words, 1)
	inst, err := arm64asm.Decode(toLE(words[0]))
	require.NoError(t, err)
	require.Equal(t, arm64asm.SUB, inst.Op)
}

func TestEncodeFrameAdjust_LargeTotal_DecodesAsTwoWords(t *testing.T) {
	words := encodeFrameAdjust(true, 5000)
	require.Len(t, words, 2)
	for _, w := range words {
		inst, err := arm64asm.Decode(toLE(w))
		require.NoError(t, err)
		require.Equal(t, arm64asm.SUB, inst.Op)
	}
}

func TestEncodeAluRRImm12Sh_DecodesWithShift(t *testing.T) {
	// sub sp, sp, #1, lsl #12 (4096 bytes)
	word := encodeAluRRImm12Sh(aluSub, true, uint32(RegSP), uint32(RegSP), 1, true)
	inst, err := arm64asm.Decode(toLE(word))
	require.NoError(t, err)
	require.Equal(t, arm64asm.SUB, inst.Op)
}
