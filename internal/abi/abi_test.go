package abi

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anvilcc/anvil/internal/ir"
)

func TestClassify_EightIntArgsAllFitInRegisters(t *testing.T) {
	sig := ir.Signature{
		Params:   []ir.Type{ir.TypeI64, ir.TypeI64, ir.TypeI64, ir.TypeI64, ir.TypeI64, ir.TypeI64, ir.TypeI64, ir.TypeI64},
		CallConv: ir.CallConvSystemV,
	}
	a := Classify(sig)
	require.Len(t, a.Args, 8)
	for _, arg := range a.Args {
		require.Equal(t, ArgKindReg, arg.Kind)
	}
	require.Equal(t, int64(0), a.ArgStackSize)
}

func TestClassify_NinthIntArgOverflowsToStack(t *testing.T) {
	params := make([]ir.Type, 9)
	for i := range params {
		params[i] = ir.TypeI64
	}
	sig := ir.Signature{Params: params, CallConv: ir.CallConvSystemV}
	a := Classify(sig)
	require.Len(t, a.Args, 9)
	for i := 0; i < 8; i++ {
		require.Equal(t, ArgKindReg, a.Args[i].Kind)
	}
	require.Equal(t, ArgKindStack, a.Args[8].Kind)
	require.Equal(t, int64(0), a.Args[8].Offset)
	require.Equal(t, int64(16), a.ArgStackSize)
}

func TestClassify_MixedIntAndFloatArgsUseSeparateRegisterFiles(t *testing.T) {
	sig := ir.Signature{
		Params:   []ir.Type{ir.TypeI64, ir.TypeF64, ir.TypeI64, ir.TypeF64},
		CallConv: ir.CallConvSystemV,
	}
	a := Classify(sig)
	require.Equal(t, RegX0, a.Args[0].Reg)
	require.Equal(t, RegV0, a.Args[1].Reg)
	require.Equal(t, RegX1, a.Args[2].Reg)
	require.Equal(t, RegV1, a.Args[3].Reg)
}

func TestClassify_FastConventionExtendsIntArgWindow(t *testing.T) {
	intRegs, floatRegs := paramResultRegs(ir.CallConvFast)
	require.Greater(t, len(intRegs), 8)
	require.Greater(t, len(floatRegs), 8)
}

func TestIsHFAOrHVA_FourIdenticalDoublesQualify(t *testing.T) {
	require.True(t, IsHFAOrHVA([]ir.Type{ir.TypeF64, ir.TypeF64, ir.TypeF64, ir.TypeF64}))
	require.False(t, IsHFAOrHVA([]ir.Type{ir.TypeF64, ir.TypeF64, ir.TypeF64, ir.TypeF64, ir.TypeF64}))
	require.False(t, IsHFAOrHVA([]ir.Type{ir.TypeF64, ir.TypeI64}))
}

func TestFrameLayout_ProbeThresholdAndFramePointerForcing(t *testing.T) {
	small := NewFrameLayout(ir.CallConvSystemV, nil, nil, 64, 0, 0, true)
	require.False(t, small.NeedsStackProbe)
	require.False(t, small.NeedsFramePointer)

	big := NewFrameLayout(ir.CallConvSystemV, nil, nil, 8192, 0, 0, true)
	require.True(t, big.NeedsStackProbe)
	require.True(t, big.NeedsFramePointer)
}

func TestFrameLayout_DarwinDisablesRedZone(t *testing.T) {
	sysv := NewFrameLayout(ir.CallConvSystemV, nil, nil, 0, 0, 0, true)
	darwin := NewFrameLayout(ir.CallConvDarwin, nil, nil, 0, 0, 0, true)
	require.True(t, sysv.RedZone)
	require.False(t, darwin.RedZone)
}

func TestStpLdpEligible_RangeBoundary(t *testing.T) {
	require.True(t, StpLdpEligible(504))
	require.False(t, StpLdpEligible(512))
}
