package gossa

import (
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSendable(t *testing.T) {
	intT := types.Typ[types.Int]
	strT := types.Typ[types.String]
	ptrT := types.NewPointer(intT)

	oracle := DefaultConfig().oracle()

	assert.True(t, oracle.Sendable(intT))
	assert.True(t, oracle.Sendable(strT))
	assert.False(t, oracle.Sendable(ptrT))
	assert.False(t, oracle.Sendable(types.NewSlice(intT)))
	assert.False(t, oracle.Sendable(types.NewMap(strT, intT)))
	assert.True(t, oracle.Sendable(types.NewChan(types.SendRecv, intT)),
		"channels are internally synchronized")

	flat := types.NewStruct([]*types.Var{
		types.NewField(0, nil, "a", intT, false),
		types.NewField(0, nil, "b", strT, false),
	}, nil)
	assert.True(t, oracle.Sendable(flat))

	deep := types.NewStruct([]*types.Var{
		types.NewField(0, nil, "a", ptrT, false),
	}, nil)
	assert.False(t, oracle.Sendable(deep), "a pointer field poisons the struct")
}

func TestSendableOverrides(t *testing.T) {
	cfg := &Config{
		Sendable:    []string{"*int"},
		NonSendable: []string{"chan int"},
	}
	oracle := cfg.oracle()

	assert.True(t, oracle.Sendable(types.NewPointer(types.Typ[types.Int])))
	assert.False(t, oracle.Sendable(types.NewChan(types.SendRecv, types.Typ[types.Int])))
}
