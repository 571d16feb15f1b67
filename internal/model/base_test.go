package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStableID(t *testing.T) {
	a := StableID("unit", "A1-EX-1")
	assert.Equal(t, a, StableID("unit", "A1-EX-1"))
	assert.NotEqual(t, a, StableID("module", "A1-EX-1"))

	_, err := uuid.Parse(a)
	require.NoError(t, err)
}

func TestUUIDBase_BeforeCreate(t *testing.T) {
	b := &UUIDBase{}
	require.NoError(t, b.BeforeCreate(nil))
	assert.Len(t, b.ID, 36)

	kept := &UUIDBase{ID: "unit-dialogue"}
	require.NoError(t, kept.BeforeCreate(nil))
	assert.Equal(t, "unit-dialogue", kept.ID)
}
