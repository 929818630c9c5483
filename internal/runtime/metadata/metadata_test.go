package metadata

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	md := New("writer", "w-1", "topic", "radar")
	assert.Equal(t, Metadata{"writer": "w-1", "topic": "radar"}, md)

	// A trailing key without a value is ignored.
	md = New("only-key")
	assert.Empty(t, md)

	assert.Empty(t, New())
}

func TestCloneIsIndependent(t *testing.T) {
	original := Metadata{"a": "1"}
	cloned := original.Clone()
	cloned["a"] = "2"
	cloned["b"] = "3"

	assert.Equal(t, Metadata{"a": "1"}, original)
	assert.Equal(t, Metadata{"a": "2", "b": "3"}, cloned)
}

func TestWithDoesNotMutate(t *testing.T) {
	original := Metadata{"a": "1"}
	extended := original.With("b", "2")

	assert.Equal(t, Metadata{"a": "1"}, original)
	assert.Equal(t, Metadata{"a": "1", "b": "2"}, extended)
}

func TestWatermillConversion(t *testing.T) {
	md := Metadata{"a": "1", "b": "2"}
	wm := ToWatermill(md)
	assert.Equal(t, message.Metadata{"a": "1", "b": "2"}, wm)

	back := FromWatermill(wm)
	assert.Equal(t, md, back)

	// Conversions copy; mutating one side never leaks into the other.
	wm["a"] = "changed"
	assert.Equal(t, "1", back["a"])

	assert.Empty(t, FromWatermill(nil))
	assert.Empty(t, ToWatermill(nil))
}
