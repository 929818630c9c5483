package jsoncodec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Topic string   `json:"topic"`
	Tags  []string `json:"tags,omitempty"`
}

func TestMarshalUnmarshal(t *testing.T) {
	in := sample{Topic: "radar", Tags: []string{"a", "b"}}

	data, err := Marshal(in)
	require.NoError(t, err)

	var out sample
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestUnmarshalInvalid(t *testing.T) {
	var out sample
	assert.Error(t, Unmarshal([]byte("{"), &out))
}

func TestEncodeDecode(t *testing.T) {
	in := sample{Topic: "lidar"}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, in))

	var out sample
	require.NoError(t, Decode(&buf, &out))
	assert.Equal(t, in, out)
}
