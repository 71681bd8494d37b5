package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinylib/msgp/msgp"
)

func TestEmbedRequest_MapForm(t *testing.T) {
	b := MarshalRequest(EmbedRequest{Text: "Hello, world!", Model: "All MiniLM L6 v2"})
	got, err := UnmarshalRequest(b)
	require.NoError(t, err)
	assert.Equal(t, "Hello, world!", got.Text)
	assert.Equal(t, "All MiniLM L6 v2", got.Model)

	got, err = UnmarshalRequest(MarshalRequest(EmbedRequest{Text: "no model"}))
	require.NoError(t, err)
	assert.Equal(t, "", got.Model)
}

func TestEmbedRequest_ArrayForm(t *testing.T) {
	b := msgp.AppendArrayHeader(nil, 2)
	b = msgp.AppendString(b, "hi")
	b = msgp.AppendNil(b)
	got, err := UnmarshalRequest(b)
	require.NoError(t, err)
	assert.Equal(t, EmbedRequest{Text: "hi"}, got)

	b = msgp.AppendArrayHeader(nil, 2)
	b = msgp.AppendString(b, "hi")
	b = msgp.AppendString(b, "m")
	got, err = UnmarshalRequest(b)
	require.NoError(t, err)
	assert.Equal(t, "m", got.Model)
}

func TestEmbedRequest_UnknownFieldsSkipped(t *testing.T) {
	b := msgp.AppendMapHeader(nil, 2)
	b = msgp.AppendString(b, "extra")
	b = msgp.AppendInt(b, 7)
	b = msgp.AppendString(b, "text")
	b = msgp.AppendString(b, "x")
	got, err := UnmarshalRequest(b)
	require.NoError(t, err)
	assert.Equal(t, "x", got.Text)
}

func TestEmbedRequest_Invalid(t *testing.T) {
	for name, b := range map[string][]byte{
		"garbage":      {0xC1},
		"not a struct": msgp.AppendString(nil, "text"),
		"missing text": msgp.AppendString(msgp.AppendString(msgp.AppendMapHeader(nil, 1), "model"), "m"),
		"text not str": msgp.AppendInt(msgp.AppendString(msgp.AppendMapHeader(nil, 1), "text"), 5),
		"empty":        nil,
	} {
		_, err := UnmarshalRequest(b)
		assert.Error(t, err, name)
	}
}

func TestEmbedResponse_AcceptsAllShapesEmitsArray(t *testing.T) {
	vec := []float32{0.1, 0.2, 0.3}

	bare := MarshalResponse(vec)
	assert.Equal(t, msgp.ArrayType, msgp.NextType(bare))

	wrapped := msgp.AppendMapHeader(nil, 1)
	wrapped = msgp.AppendString(wrapped, "embedding")
	wrapped = appendFloats(wrapped, vec)

	vector := msgp.AppendMapHeader(nil, 1)
	vector = msgp.AppendString(vector, "vector")
	vector = appendFloats(vector, vec)

	positional := appendFloats(msgp.AppendArrayHeader(nil, 1), vec)

	cases := []struct {
		b     []byte
		shape ResponseShape
	}{
		{bare, ShapeArray}, {wrapped, ShapeEmbedding}, {vector, ShapeVector}, {positional, ShapeEmbedding},
	}
	for _, tc := range cases {
		var r EmbedResponse
		_, err := r.UnmarshalMsg(tc.b)
		require.NoError(t, err)
		assert.Equal(t, vec, r.Embedding)
		assert.Equal(t, tc.shape, r.Shape)

		out, err := r.MarshalMsg(nil)
		require.NoError(t, err)
		assert.Equal(t, bare, out)
	}
}

func TestEmbedResponse_MixedNumberTypes(t *testing.T) {
	b := msgp.AppendArrayHeader(nil, 3)
	b = msgp.AppendFloat64(b, 0.5)
	b = msgp.AppendInt(b, -1)
	b = msgp.AppendUint(b, 2)
	var r EmbedResponse
	_, err := r.UnmarshalMsg(b)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -1, 2}, r.Embedding)
}

func TestEmbedResponse_SingleNumberIsBareArray(t *testing.T) {
	b := appendFloats(nil, []float32{1})
	var r EmbedResponse
	_, err := r.UnmarshalMsg(b)
	require.NoError(t, err)
	assert.Equal(t, ShapeArray, r.Shape)
	assert.Equal(t, []float32{1}, r.Embedding)
}

func TestErrorResponse_Forms(t *testing.T) {
	var e ErrorResponse
	_, err := e.UnmarshalMsg(MarshalError("boom"))
	require.NoError(t, err)
	assert.Equal(t, "boom", e.Error)

	b := msgp.AppendString(msgp.AppendArrayHeader(nil, 1), "positional")
	_, err = e.UnmarshalMsg(b)
	require.NoError(t, err)
	assert.Equal(t, "positional", e.Error)
}

func TestDecodeReply(t *testing.T) {
	resp, remote, err := DecodeReply(MarshalResponse([]float32{1, 0}))
	require.NoError(t, err)
	assert.Nil(t, remote)
	assert.Equal(t, []float32{1, 0}, resp.Embedding)

	_, remote, err = DecodeReply(MarshalError("Model not found: x"))
	require.NoError(t, err)
	require.NotNil(t, remote)
	assert.Equal(t, "Model not found: x", remote.Error)

	_, _, err = DecodeReply([]byte{0xC1})
	assert.Error(t, err)
}
