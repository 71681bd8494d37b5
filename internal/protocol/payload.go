package protocol

import (
	"errors"
	"fmt"

	"github.com/tinylib/msgp/msgp"
)

// EmbedRequest asks for the embedding of Text. An empty Model selects the
// server's default model.
type EmbedRequest struct {
	Text  string
	Model string
}

// ResponseShape records which accepted encoding an EmbedResponse was read from.
type ResponseShape uint8

const (
	ShapeArray     ResponseShape = iota // [f, f, ...]
	ShapeEmbedding                      // {"embedding": [...]}
	ShapeVector                         // {"vector": [...]}
)

// EmbedResponse carries one embedding. It decodes from any ResponseShape and
// always encodes as a bare array.
type EmbedResponse struct {
	Embedding []float32
	Shape     ResponseShape
}

// ErrorResponse is the reply for any failed request.
type ErrorResponse struct {
	Error string
}

var errMissingText = errors.New("missing field: text")

// MarshalMsg implements msgp.Marshaler. The request is written as a map with
// string keys; a missing model is written as nil.
func (r EmbedRequest) MarshalMsg(b []byte) ([]byte, error) {
	b = msgp.AppendMapHeader(b, 2)
	b = msgp.AppendString(b, "text")
	b = msgp.AppendString(b, r.Text)
	b = msgp.AppendString(b, "model")
	if r.Model == "" {
		b = msgp.AppendNil(b)
	} else {
		b = msgp.AppendString(b, r.Model)
	}
	return b, nil
}

// UnmarshalMsg implements msgp.Unmarshaler. Both the map form and the
// positional array form [text, model] are accepted.
func (r *EmbedRequest) UnmarshalMsg(b []byte) ([]byte, error) {
	*r = EmbedRequest{}
	switch msgp.NextType(b) {
	case msgp.MapType:
		sz, o, err := msgp.ReadMapHeaderBytes(b)
		if err != nil {
			return b, err
		}
		haveText := false
		for i := uint32(0); i < sz; i++ {
			var key string
			key, o, err = msgp.ReadStringBytes(o)
			if err != nil {
				return b, err
			}
			switch key {
			case "text":
				r.Text, o, err = msgp.ReadStringBytes(o)
				haveText = true
			case "model":
				r.Model, o, err = readOptString(o)
			default:
				o, err = msgp.Skip(o)
			}
			if err != nil {
				return b, fmt.Errorf("field %s: %w", key, err)
			}
		}
		if !haveText {
			return b, errMissingText
		}
		return o, nil
	case msgp.ArrayType:
		sz, o, err := msgp.ReadArrayHeaderBytes(b)
		if err != nil {
			return b, err
		}
		if sz < 1 {
			return b, errMissingText
		}
		if r.Text, o, err = msgp.ReadStringBytes(o); err != nil {
			return b, fmt.Errorf("field text: %w", err)
		}
		if sz >= 2 {
			if r.Model, o, err = readOptString(o); err != nil {
				return b, fmt.Errorf("field model: %w", err)
			}
		}
		for i := uint32(2); i < sz; i++ {
			if o, err = msgp.Skip(o); err != nil {
				return b, err
			}
		}
		return o, nil
	default:
		return b, fmt.Errorf("embed request: unexpected %s", msgp.NextType(b))
	}
}

// MarshalMsg implements msgp.Marshaler; the embedding is always a bare array.
func (r EmbedResponse) MarshalMsg(b []byte) ([]byte, error) {
	return appendFloats(b, r.Embedding), nil
}

// UnmarshalMsg implements msgp.Unmarshaler.
func (r *EmbedResponse) UnmarshalMsg(b []byte) ([]byte, error) {
	*r = EmbedResponse{}
	switch msgp.NextType(b) {
	case msgp.ArrayType:
		// A single element that is itself an array is the positional form
		// of a wrapped response.
		if sz, o, err := msgp.ReadArrayHeaderBytes(b); err == nil && sz == 1 && msgp.NextType(o) == msgp.ArrayType {
			v, rest, err := readFloats(o)
			if err != nil {
				return b, err
			}
			r.Embedding, r.Shape = v, ShapeEmbedding
			return rest, nil
		}
		v, o, err := readFloats(b)
		if err != nil {
			return b, err
		}
		r.Embedding, r.Shape = v, ShapeArray
		return o, nil
	case msgp.MapType:
		sz, o, err := msgp.ReadMapHeaderBytes(b)
		if err != nil {
			return b, err
		}
		found := false
		for i := uint32(0); i < sz; i++ {
			var key string
			if key, o, err = msgp.ReadStringBytes(o); err != nil {
				return b, err
			}
			switch key {
			case "embedding", "vector":
				if r.Embedding, o, err = readFloats(o); err != nil {
					return b, fmt.Errorf("field %s: %w", key, err)
				}
				r.Shape = ShapeEmbedding
				if key == "vector" {
					r.Shape = ShapeVector
				}
				found = true
			default:
				if o, err = msgp.Skip(o); err != nil {
					return b, err
				}
			}
		}
		if !found {
			return b, errors.New("embed response: no embedding or vector field")
		}
		return o, nil
	default:
		return b, fmt.Errorf("embed response: unexpected %s", msgp.NextType(b))
	}
}

// MarshalMsg implements msgp.Marshaler.
func (e ErrorResponse) MarshalMsg(b []byte) ([]byte, error) {
	b = msgp.AppendMapHeader(b, 1)
	b = msgp.AppendString(b, "error")
	b = msgp.AppendString(b, e.Error)
	return b, nil
}

// UnmarshalMsg implements msgp.Unmarshaler for {"error": s} and [s].
func (e *ErrorResponse) UnmarshalMsg(b []byte) ([]byte, error) {
	*e = ErrorResponse{}
	switch msgp.NextType(b) {
	case msgp.MapType:
		sz, o, err := msgp.ReadMapHeaderBytes(b)
		if err != nil {
			return b, err
		}
		found := false
		for i := uint32(0); i < sz; i++ {
			var key string
			if key, o, err = msgp.ReadStringBytes(o); err != nil {
				return b, err
			}
			if key == "error" {
				if e.Error, o, err = msgp.ReadStringBytes(o); err != nil {
					return b, err
				}
				found = true
				continue
			}
			if o, err = msgp.Skip(o); err != nil {
				return b, err
			}
		}
		if !found {
			return b, errors.New("error response: missing error field")
		}
		return o, nil
	case msgp.ArrayType:
		sz, o, err := msgp.ReadArrayHeaderBytes(b)
		if err != nil {
			return b, err
		}
		if sz != 1 {
			return b, fmt.Errorf("error response: want 1 element, got %d", sz)
		}
		e.Error, o, err = msgp.ReadStringBytes(o)
		if err != nil {
			return b, err
		}
		return o, nil
	default:
		return b, fmt.Errorf("error response: unexpected %s", msgp.NextType(b))
	}
}

// MarshalRequest encodes a request payload.
func MarshalRequest(r EmbedRequest) []byte {
	b, _ := r.MarshalMsg(nil)
	return b
}

// UnmarshalRequest decodes a request payload.
func UnmarshalRequest(b []byte) (EmbedRequest, error) {
	var r EmbedRequest
	_, err := r.UnmarshalMsg(b)
	return r, err
}

// MarshalResponse encodes an embedding reply.
func MarshalResponse(v []float32) []byte {
	b, _ := EmbedResponse{Embedding: v}.MarshalMsg(nil)
	return b
}

// MarshalError encodes an error reply.
func MarshalError(msg string) []byte {
	b, _ := ErrorResponse{Error: msg}.MarshalMsg(nil)
	return b
}

// DecodeReply classifies a server reply. Exactly one of the returned
// response and error message is meaningful when err is nil.
func DecodeReply(b []byte) (resp EmbedResponse, errResp *ErrorResponse, err error) {
	if msgp.NextType(b) == msgp.MapType && mapHasKey(b, "error") {
		var e ErrorResponse
		if _, err := e.UnmarshalMsg(b); err != nil {
			return resp, nil, err
		}
		return resp, &e, nil
	}
	if _, err := resp.UnmarshalMsg(b); err != nil {
		return resp, nil, err
	}
	return resp, nil, nil
}

func mapHasKey(b []byte, want string) bool {
	sz, o, err := msgp.ReadMapHeaderBytes(b)
	if err != nil {
		return false
	}
	for i := uint32(0); i < sz; i++ {
		var key string
		if key, o, err = msgp.ReadStringBytes(o); err != nil {
			return false
		}
		if key == want {
			return true
		}
		if o, err = msgp.Skip(o); err != nil {
			return false
		}
	}
	return false
}

func readOptString(b []byte) (string, []byte, error) {
	if msgp.IsNil(b) {
		o, err := msgp.ReadNilBytes(b)
		return "", o, err
	}
	return msgp.ReadStringBytes(b)
}

func appendFloats(b []byte, v []float32) []byte {
	b = msgp.AppendArrayHeader(b, uint32(len(v)))
	for _, f := range v {
		b = msgp.AppendFloat32(b, f)
	}
	return b
}

// readFloats reads an array of numbers; float32, float64 and integer
// elements are all accepted.
func readFloats(b []byte) ([]float32, []byte, error) {
	sz, o, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return nil, b, err
	}
	out := make([]float32, 0, sz)
	for i := uint32(0); i < sz; i++ {
		var f float64
		switch msgp.NextType(o) {
		case msgp.Float32Type:
			var f32 float32
			f32, o, err = msgp.ReadFloat32Bytes(o)
			f = float64(f32)
		case msgp.Float64Type:
			f, o, err = msgp.ReadFloat64Bytes(o)
		case msgp.IntType:
			var n int64
			n, o, err = msgp.ReadInt64Bytes(o)
			f = float64(n)
		case msgp.UintType:
			var n uint64
			n, o, err = msgp.ReadUint64Bytes(o)
			f = float64(n)
		default:
			err = fmt.Errorf("element %d: unexpected %s", i, msgp.NextType(o))
		}
		if err != nil {
			return nil, b, err
		}
		out = append(out, float32(f))
	}
	return out, o, nil
}
