package runtime

import (
	"fmt"
	"reflect"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/drblury/ddsflow/internal/runtime/jsoncodec"
	"github.com/drblury/ddsflow/internal/runtime/metadata"
)

// Metadata keys carried on every sample. The valid-data flag distinguishes
// application samples from lifecycle notifications (writer unregister); only
// valid samples ever reach a data callback.
const (
	sampleKeyWriterGUID = "ddsflow_writer_guid"
	sampleKeySequence   = "ddsflow_sequence"
	sampleKeyTypeName   = "ddsflow_type_name"
	sampleKeyValidData  = "ddsflow_valid_data"

	sampleValidTrue = "true"
)

// sampleMetadata builds the envelope stamped onto every data sample.
func sampleMetadata(writerGUID, sequence, typeName string) metadata.Metadata {
	return metadata.New(
		sampleKeyWriterGUID, writerGUID,
		sampleKeySequence, sequence,
		sampleKeyTypeName, typeName,
		sampleKeyValidData, sampleValidTrue,
	)
}

// Codec serializes typed samples for the middleware. Wire framing, batching,
// and compression stay the backend's business; a codec only owns the payload
// bytes of a single sample.
type Codec[T any] interface {
	Marshal(data T) ([]byte, error)
	Unmarshal(payload []byte) (T, error)
}

// codecFor selects the payload codec for T: protojson for protobuf messages,
// sonic-backed JSON for everything else.
func codecFor[T any]() Codec[T] {
	var zero T
	if _, ok := any(zero).(proto.Message); ok {
		return protoCodec[T]{}
	}
	if _, ok := any(&zero).(proto.Message); ok {
		return protoCodec[T]{}
	}
	return jsonCodec[T]{}
}

// typeNameOf returns the registered type name for T, used for topic type
// consistency checks and discovery matching.
func typeNameOf[T any]() string {
	return typeOf[T]().String()
}

type jsonCodec[T any] struct{}

func (jsonCodec[T]) Marshal(data T) ([]byte, error) {
	return jsoncodec.Marshal(data)
}

func (jsonCodec[T]) Unmarshal(payload []byte) (T, error) {
	out, ptr := newValue[T]()
	if err := jsoncodec.Unmarshal(payload, ptr); err != nil {
		var zero T
		return zero, err
	}
	return out(), nil
}

type protoCodec[T any] struct{}

func (protoCodec[T]) Marshal(data T) ([]byte, error) {
	// Generated message types implement proto.Message on the pointer, so a
	// value-typed T marshals through its address.
	if msg, ok := any(data).(proto.Message); ok {
		return protojson.Marshal(msg)
	}
	if msg, ok := any(&data).(proto.Message); ok {
		return protojson.Marshal(msg)
	}
	return nil, fmt.Errorf("ddsflow: %T is not a proto.Message", data)
}

func (protoCodec[T]) Unmarshal(payload []byte) (T, error) {
	var zero T
	typ := typeOf[T]()
	if typ.Kind() == reflect.Ptr {
		value := reflect.New(typ.Elem()).Interface()
		msg, ok := value.(proto.Message)
		if !ok {
			return zero, fmt.Errorf("ddsflow: %s is not a proto.Message", typ)
		}
		if err := protojson.Unmarshal(payload, msg); err != nil {
			return zero, err
		}
		return value.(T), nil
	}

	out := new(T)
	msg, ok := any(out).(proto.Message)
	if !ok {
		return zero, fmt.Errorf("ddsflow: %s is not a proto.Message", typ)
	}
	if err := protojson.Unmarshal(payload, msg); err != nil {
		return zero, err
	}
	return *out, nil
}

// newValue allocates storage for a decoded T. Pointer types get a fresh
// element so unmarshalling never writes through a nil pointer.
func newValue[T any]() (get func() T, ptr any) {
	typ := typeOf[T]()
	if typ.Kind() == reflect.Ptr {
		value := reflect.New(typ.Elem())
		return func() T { return value.Interface().(T) }, value.Interface()
	}
	var out T
	return func() T { return out }, &out
}
