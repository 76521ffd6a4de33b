package connect

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// jsonCodec encodes the plain Go message structs of this package.
// It replaces connect's protobuf JSON codec, which only accepts proto messages.
type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(err, "invalid message")
	}
	return nil
}
