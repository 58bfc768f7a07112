package artifact

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"strconv"

	"github.com/jsphweid/cpword/model"
	"github.com/pkg/errors"
)

// TensorName is the single tensor every artifact holds.
const TensorName = "words"

const (
	dtypeI32      = "I32"
	metadataKey   = "__metadata__"
	headerLenSize = 8
)

type headerEntry struct {
	DType   string  `json:"dtype"`
	Shape   []int64 `json:"shape"`
	Offsets [2]int  `json:"data_offsets"`
}

// Metadata travels in the safetensors __metadata__ block. Values must be
// strings there, so numbers are formatted on the way out.
type Metadata struct {
	Split     string
	RunID     string
	GroupSize int
	PadWord   [4]int
}

func (m Metadata) toMap() map[string]string {
	res := map[string]string{
		"split":      m.Split,
		"run_id":     m.RunID,
		"group_size": strconv.Itoa(m.GroupSize),
	}
	for i, name := range padNames {
		res[name] = strconv.Itoa(m.PadWord[i])
	}
	return res
}

var padNames = [4]string{"bar_pad_token", "position_pad_token", "pitch_pad_token", "duration_pad_token"}

func metadataFromMap(raw map[string]string) (Metadata, error) {
	m := Metadata{Split: raw["split"], RunID: raw["run_id"]}
	var err error
	if v, ok := raw["group_size"]; ok {
		if m.GroupSize, err = strconv.Atoi(v); err != nil {
			return m, errors.Wrap(err, "group_size")
		}
	}
	for i, name := range padNames {
		if v, ok := raw[name]; ok {
			if m.PadWord[i], err = strconv.Atoi(v); err != nil {
				return m, errors.Wrap(err, name)
			}
		}
	}
	return m, nil
}

// Encode serializes b as a safetensors file with one little-endian int32
// tensor of shape [N, Length, 4].
func Encode(b model.PaddedBatch, meta Metadata) ([]byte, error) {
	if len(b.Data) != b.N*b.Length*model.WordFields {
		return nil, errors.Errorf("batch shape %v expects %d elements, got %d",
			b.Shape(), b.N*b.Length*model.WordFields, len(b.Data))
	}

	raw := make([]byte, len(b.Data)*4)
	for i, v := range b.Data {
		binary.LittleEndian.PutUint32(raw[i*4:], uint32(v))
	}

	header := map[string]any{
		TensorName: headerEntry{
			DType:   dtypeI32,
			Shape:   []int64{int64(b.N), int64(b.Length), model.WordFields},
			Offsets: [2]int{0, len(raw)},
		},
		metadataKey: meta.toMap(),
	}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, errors.Wrap(err, "encode header")
	}

	out := make([]byte, headerLenSize, headerLenSize+len(headerJSON)+len(raw))
	binary.LittleEndian.PutUint64(out, uint64(len(headerJSON)))
	out = append(out, headerJSON...)
	out = append(out, raw...)
	return out, nil
}

func Decode(data []byte) (model.PaddedBatch, Metadata, error) {
	var b model.PaddedBatch
	var meta Metadata
	if len(data) < headerLenSize {
		return b, meta, errors.New("artifact too short for header length")
	}
	headerLen := binary.LittleEndian.Uint64(data)
	if headerLen > uint64(len(data)-headerLenSize) {
		return b, meta, errors.Errorf("header length %d exceeds artifact size %d", headerLen, len(data))
	}
	headerJSON := data[headerLenSize : headerLenSize+int(headerLen)]
	payload := data[headerLenSize+int(headerLen):]

	var header map[string]json.RawMessage
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return b, meta, errors.Wrap(err, "decode header")
	}
	if rawMeta, ok := header[metadataKey]; ok {
		var m map[string]string
		if err := json.Unmarshal(rawMeta, &m); err != nil {
			return b, meta, errors.Wrap(err, "decode metadata")
		}
		var err error
		if meta, err = metadataFromMap(m); err != nil {
			return b, meta, errors.Wrap(err, "decode metadata")
		}
	}

	rawEntry, ok := header[TensorName]
	if !ok {
		return b, meta, errors.Errorf("artifact has no %q tensor", TensorName)
	}
	var entry headerEntry
	if err := json.Unmarshal(rawEntry, &entry); err != nil {
		return b, meta, errors.Wrap(err, "decode tensor entry")
	}
	if entry.DType != dtypeI32 {
		return b, meta, errors.Errorf("tensor dtype %q, want %s", entry.DType, dtypeI32)
	}
	if len(entry.Shape) != 3 || entry.Shape[2] != model.WordFields {
		return b, meta, errors.Errorf("tensor shape %v, want [N, L, %d]", entry.Shape, model.WordFields)
	}
	start, end := entry.Offsets[0], entry.Offsets[1]
	if start < 0 || end < start || end > len(payload) {
		return b, meta, errors.Errorf("tensor offsets %v outside payload of %d bytes", entry.Offsets, len(payload))
	}

	n, length := entry.Shape[0], entry.Shape[1]
	if n < 0 || length < 0 {
		return b, meta, errors.Errorf("tensor shape %v has a negative dimension", entry.Shape)
	}
	// size must match before allocating, so a bad header can't ask for huge slices
	want, ok := tensorBytes(n, length)
	if !ok || int64(end-start) != want {
		return b, meta, errors.Errorf("tensor has %d bytes, shape %v does not match", end-start, entry.Shape)
	}

	b = model.NewPaddedBatch(int(n), int(length))
	for i := range b.Data {
		b.Data[i] = int32(binary.LittleEndian.Uint32(payload[start+i*4:]))
	}
	return b, meta, nil
}

// tensorBytes is the payload size of an [n, length, 4] I32 tensor. ok is
// false when that size does not fit in an int64.
func tensorBytes(n, length int64) (int64, bool) {
	const wordBytes = model.WordFields * 4
	if n == 0 || length == 0 {
		return 0, true
	}
	if length > math.MaxInt64/wordBytes || n > math.MaxInt64/(length*wordBytes) {
		return 0, false
	}
	return n * length * wordBytes, true
}
