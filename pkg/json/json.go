// Package json writes rowmap records as JSON with goccy/go-json and pooled
// buffers.
package json

import (
	"bytes"
	"io"
	"sync"

	gojson "github.com/goccy/go-json"
)

const maxPooledBuffer = 1 << 20

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 1024))
	},
}

// GetBuffer gets a pooled, empty bytes.Buffer
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > maxPooledBuffer {
		return
	}
	bufferPool.Put(buf)
}

// Marshal encodes v with goccy/go-json.
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal decodes data with goccy/go-json.
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// Number is a JSON number kept as its literal text.
type Number = gojson.Number

// UnmarshalUseNumber decodes data like Unmarshal but stores numbers held in
// interface{} values as Number, so integers above 2^53 keep every digit.
func UnmarshalUseNumber(data []byte, v interface{}) error {
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// Format selects how a StreamingEncoder separates values.
type Format string

const (
	// FormatLines writes one value per line
	FormatLines Format = "lines"
	// FormatArray writes a single JSON array
	FormatArray Format = "array"
)

// StreamingEncoder writes a sequence of values as JSON lines or as one array.
type StreamingEncoder struct {
	writer  io.Writer
	encoder *gojson.Encoder
	format  Format
	count   int
	err     error
}

// NewStreamingEncoder creates an encoder writing to w.
func NewStreamingEncoder(w io.Writer, format Format) *StreamingEncoder {
	return &StreamingEncoder{
		writer:  w,
		encoder: gojson.NewEncoder(w),
		format:  format,
	}
}

func (se *StreamingEncoder) write(p []byte) {
	if se.err == nil {
		_, se.err = se.writer.Write(p)
	}
}

// Encode writes one value.
func (se *StreamingEncoder) Encode(v interface{}) error {
	if se.format == FormatArray {
		if se.count == 0 {
			se.write([]byte{'['})
		} else {
			se.write([]byte{','})
		}
	}
	if se.err != nil {
		return se.err
	}
	if err := se.encoder.Encode(v); err != nil {
		se.err = err
		return err
	}
	se.count++
	return nil
}

// Count returns the number of values written.
func (se *StreamingEncoder) Count() int {
	return se.count
}

// Close terminates an array; an empty sequence is written as [].
func (se *StreamingEncoder) Close() error {
	if se.format == FormatArray {
		if se.count == 0 {
			se.write([]byte{'['})
		}
		se.write([]byte("]\n"))
	}
	return se.err
}
