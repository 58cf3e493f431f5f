// Package codec converts documents to and from their file representation
// and renders them into export formats.
package codec

import (
	"bytes"
	"io"

	"github.com/aretw0/plume/pkg/core"
)

// CurrentVersion is the format version written by Encode.
const CurrentVersion = 2

// Codec defines how a document is read from and written to bytes.
type Codec interface {
	// Decode reads a whole document from r.
	Decode(r io.Reader) (*core.Document, error)
	// Encode writes doc to w.
	Encode(w io.Writer, doc *core.Document) error
}

// Serialize encodes doc with the default XML codec.
func Serialize(doc *core.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewXMLCodec().Encode(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Deserialize decodes data with the default XML codec.
func Deserialize(data []byte) (*core.Document, error) {
	return NewXMLCodec().Decode(bytes.NewReader(data))
}
