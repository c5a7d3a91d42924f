package codec

import (
	stderrors "errors"
	"net/url"

	"github.com/matzehuels/pivotframe/pkg/codec/lzw"
	"github.com/matzehuels/pivotframe/pkg/core/frame"
	"github.com/matzehuels/pivotframe/pkg/errors"
)

// QueryKey is the URL query parameter that carries a packed frame.
const QueryKey = "data"

// ErrNoData is returned by [ParseShareURL] when the URL has no data value.
var ErrNoData = stderrors.New("no frame data in URL")

// Pack marshals f and compresses the record.
func Pack(f *frame.Frame) (string, error) {
	record, err := Marshal(f)
	if err != nil {
		return "", err
	}
	packed, err := lzw.Encode(record)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "compress record")
	}
	return packed, nil
}

// Unpack decompresses a packed string and parses the record inside it.
func Unpack(packed string) (*frame.Frame, error) {
	if err := errors.ValidatePacked(packed); err != nil {
		return nil, err
	}
	record, err := lzw.Decode(packed)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decompress record")
	}
	return Unmarshal(record)
}

// ShareURL returns base with f packed into its data query value. Other
// query values of base are kept.
func ShareURL(base string, f *frame.Frame) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "parse base URL")
	}
	packed, err := Pack(f)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(QueryKey, packed)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ParseShareURL extracts and unpacks the frame embedded in rawURL.
func ParseShareURL(rawURL string) (*frame.Frame, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse share URL")
	}
	packed := u.Query().Get(QueryKey)
	if packed == "" {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, ErrNoData, "%s", rawURL)
	}
	return Unpack(packed)
}
