package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Format names a document file format.
type Format string

// Supported file formats.
const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported scene file %q: want .json or .toml", path)
	}
}

// Write encodes d to w in the given format.
func Write(w io.Writer, d Document, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	case FormatTOML:
		return toml.NewEncoder(w).Encode(d)
	default:
		return fmt.Errorf("unsupported scene format %q", format)
	}
}

// Read decodes a document in the given format from r.
func Read(r io.Reader, format Format) (Document, error) {
	var d Document
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&d); err != nil {
			return Document{}, fmt.Errorf("decode json scene: %w", err)
		}
	case FormatTOML:
		md, err := toml.NewDecoder(r).Decode(&d)
		if err != nil {
			return Document{}, fmt.Errorf("decode toml scene: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Document{}, fmt.Errorf("decode toml scene: unknown key %q", undecoded[0].String())
		}
	default:
		return Document{}, fmt.Errorf("unsupported scene format %q", format)
	}
	return d, nil
}

// Marshal encodes d in the given format.
func Marshal(d Document, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, d, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load reads a document from a .json or .toml file.
func Load(path string) (Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Document{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()
	return Read(f, format)
}

// Save writes d to a .json or .toml file, replacing it.
func Save(path string, d Document) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Marshal(d, format)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
