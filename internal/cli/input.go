package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/pivotframe/pkg/codec"
	"github.com/matzehuels/pivotframe/pkg/core/frame"
	"github.com/matzehuels/pivotframe/pkg/scene"
)

// inputDemo names the built-in demo frame.
const inputDemo = "demo"

// input is a frame read from a command argument.
type input struct {
	Frame *frame.Frame
	Name  string

	// Packed is the packed form the frame was read from. It is empty for
	// scene files and the demo, which are packed on demand.
	Packed string

	// Scene is true when the frame came from a scene document, so it
	// carries colors and rest lengths a packed record would lose.
	Scene bool
}

// packed returns the packed form of the input.
func (in *input) packed() (string, error) {
	if in.Packed != "" {
		return in.Packed, nil
	}
	p, err := codec.Pack(in.Frame)
	if err != nil {
		return "", err
	}
	in.Packed = p
	return p, nil
}

// document returns the input as an unnamed scene document. Scene inputs keep
// the rest lengths they were saved with.
func (in *input) document() scene.Document {
	return scene.FromFrame(in.Frame, "")
}

// readInput resolves a frame argument. See the package documentation for
// the accepted forms.
func (c *CLI) readInput(arg string) (*input, error) {
	switch {
	case arg == inputDemo:
		return &input{Frame: frame.Demo(), Name: inputDemo}, nil

	case arg == "-":
		data, err := io.ReadAll(c.In)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return unpackInput(strings.TrimRight(string(data), "\r\n"), "stdin")

	case strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://"):
		f, err := codec.ParseShareURL(arg)
		if err != nil {
			return nil, err
		}
		return &input{Frame: f, Name: "shared"}, nil

	case isSceneFile(arg):
		doc, err := scene.Load(arg)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", arg, err)
		}
		f, err := doc.Frame()
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", arg, err)
		}
		name := doc.Name
		if name == "" {
			name = baseName(arg)
		}
		return &input{Frame: f, Name: name, Scene: true}, nil
	}

	if info, err := os.Stat(arg); err == nil && info.Mode().IsRegular() {
		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", arg, err)
		}
		return unpackInput(strings.TrimRight(string(data), "\r\n"), baseName(arg))
	}
	return unpackInput(arg, "")
}

func unpackInput(packed, name string) (*input, error) {
	f, err := codec.Unpack(packed)
	if err != nil {
		return nil, err
	}
	return &input{Frame: f, Name: name, Packed: packed}, nil
}

func isSceneFile(path string) bool {
	_, err := scene.FormatFromPath(path)
	return err == nil
}

// baseName returns the file name of path without its extension.
func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
