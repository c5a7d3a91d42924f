package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Keyer generates cache keys for pipeline stages.
type Keyer interface {
	// SimulateKey returns the key for the result of running the solver on
	// the frame identified by frameHash.
	SimulateKey(frameHash string, opts SimulateKeyOpts) string

	// ArtifactKey returns the key for a rendered artifact of a frame.
	ArtifactKey(frameHash string, opts ArtifactKeyOpts) string
}

// SimulateKeyOpts are the solver options that change a simulation result.
type SimulateKeyOpts struct {
	Ticks int `json:"ticks"`
}

// ArtifactKeyOpts are the render options that change an artifact.
type ArtifactKeyOpts struct {
	Format    string `json:"format"`
	Labels    bool   `json:"labels"`
	Pivots    bool   `json:"pivots"`
	Highlight *int   `json:"highlight,omitempty"`
	Name      string `json:"name,omitempty"`
}

// DefaultKeyer builds keys of the form "<stage>:<sha256(parts)>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SimulateKey implements [Keyer].
func (DefaultKeyer) SimulateKey(frameHash string, opts SimulateKeyOpts) string {
	return hashKey("simulate", frameHash, opts)
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(frameHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", frameHash, opts)
}


// Hash returns the lowercase hex SHA-256 of data. Frames are identified by
// the hash of their packed text.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey digests the frame hash and the JSON form of opts together, so
// that any option change yields a new key.
func hashKey(stage, frameHash string, opts any) string {
	h := sha256.New()
	h.Write([]byte(frameHash))
	h.Write([]byte{0})
	if b, err := json.Marshal(opts); err == nil {
		h.Write(b)
	}
	return stage + ":" + hex.EncodeToString(h.Sum(nil))
}
