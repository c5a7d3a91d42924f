// Package storage is the library of saved frames.
//
// A library holds named [scene.Document] values under generated UUIDs.
// Two backends are provided:
//   - [FileStore]: one JSON file per document, for the CLI
//   - [MongoStore]: a MongoDB collection, for the shared server
//
// Both are safe for concurrent use.
package storage

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	pferrors "github.com/matzehuels/pivotframe/pkg/errors"
	"github.com/matzehuels/pivotframe/pkg/scene"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Store is a library of frame documents.
type Store interface {
	// Save stores doc. A document without ID gets a new one; a document
	// with an ID replaces the stored one. The saved document is returned
	// with its ID and timestamps filled in.
	Save(ctx context.Context, doc scene.Document) (scene.Document, error)

	// Get returns the document with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (scene.Document, error)

	// List returns summaries of all documents, most recently updated first.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes a document. Deleting a missing document returns
	// ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Close releases resources held by the store.
	Close(ctx context.Context) error
}

// Summary describes a stored document without its geometry.
type Summary struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Pivots  int       `json:"pivots"`
	Shapes  int       `json:"shapes"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// Summarize returns the summary of doc.
func Summarize(doc scene.Document) Summary {
	return Summary{
		ID:      doc.ID,
		Name:    doc.Name,
		Pivots:  len(doc.Pivots),
		Shapes:  len(doc.Shapes),
		Created: doc.Created,
		Updated: doc.Updated,
	}
}

// prepare validates doc and fills in its ID and timestamps.
func prepare(doc scene.Document, now time.Time) (scene.Document, error) {
	if err := pferrors.ValidateName(doc.Name); err != nil {
		return scene.Document{}, err
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	} else if _, err := uuid.Parse(doc.ID); err != nil {
		return scene.Document{}, pferrors.Wrap(pferrors.ErrCodeInvalidInput, err, "invalid document id %q", doc.ID)
	}
	if _, err := doc.Frame(); err != nil {
		return scene.Document{}, pferrors.Wrap(pferrors.ErrCodeInvalidReference, err, "document %q", doc.Name)
	}
	if doc.Created.IsZero() {
		doc.Created = now
	}
	doc.Updated = now
	return doc, nil
}

func sortSummaries(s []Summary) {
	slices.SortFunc(s, func(a, b Summary) int {
		if c := b.Updated.Compare(a.Updated); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
