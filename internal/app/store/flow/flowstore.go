// internal/app/store/flow/flowstore.go
package flow

import (
	"context"
	"errors"

	"github.com/dalemusser/stratacampus/internal/app/store/storeutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection is the document collection backing this store.
const Collection = "flows"

// ErrNoSteps is returned by Save when the step list is empty. A flow
// without steps is never persisted.
var ErrNoSteps = errors.New("flow: step list is empty")

// Step is one ordered step inside a process flow. Steps belong to exactly
// one flow and have no store lifecycle of their own; the id is a locally
// generated stable identifier used by the step editor, persisted verbatim.
type Step struct {
	ID          string `bson:"id"`
	Label       string `bson:"label"`
	Description string `bson:"description,omitempty"`
	Service     string `bson:"service"`
	Icon        string `bson:"icon,omitempty"`
}

// Flow is a guided process with its ordered steps. Step order is the only
// persisted ordering and is the display order.
type Flow struct {
	ID    primitive.ObjectID `bson:"_id,omitempty"`
	Title string             `bson:"title"`
	Steps StepList           `bson:"steps"`
}

func (f *Flow) applyDefaults() {
	if f.Steps == nil {
		f.Steps = StepList{}
	}
	for i := range f.Steps {
		if f.Steps[i].Icon == "" {
			f.Steps[i].Icon = DefaultIcon
		}
	}
}

// Store provides access to the flows collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new flow store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// List returns all process flows in store order.
func (s *Store) List(ctx context.Context) ([]Flow, error) {
	var flows []Flow
	if err := storeutil.List(ctx, s.c, nil, &flows); err != nil {
		return nil, err
	}
	for i := range flows {
		flows[i].applyDefaults()
	}
	return flows, nil
}

// GetByID retrieves one flow.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*Flow, error) {
	var f Flow
	if err := storeutil.Get(ctx, s.c, id, &f); err != nil {
		return nil, err
	}
	f.applyDefaults()
	return &f, nil
}

// Save creates or fully overwrites the flow. The step list is written back
// verbatim, preserving editor order.
func (s *Store) Save(ctx context.Context, idHex string, f Flow) (primitive.ObjectID, bool, error) {
	if len(f.Steps) == 0 {
		return primitive.NilObjectID, false, ErrNoSteps
	}
	f.ID = primitive.NilObjectID
	f.applyDefaults()
	return storeutil.Save(ctx, s.c, idHex, f)
}

// Delete removes the flow and its embedded steps with it.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	return storeutil.Delete(ctx, s.c, id)
}
