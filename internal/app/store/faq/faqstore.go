// internal/app/store/faq/faqstore.go
package faq

import (
	"context"

	"github.com/dalemusser/stratacampus/internal/app/store/storeutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection is the document collection backing this store.
const Collection = "faqs"

// Category is the assistant topic a FAQ entry belongs to.
type Category string

const (
	CategoryAdmission    Category = "Admission"
	CategoryDocuments    Category = "Documents"
	CategoryInscriptions Category = "Inscriptions"
	CategoryExamens      Category = "Examens"
	CategoryStages       Category = "Stages"
	CategoryContacts     Category = "Contacts"
)

// Categories lists every valid category in display order.
func Categories() []Category {
	return []Category{
		CategoryAdmission,
		CategoryDocuments,
		CategoryInscriptions,
		CategoryExamens,
		CategoryStages,
		CategoryContacts,
	}
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Entry is one assistant FAQ document.
type Entry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Question  string             `bson:"question"`
	Category  Category           `bson:"category"`
	Procedure string             `bson:"procedure"`
	Service   string             `bson:"service"`
	Location  string             `bson:"location"`
	Timing    string             `bson:"timing"`
	Steps     []string           `bson:"steps"`
	Keywords  []string           `bson:"keywords"`
	Contact   string             `bson:"contact,omitempty"`
}

// applyDefaults repairs documents whose optional fields are missing in the
// store, so callers never see nil slices or an out-of-range category.
func (e *Entry) applyDefaults() {
	if !e.Category.Valid() {
		e.Category = CategoryAdmission
	}
	if e.Steps == nil {
		e.Steps = []string{}
	}
	if e.Keywords == nil {
		e.Keywords = []string{}
	}
}

// Store provides access to the faqs collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new FAQ store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// List returns all FAQ entries in store order.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	if err := storeutil.List(ctx, s.c, nil, &entries); err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].applyDefaults()
	}
	return entries, nil
}

// GetByID retrieves one FAQ entry.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*Entry, error) {
	var e Entry
	if err := storeutil.Get(ctx, s.c, id, &e); err != nil {
		return nil, err
	}
	e.applyDefaults()
	return &e, nil
}

// Save creates the entry when idHex is empty, otherwise fully overwrites
// the document at that id. The entry's own ID field is never persisted as
// part of the payload.
func (s *Store) Save(ctx context.Context, idHex string, e Entry) (primitive.ObjectID, bool, error) {
	e.ID = primitive.NilObjectID
	e.applyDefaults()
	return storeutil.Save(ctx, s.c, idHex, e)
}

// Delete removes the entry at id.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	return storeutil.Delete(ctx, s.c, id)
}
