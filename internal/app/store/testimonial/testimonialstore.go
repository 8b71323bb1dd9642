// internal/app/store/testimonial/testimonialstore.go
package testimonial

import (
	"context"

	"github.com/dalemusser/stratacampus/internal/app/store/storeutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection is the document collection backing this store.
const Collection = "testimonials"

// Testimonial is one alumni quote shown on the public site.
type Testimonial struct {
	ID    primitive.ObjectID `bson:"_id,omitempty"`
	Name  string             `bson:"name"`
	Promo string             `bson:"promo"`
	Role  string             `bson:"role"`
	Text  string             `bson:"text"`
}

// Store provides access to the testimonials collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new testimonial store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// List returns all testimonials in store order.
func (s *Store) List(ctx context.Context) ([]Testimonial, error) {
	var items []Testimonial
	if err := storeutil.List(ctx, s.c, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetByID retrieves one testimonial.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*Testimonial, error) {
	var t Testimonial
	if err := storeutil.Get(ctx, s.c, id, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Save creates or fully overwrites the testimonial.
func (s *Store) Save(ctx context.Context, idHex string, t Testimonial) (primitive.ObjectID, bool, error) {
	t.ID = primitive.NilObjectID
	return storeutil.Save(ctx, s.c, idHex, t)
}

// Delete removes the testimonial at id.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	return storeutil.Delete(ctx, s.c, id)
}
