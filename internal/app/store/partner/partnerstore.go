// internal/app/store/partner/partnerstore.go
package partner

import (
	"context"

	"github.com/dalemusser/stratacampus/internal/app/store/storeutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection is the document collection backing this store.
const Collection = "partners"

// Type categorizes a partner organization.
type Type string

const (
	TypeONG         Type = "ONG"
	TypeInstitution Type = "INSTITUTION"
	TypeEntreprise  Type = "ENTREPRISE"
	TypeUniversite  Type = "UNIVERSITE"
)

// Types lists the partner categories in display order.
func Types() []Type {
	return []Type{TypeONG, TypeInstitution, TypeEntreprise, TypeUniversite}
}

// Valid reports whether t is a known partner type.
func (t Type) Valid() bool {
	for _, known := range Types() {
		if t == known {
			return true
		}
	}
	return false
}

// Partner is one partner-organization record.
type Partner struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Type        Type               `bson:"type"`
	Description string             `bson:"description"`
	Website     string             `bson:"website,omitempty"`
}

func (p *Partner) applyDefaults() {
	if !p.Type.Valid() {
		p.Type = TypeEntreprise
	}
}

// Store provides access to the partners collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new partner store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// List returns all partners in store order.
func (s *Store) List(ctx context.Context) ([]Partner, error) {
	var partners []Partner
	if err := storeutil.List(ctx, s.c, nil, &partners); err != nil {
		return nil, err
	}
	for i := range partners {
		partners[i].applyDefaults()
	}
	return partners, nil
}

// GetByID retrieves one partner.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*Partner, error) {
	var p Partner
	if err := storeutil.Get(ctx, s.c, id, &p); err != nil {
		return nil, err
	}
	p.applyDefaults()
	return &p, nil
}

// Save creates or fully overwrites the partner.
func (s *Store) Save(ctx context.Context, idHex string, p Partner) (primitive.ObjectID, bool, error) {
	p.ID = primitive.NilObjectID
	p.applyDefaults()
	return storeutil.Save(ctx, s.c, idHex, p)
}

// Delete removes the partner at id.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	return storeutil.Delete(ctx, s.c, id)
}
