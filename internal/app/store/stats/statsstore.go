// internal/app/store/stats/statsstore.go
//
// Success statistics live in four collections behind one admin surface.
// The active variant is an explicit discriminant wired through list, save,
// and delete; it is never inferred from the shape of a draft.
package stats

import (
	"context"
	"fmt"

	"github.com/dalemusser/stratacampus/internal/app/store/storeutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Variant selects which statistics collection an operation targets.
type Variant string

const (
	VariantGlobal    Variant = "GLOBAL"
	VariantEvolution Variant = "EVOLUTION"
	VariantDUT       Variant = "DUT"
	VariantLP        Variant = "LP"
)

// Variants lists the statistics tabs in display order.
func Variants() []Variant {
	return []Variant{VariantGlobal, VariantEvolution, VariantDUT, VariantLP}
}

// ParseVariant validates a variant token from a route or form, defaulting
// to GLOBAL for anything unknown.
func ParseVariant(s string) Variant {
	v := Variant(s)
	switch v {
	case VariantGlobal, VariantEvolution, VariantDUT, VariantLP:
		return v
	}
	return VariantGlobal
}

// CollectionFor maps a variant to its collection name. This is the single
// place that mapping lives.
func CollectionFor(v Variant) string {
	switch v {
	case VariantEvolution:
		return "stats_evolution"
	case VariantDUT:
		return "stats_dut"
	case VariantLP:
		return "stats_lp"
	default:
		return "stats_global"
	}
}

// Global is one headline indicator card. Order determines the display
// sequence among Global entries only.
type Global struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Label      string             `bson:"label"`
	Value      string             `bson:"value"`
	IconName   string             `bson:"iconName"`
	ColorClass string             `bson:"colorClass"`
	BgClass    string             `bson:"bgClass"`
	Order      int                `bson:"order"`
}

// Evolution is one year/rate point on the success-rate trend.
type Evolution struct {
	ID   primitive.ObjectID `bson:"_id,omitempty"`
	Year string             `bson:"year"`
	Rate float64            `bson:"rate"`
}

// Cycle is one academic-year line for a study cycle. Type is DUT or LP and
// comes from the active tab, never from operator input.
type Cycle struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Year     string             `bson:"year"`
	Inscrits int                `bson:"inscrits"`
	Taux     float64            `bson:"taux"`
	Type     Variant            `bson:"type"`
}

// Store provides access to the four statistics collections.
type Store struct {
	db *mongo.Database
}

// New creates a new statistics store.
func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

func (s *Store) coll(v Variant) *mongo.Collection {
	return s.db.Collection(CollectionFor(v))
}

// ListGlobal returns headline indicators sorted by their order field.
func (s *Store) ListGlobal(ctx context.Context) ([]Global, error) {
	var out []Global
	sort := bson.D{{Key: "order", Value: 1}}
	if err := storeutil.List(ctx, s.coll(VariantGlobal), sort, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEvolution returns trend points sorted by year.
func (s *Store) ListEvolution(ctx context.Context) ([]Evolution, error) {
	var out []Evolution
	sort := bson.D{{Key: "year", Value: 1}}
	if err := storeutil.List(ctx, s.coll(VariantEvolution), sort, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListCycle returns the per-year lines for the DUT or LP tab.
func (s *Store) ListCycle(ctx context.Context, v Variant) ([]Cycle, error) {
	if v != VariantDUT && v != VariantLP {
		return nil, fmt.Errorf("stats: variant %q has no cycle collection", v)
	}
	var out []Cycle
	if err := storeutil.List(ctx, s.coll(v), nil, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Type = v
	}
	return out, nil
}

// SaveGlobal creates or overwrites a headline indicator.
func (s *Store) SaveGlobal(ctx context.Context, idHex string, g Global) (primitive.ObjectID, bool, error) {
	g.ID = primitive.NilObjectID
	return storeutil.Save(ctx, s.coll(VariantGlobal), idHex, g)
}

// SaveEvolution creates or overwrites a trend point.
func (s *Store) SaveEvolution(ctx context.Context, idHex string, e Evolution) (primitive.ObjectID, bool, error) {
	e.ID = primitive.NilObjectID
	return storeutil.Save(ctx, s.coll(VariantEvolution), idHex, e)
}

// SaveCycle creates or overwrites a cycle line in the collection selected
// by variant. The document's type field is forced to the variant so a
// draft carried over from the other tab can never leak its discriminant.
func (s *Store) SaveCycle(ctx context.Context, v Variant, idHex string, c Cycle) (primitive.ObjectID, bool, error) {
	if v != VariantDUT && v != VariantLP {
		return primitive.NilObjectID, false, fmt.Errorf("stats: variant %q has no cycle collection", v)
	}
	c.ID = primitive.NilObjectID
	c.Type = v
	return storeutil.Save(ctx, s.coll(v), idHex, c)
}

// Delete removes one document from the variant's collection.
func (s *Store) Delete(ctx context.Context, v Variant, id primitive.ObjectID) error {
	return storeutil.Delete(ctx, s.coll(v), id)
}
