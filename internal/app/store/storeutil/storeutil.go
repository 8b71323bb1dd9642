// Package storeutil provides the generic collection access contract shared
// by every content store: list, create, full-overwrite update, and delete,
// addressed by (collection, document id). Per-entity stores wrap these
// helpers with typed documents.
package storeutil

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Kind classifies a store failure for user feedback. Handlers surface
// Unavailable and Permission through the toast mechanism; NotFound and
// BadID are caller errors.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnavailable
	KindPermission
	KindNotFound
	KindBadID
)

// Error wraps a driver error with its classification.
type Error struct {
	Kind Kind
	Op   string
	Coll string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Coll, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a classified not-found store error.
func IsNotFound(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == KindNotFound
}

// classify maps a mongo driver error onto the error taxonomy. Command
// error 13 is Unauthorized on MongoDB; timeouts and network failures are
// reported as unavailable.
func classify(op, coll string, err error) error {
	if err == nil {
		return nil
	}
	kind := KindUnknown
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		kind = KindNotFound
	case mongo.IsTimeout(err), mongo.IsNetworkError(err):
		kind = KindUnavailable
	default:
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Code == 13 {
			kind = KindPermission
		} else if errors.Is(err, context.DeadlineExceeded) {
			kind = KindUnavailable
		}
	}
	return &Error{Kind: kind, Op: op, Coll: coll, Err: err}
}

// ParseID converts a hex document id from a route or form into an ObjectID.
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, &Error{Kind: KindBadID, Op: "parse_id", Err: err}
	}
	return id, nil
}

// List reads every document in the collection into out (a pointer to a
// slice of the entity type). sort may be nil for store-defined order.
func List(ctx context.Context, c *mongo.Collection, sort bson.D, out any) error {
	opts := options.Find()
	if sort != nil {
		opts.SetSort(sort)
	}
	cursor, err := c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return classify("list", c.Name(), err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return classify("decode", c.Name(), err)
	}
	return nil
}

// Get reads one document by id into out.
func Get(ctx context.Context, c *mongo.Collection, id primitive.ObjectID, out any) error {
	if err := c.FindOne(ctx, bson.M{"_id": id}).Decode(out); err != nil {
		return classify("get", c.Name(), err)
	}
	return nil
}

// Create inserts doc and returns the store-assigned id. doc must not carry
// an id (the `_id,omitempty` bson tag with a zero ObjectID satisfies this);
// the driver assigns one on insert.
func Create(ctx context.Context, c *mongo.Collection, doc any) (primitive.ObjectID, error) {
	res, err := c.InsertOne(ctx, doc)
	if err != nil {
		return primitive.NilObjectID, classify("create", c.Name(), err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, classify("create", c.Name(), fmt.Errorf("unexpected inserted id type %T", res.InsertedID))
	}
	return id, nil
}

// Update replaces the full document at id with doc. Last write wins: there
// is no version check and no partial patch. A missing id is reported as
// not found.
func Update(ctx context.Context, c *mongo.Collection, id primitive.ObjectID, doc any) error {
	res, err := c.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return classify("update", c.Name(), err)
	}
	if res.MatchedCount == 0 {
		return classify("update", c.Name(), mongo.ErrNoDocuments)
	}
	return nil
}

// Delete removes the document at id. Unconditional: no dependent-record
// cleanup and no soft delete.
func Delete(ctx context.Context, c *mongo.Collection, id primitive.ObjectID) error {
	if _, err := c.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return classify("delete", c.Name(), err)
	}
	return nil
}

// Save is the single create-vs-update choke point used by every admin
// section: an empty idHex creates, anything else is a full overwrite of the
// existing document. It returns the effective id and whether a document was
// created.
func Save(ctx context.Context, c *mongo.Collection, idHex string, doc any) (primitive.ObjectID, bool, error) {
	if idHex == "" {
		id, err := Create(ctx, c, doc)
		return id, true, err
	}
	id, err := ParseID(idHex)
	if err != nil {
		return primitive.NilObjectID, false, err
	}
	return id, false, Update(ctx, c, id, doc)
}

// Paginate returns *options.FindOptions with skip/limit given a 1-based page.
func Paginate(limit, page int64) *options.FindOptions {
	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	sk := (page - 1) * limit
	return options.Find().SetLimit(limit).SetSkip(sk)
}
