// internal/app/store/notice/noticestore.go
package notice

import (
	"context"
	"time"

	"github.com/dalemusser/stratacampus/internal/app/store/storeutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection is the document collection backing this store.
const Collection = "notices"

// Category is the board section a notice is published under.
type Category string

const (
	CategoryUrgent         Category = "URGENT"
	CategoryPedagogie      Category = "PEDAGOGIE"
	CategoryAdministration Category = "ADMINISTRATION"
	CategoryBourses        Category = "BOURSES"
	CategoryStages         Category = "STAGES"
)

// Categories lists every valid notice category.
func Categories() []Category {
	return []Category{
		CategoryUrgent,
		CategoryPedagogie,
		CategoryAdministration,
		CategoryBourses,
		CategoryStages,
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Level is the study year a timetable applies to.
type Level string

const (
	LevelL1 Level = "L1"
	LevelL2 Level = "L2"
	LevelL3 Level = "L3"
)

// Levels lists the timetable levels.
func Levels() []Level { return []Level{LevelL1, LevelL2, LevelL3} }

// TimetableEntry is one scheduled slot in an embedded timetable.
type TimetableEntry struct {
	Day     string `bson:"day"`
	Time    string `bson:"time"`
	Ecue    string `bson:"ecue"`
	Filiere string `bson:"filiere"`
	Room    string `bson:"room"`
	Teacher string `bson:"teacher"`
}

// Timetable is the optional structured schedule embedded in exactly one
// notice.
type Timetable struct {
	Level      Level            `bson:"level"`
	Entries    []TimetableEntry `bson:"entries"`
	Note       string           `bson:"note,omitempty"`
	HeadOfDept string           `bson:"headOfDept,omitempty"`
}

// Notice is one bulletin board document. CreatedAt is set server-side once
// at first creation and is the default list ordering key.
type Notice struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Date      string             `bson:"date"`
	Category  Category           `bson:"category"`
	Content   string             `bson:"content"`
	FileSize  string             `bson:"fileSize,omitempty"`
	IsNew     bool               `bson:"isNew"`
	Timetable *Timetable         `bson:"timetable,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (n *Notice) applyDefaults() {
	if !n.Category.Valid() {
		n.Category = CategoryAdministration
	}
	if n.Timetable != nil && n.Timetable.Entries == nil {
		n.Timetable.Entries = []TimetableEntry{}
	}
}

// Store provides access to the notices collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new notice store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// List returns all notices, newest first by creation time.
func (s *Store) List(ctx context.Context) ([]Notice, error) {
	var notices []Notice
	sort := bson.D{{Key: "createdAt", Value: -1}}
	if err := storeutil.List(ctx, s.c, sort, &notices); err != nil {
		return nil, err
	}
	for i := range notices {
		notices[i].applyDefaults()
	}
	return notices, nil
}

// GetByID retrieves one notice.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*Notice, error) {
	var n Notice
	if err := storeutil.Get(ctx, s.c, id, &n); err != nil {
		return nil, err
	}
	n.applyDefaults()
	return &n, nil
}

// Save creates or fully overwrites the notice. On create the creation
// timestamp is stamped here, once; on update the caller must carry the
// original CreatedAt through the draft so the overwrite preserves it.
func (s *Store) Save(ctx context.Context, idHex string, n Notice) (primitive.ObjectID, bool, error) {
	n.ID = primitive.NilObjectID
	n.applyDefaults()
	if idHex == "" {
		n.CreatedAt = time.Now().UTC()
	}
	return storeutil.Save(ctx, s.c, idHex, n)
}

// Delete removes the notice. Deleting a notice referenced elsewhere is
// allowed; nothing cascades.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	return storeutil.Delete(ctx, s.c, id)
}
