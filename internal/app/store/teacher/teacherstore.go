// internal/app/store/teacher/teacherstore.go
package teacher

import (
	"context"

	"github.com/dalemusser/stratacampus/internal/app/store/storeutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection is the document collection backing this store.
const Collection = "teachers"

// Department identifies one of the institute's teaching departments.
type Department string

const (
	DeptInfo Department = "INFO"
	DeptGEA  Department = "GEA"
	DeptTC   Department = "TC"
	DeptGHT  Department = "GHT"
)

// Departments lists every department in display order.
func Departments() []Department {
	return []Department{DeptInfo, DeptGEA, DeptTC, DeptGHT}
}

// Valid reports whether d is a known department.
func (d Department) Valid() bool {
	for _, known := range Departments() {
		if d == known {
			return true
		}
	}
	return false
}

// Teacher is one teaching-staff record. IsDirector marks the department
// head; nothing enforces a single director per department.
type Teacher struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Role         string             `bson:"role"`
	Courses      string             `bson:"courses"`
	DepartmentID Department         `bson:"departmentId"`
	IsDirector   bool               `bson:"isDirector"`
}

func (t *Teacher) applyDefaults() {
	if !t.DepartmentID.Valid() {
		t.DepartmentID = DeptInfo
	}
}

// Store provides access to the teachers collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new teacher store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// List returns all teaching-staff records in store order.
func (s *Store) List(ctx context.Context) ([]Teacher, error) {
	var teachers []Teacher
	if err := storeutil.List(ctx, s.c, nil, &teachers); err != nil {
		return nil, err
	}
	for i := range teachers {
		teachers[i].applyDefaults()
	}
	return teachers, nil
}

// GetByID retrieves one record.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*Teacher, error) {
	var t Teacher
	if err := storeutil.Get(ctx, s.c, id, &t); err != nil {
		return nil, err
	}
	t.applyDefaults()
	return &t, nil
}

// Save creates or fully overwrites the record.
func (s *Store) Save(ctx context.Context, idHex string, t Teacher) (primitive.ObjectID, bool, error) {
	t.ID = primitive.NilObjectID
	t.applyDefaults()
	return storeutil.Save(ctx, s.c, idHex, t)
}

// Delete removes the record at id.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	return storeutil.Delete(ctx, s.c, id)
}
