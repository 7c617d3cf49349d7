// Package mongosource loads the requirements matrix from a MongoDB collection.
//
// Documents have the shape:
//
//	{ "flag": "SAVINGS", "layer": "service", "operation": "withdraw", "subtypes": ["savings"] }
package mongosource

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/featuregate/pkg/requirements"
)

// DefaultCollection is the collection read when none is configured.
const DefaultCollection = "feature_requirements"

// Finder is the subset of *mongo.Collection used by Source.
type Finder interface {
	Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error)
}

// Rule is one stored requirement.
type Rule struct {
	Flag      string   `bson:"flag"`
	Layer     string   `bson:"layer"`
	Operation string   `bson:"operation"`
	Subtypes  []string `bson:"subtypes"`
}

// Source implements requirements.Source over a collection.
type Source struct {
	coll Finder
}

var _ requirements.Source = (*Source)(nil)

// New creates a source reading from coll.
func New(coll Finder) *Source {
	return &Source{coll: coll}
}

// NewFromDatabase reads the DefaultCollection of db.
func NewFromDatabase(db *mongo.Database) *Source {
	return New(db.Collection(DefaultCollection))
}

// Load reads every rule in the collection.
func (s *Source) Load(ctx context.Context) (requirements.Document, error) {
	cursor, err := s.coll.Find(ctx, bson.D{},
		options.Find().SetSort(bson.D{{Key: "flag", Value: 1}, {Key: "layer", Value: 1}, {Key: "operation", Value: 1}}),
	)
	if err != nil {
		return nil, unavailable(err)
	}

	var rules []Rule
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, unavailable(err)
	}

	doc := requirements.Document{}
	for _, r := range rules {
		doc.Add(r.Flag, requirements.Layer(r.Layer), r.Operation, r.Subtypes...)
	}
	return doc, nil
}

func unavailable(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.Join(requirements.ErrSourceUnavailable, err)
}
