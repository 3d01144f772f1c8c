package scenario

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"roboscapesim/shared"
)

// Catalog persists the scenario name table in the "scenarios" collection,
// grounded on database/mongodb.go's GetCollection convention.
type Catalog struct {
	collection *mongo.Collection
}

func NewCatalog(db *mongo.Database) *Catalog {
	return &Catalog{collection: db.Collection("scenarios")}
}

// Get looks up a scenario by its lowercased id.
func (c *Catalog) Get(ctx context.Context, id string) (Def, bool, error) {
	var def Def
	err := c.collection.FindOne(ctx, bson.M{"_id": strings.ToLower(id)}).Decode(&def)
	if err == mongo.ErrNoDocuments {
		return Def{}, false, nil
	}
	if err != nil {
		return Def{}, false, err
	}
	return def, true, nil
}

// Put upserts a scenario definition, keyed by its lowercased id.
func (c *Catalog) Put(ctx context.Context, def Def) error {
	def.ID = strings.ToLower(def.ID)
	_, err := c.collection.ReplaceOne(ctx, bson.M{"_id": def.ID}, def, options.Replace().SetUpsert(true))
	return err
}

// List returns every catalog entry.
func (c *Catalog) List(ctx context.Context) ([]Def, error) {
	cur, err := c.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Def
	for cur.Next(ctx) {
		var def Def
		if err := cur.Decode(&def); err != nil {
			shared.DebugError(err)
			continue
		}
		out = append(out, def)
	}
	return out, cur.Err()
}
