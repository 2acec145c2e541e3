package quality

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names used by MongoStore.
const (
	SuitesCollection  = "expectation_suites"
	ResultsCollection = "validation_results"
)

// MongoStore keeps suites and results in MongoDB.
type MongoStore struct {
	Client   *mongo.Client
	Database string
	Timeout  time.Duration
}

func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{Client: client, Database: database, Timeout: 30 * time.Second}
}

func (m *MongoStore) GetOrCreateSuite(ctx context.Context, def SuiteDefinition) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, m.Timeout)
	defer cancel()

	coll := m.Client.Database(m.Database).Collection(SuitesCollection)
	filter := bson.M{"name": def.Name}
	update := bson.M{"$setOnInsert": def}
	res, err := coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("quality: upsert suite %s: %w", def.Name, err)
	}
	return res.UpsertedCount > 0, nil
}

func (m *MongoStore) LoadSuite(ctx context.Context, name string) (SuiteDefinition, error) {
	ctx, cancel := context.WithTimeout(ctx, m.Timeout)
	defer cancel()

	var def SuiteDefinition
	coll := m.Client.Database(m.Database).Collection(SuitesCollection)
	if err := coll.FindOne(ctx, bson.M{"name": name}).Decode(&def); err != nil {
		return def, fmt.Errorf("quality: find suite %s: %w", name, err)
	}
	return def, nil
}

func (m *MongoStore) SaveResult(ctx context.Context, res *Result) error {
	ctx, cancel := context.WithTimeout(ctx, m.Timeout)
	defer cancel()

	coll := m.Client.Database(m.Database).Collection(ResultsCollection)
	if _, err := coll.InsertOne(ctx, res); err != nil {
		return fmt.Errorf("quality: insert result %s: %w", res.ID, err)
	}
	return nil
}

func (m *MongoStore) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
