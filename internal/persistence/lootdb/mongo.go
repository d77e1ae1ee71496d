package lootdb

import (
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var _ Store = (*MongoStore)(nil)

// MongoStore keeps one document per (player, container). ReplaceOne with upsert swaps the whole
// slots array at once.
type MongoStore struct {
	client *mongo.Client
	col    *mongo.Collection
}

type chestDoc struct {
	ID      string       `bson:"_id"`
	Player  string       `bson:"player_uuid"`
	ChestID string       `bson:"chest_id"`
	Slots   []SlotRecord `bson:"slots"`
}

func OpenMongo(ctx context.Context, uri, dbName, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	col := client.Database(dbName).Collection(collection)
	_, err = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "player_uuid", Value: 1}, {Key: "chest_id", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return &MongoStore{client: client, col: col}, nil
}

func docID(player uuid.UUID, containerID string) string {
	return player.String() + ":" + containerID
}

func (s *MongoStore) Load(ctx context.Context, player uuid.UUID, containerID string) ([]SlotRecord, bool, error) {
	var doc chestDoc
	err := s.col.FindOne(ctx, bson.D{{Key: "_id", Value: docID(player, containerID)}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storageErr("load", player, containerID, err)
	}
	rows := slices.Clone(doc.Slots)
	slices.SortFunc(rows, func(a, b SlotRecord) int { return a.Slot - b.Slot })
	out, found := splitSentinel(rows)
	return out, found, nil
}

func (s *MongoStore) Save(ctx context.Context, player uuid.UUID, containerID string, records []SlotRecord) error {
	id := docID(player, containerID)
	doc := chestDoc{
		ID:      id,
		Player:  player.String(),
		ChestID: containerID,
		Slots:   rowsForSave(records),
	}
	_, err := s.col.ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, doc, options.Replace().SetUpsert(true))
	return storageErr("save", player, containerID, err)
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}
