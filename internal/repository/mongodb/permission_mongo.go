package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// CountersCollection holds one sequence document per snapshot collection.
const CountersCollection = "counters"

// PermissionTableMongo keeps permission snapshots in a Mongo collection.
// Each snapshot gets a store-assigned seq from the counters collection; latest is the highest seq.
// ObjectIDs only identify documents: they order by second, then by a per-process random value.
type PermissionTableMongo struct {
	coll     *mongo.Collection
	counters *mongo.Collection
}

type permissionModel struct {
	Id           primitive.ObjectID  `bson:"_id"`
	Seq          int64               `bson:"seq"`
	Permissions  map[string][]string `bson:"permissions"`
	CreationTime time.Time           `bson:"creationTime"`
}

type counterModel struct {
	Seq int64 `bson:"seq"`
}

func NewPermissionTableMongo(db *mongo.Database, collection string) *PermissionTableMongo {
	return &PermissionTableMongo{
		coll:     db.Collection(collection),
		counters: db.Collection(CountersCollection),
	}
}

var _ repository.PermissionTableRepository = (*PermissionTableMongo)(nil)

var (
	getLastSort = options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}})
	nextSeqOpts = options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
)

// EnsureIndexes creates the unique descending seq index Latest relies on.
func (p *PermissionTableMongo) EnsureIndexes(ctx context.Context) error {
	_, err := p.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "seq", Value: -1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create seq index: %w", err)
	}
	return nil
}

func (p *PermissionTableMongo) Latest(ctx context.Context) (*model.PermissionSnapshot, error) {
	var m permissionModel
	if err := p.coll.FindOne(ctx, bson.D{}, getLastSort).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return m.snapshot(), nil
}

func (p *PermissionTableMongo) Insert(ctx context.Context, table model.PermissionTable) (*model.PermissionSnapshot, error) {
	seq, err := p.nextSeq(ctx)
	if err != nil {
		return nil, err
	}
	m := permissionModel{
		Id:           primitive.NewObjectID(),
		Seq:          seq,
		Permissions:  table.Clone(),
		CreationTime: time.Now().UTC(),
	}
	if _, err := p.coll.InsertOne(ctx, m); err != nil {
		return nil, err
	}
	return m.snapshot(), nil
}

func (p *PermissionTableMongo) nextSeq(ctx context.Context) (int64, error) {
	var c counterModel
	err := p.counters.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: p.coll.Name()}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: int64(1)}}}},
		nextSeqOpts,
	).Decode(&c)
	if err != nil {
		return 0, fmt.Errorf("next snapshot seq: %w", err)
	}
	return c.Seq, nil
}

func (m permissionModel) snapshot() *model.PermissionSnapshot {
	table := model.PermissionTable(m.Permissions)
	if table == nil {
		table = model.PermissionTable{}
	}
	return &model.PermissionSnapshot{
		ID:        strconv.FormatInt(m.Seq, 10),
		Table:     table,
		CreatedAt: m.CreationTime,
	}
}
