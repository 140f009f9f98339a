package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/lugondev/go-agora/internal/storage"
)

// DefaultDatabase is used when neither the options nor the URI name one.
const DefaultDatabase = "agora"

const connectTimeout = 10 * time.Second

type MongoRepository struct {
	client         *mongo.Client
	database       *mongo.Database
	submissions    *mongo.Collection
	submissionRepo storage.SubmissionRepository
}

func NewMongoRepository(ctx context.Context, uri, database string) (*MongoRepository, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}
	if database == "" {
		database = DefaultDatabase
	}

	clientOpts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(4).
		SetConnectTimeout(connectTimeout).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(database)
	repo := &MongoRepository{
		client:      client,
		database:    db,
		submissions: db.Collection("submissions"),
	}
	repo.submissionRepo = &mongoSubmissionRepository{collection: repo.submissions}

	if err := repo.createIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return repo, nil
}

func (r *MongoRepository) createIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "signature", Value: 1}}},
		{Keys: bson.D{{Key: "governor", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	_, err := r.submissions.Indexes().CreateMany(ctx, models)
	return err
}

func (r *MongoRepository) Submissions() storage.SubmissionRepository {
	return r.submissionRepo
}

func (r *MongoRepository) Close() error {
	if r.client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return r.client.Disconnect(ctx)
	}
	return nil
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}
