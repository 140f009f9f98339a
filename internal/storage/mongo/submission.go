package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lugondev/go-agora/internal/storage"
)

type mongoSubmissionRepository struct {
	collection *mongo.Collection
}

func (r *mongoSubmissionRepository) Save(ctx context.Context, s *storage.SubmissionModel) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": s.ID}, s, opts)
	return err
}

func (r *mongoSubmissionRepository) FindByID(ctx context.Context, id string) (*storage.SubmissionModel, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoSubmissionRepository) FindBySignature(ctx context.Context, signature string) (*storage.SubmissionModel, error) {
	return r.findOne(ctx, bson.M{"signature": signature})
}

func (r *mongoSubmissionRepository) FindByGovernor(ctx context.Context, governor string, limit int) ([]*storage.SubmissionModel, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, bson.M{"governor": governor}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var submissions []*storage.SubmissionModel
	if err := cursor.All(ctx, &submissions); err != nil {
		return nil, err
	}
	for _, s := range submissions {
		s.CreatedAt = s.CreatedAt.UTC()
	}
	return submissions, nil
}

func (r *mongoSubmissionRepository) findOne(ctx context.Context, filter bson.M) (*storage.SubmissionModel, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var s storage.SubmissionModel
	if err := r.collection.FindOne(ctx, filter, opts).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	s.CreatedAt = s.CreatedAt.UTC()
	return &s, nil
}
