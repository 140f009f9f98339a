package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/go-agora/internal/initializer"
	"github.com/lugondev/go-agora/internal/storage"
)

// testRepository connects to AGORA_TEST_MONGO_URI, e.g. mongodb://localhost:27017.
func testRepository(t *testing.T) *MongoRepository {
	t.Helper()

	uri := os.Getenv("AGORA_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("AGORA_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := NewMongoRepository(ctx, uri, "agora_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.database.Drop(context.Background())
		repo.Close()
	})
	return repo
}

func TestRegistered(t *testing.T) {
	assert.Contains(t, storage.Types(), Type)
}

func TestNewMongoRepositoryRequiresURI(t *testing.T) {
	_, err := NewMongoRepository(context.Background(), "", "")
	assert.Error(t, err)
}

func TestSubmissionRepository(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()
	submissions := repo.Submissions()

	base := time.Now().UTC().Truncate(time.Millisecond)
	first := &storage.SubmissionModel{
		ID:        uuid.NewString(),
		Signature: "sig-1",
		Governor:  "gov",
		Admin:     "admin",
		Status:    initializer.OutcomeUnknown,
		CreatedAt: base,
	}
	second := &storage.SubmissionModel{
		ID:        uuid.NewString(),
		Governor:  "gov",
		Admin:     "admin",
		Status:    initializer.OutcomeFailed,
		ErrorCode: "ALREADY_INITIALIZED",
		CreatedAt: base.Add(time.Second),
	}
	require.NoError(t, submissions.Save(ctx, first))
	require.NoError(t, submissions.Save(ctx, second))

	first.Status = initializer.OutcomeSucceeded
	first.Slot = 7
	require.NoError(t, submissions.Save(ctx, first))

	got, err := submissions.FindBySignature(ctx, "sig-1")
	require.NoError(t, err)
	assert.Equal(t, first, got)

	list, err := submissions.FindByGovernor(ctx, "gov", 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0])

	missing, err := submissions.FindByID(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.Ping(ctx))
}
