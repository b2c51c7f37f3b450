package repository_test

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/cinemood/pkg/repository"
	"github.com/m-mizutani/gt"
)

func setupFirestore(t *testing.T) (*repository.Firestore, *firestore.Client, string) {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	if projectID == "" || databaseID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID and TEST_FIRESTORE_DATABASE_ID must be set to run Firestore tests")
	}

	ctx := context.Background()
	collection := fmt.Sprintf("cinemood_test_%d", rand.Int())

	repo, err := repository.New(ctx, projectID, databaseID, repository.WithCollection(collection))
	gt.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	gt.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return repo, client, collection
}

func TestFirestoreListHistory(t *testing.T) {
	repo, client, collection := setupFirestore(t)
	ctx := context.Background()

	userID := "user-1"
	items := client.Collection(collection).Doc(userID).Collection("items")
	base := time.Now()

	_, err := items.Doc("27205").Set(ctx, map[string]any{
		"id":                27205,
		"title":             "Inception",
		"release_date":      "2010-07-15",
		"original_language": "en",
		"genre_ids":         []int64{28, 878},
		"added_at":          base,
	})
	gt.NoError(t, err)

	_, err = items.Doc("496243").Set(ctx, map[string]any{
		"id":                496243,
		"title":             "Parasite",
		"release_date":      "2019-05-30",
		"original_language": "ko",
		"genre_ids":         []int64{35, 53, 18},
		"added_at":          base.Add(time.Minute),
	})
	gt.NoError(t, err)

	history, err := repo.ListHistory(ctx, userID)
	gt.NoError(t, err)
	gt.A(t, history).Length(2)
	gt.Equal(t, history[0].Title, "Inception")
	gt.Equal(t, history[0].ReleaseYear, 2010)
	gt.Equal(t, history[0].Order, 0)
	gt.Equal(t, history[1].Language, "ko")
	gt.Equal(t, history[1].Order, 1)
}

func TestFirestoreListHistoryEmpty(t *testing.T) {
	repo, _, _ := setupFirestore(t)

	history, err := repo.ListHistory(context.Background(), "no-such-user")
	gt.NoError(t, err)
	gt.A(t, history).Length(0)
}

func TestFirestoreListHistoryRequiresUser(t *testing.T) {
	repo, _, _ := setupFirestore(t)

	_, err := repo.ListHistory(context.Background(), "")
	gt.Error(t, err)
}
