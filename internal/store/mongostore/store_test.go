package mongostore

import (
	"context"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/readlist/readlist-server/internal/id"
	"github.com/readlist/readlist-server/internal/store"
	"github.com/readlist/readlist-server/internal/store/storetest"
)

// newTestStore connects to READLIST_TEST_MONGO_URI using a throwaway database.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("READLIST_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("READLIST_TEST_MONGO_URI not set")
	}

	database := "readlist_test_" + id.MustGenerate("db")[3:13]
	s, err := Open(context.Background(), uri, database, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.client.Database(database).Drop(context.Background())
	})
	return s
}

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return newTestStore(t)
	})
}

func TestStore_Driver(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	assert.Equal(t, "mongo", s.Driver())
}

func TestUserDocRoundTrip(t *testing.T) {
	u := storetest.NewUser("Alice", "Alice@X.com")
	u.SavedBooks = append(u.SavedBooks, storetest.NewBook("B1", "The Hobbit", "J.R.R. Tolkien"))

	doc := newUserDoc(u)
	assert.Equal(t, "alice", doc.UsernameKey)
	assert.Equal(t, "alice@x.com", doc.EmailKey)
	assert.Equal(t, u.PasswordHash, doc.Password)
	require.Len(t, doc.SavedBooks, 1)
	assert.Equal(t, "B1", doc.SavedBooks[0].BookID)

	assert.Equal(t, u, doc.toDomain())
}

func TestNewUserDoc_EmptyCollectionIsArray(t *testing.T) {
	doc := newUserDoc(storetest.NewUser("bob", "bob@x.com"))
	assert.NotNil(t, doc.SavedBooks)
	assert.Empty(t, doc.SavedBooks)
}

// bsonName returns the bson key of a struct field.
func bsonName(t *testing.T, v any, field string) string {
	t.Helper()
	f, ok := reflect.TypeOf(v).FieldByName(field)
	require.True(t, ok, field)
	name, _, _ := strings.Cut(f.Tag.Get("bson"), ",")
	return name
}

func roundTripBSON(t *testing.T, in bson.M, out any) {
	t.Helper()
	raw, err := bson.Marshal(in)
	require.NoError(t, err)
	require.NoError(t, bson.Unmarshal(raw, out))
}

func TestAddBookOps(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	book := storetest.NewBook("B1", "The Hobbit", "J.R.R. Tolkien")

	filter, update := addBookOps("user-1", book, now)

	bookPath := bsonName(t, userDoc{}, "SavedBooks") + "." + bsonName(t, bookDoc{}, "BookID")
	assert.Equal(t, bson.M{
		"_id":    "user-1",
		bookPath: bson.M{"$ne": "B1"},
	}, filter)

	var decoded struct {
		Push struct {
			SavedBooks bookDoc `bson:"savedBooks"`
		} `bson:"$push"`
		Set struct {
			UpdatedAt time.Time `bson:"updatedAt"`
		} `bson:"$set"`
	}
	roundTripBSON(t, update, &decoded)
	assert.Equal(t, newBookDoc(book), decoded.Push.SavedBooks)
	assert.True(t, now.Equal(decoded.Set.UpdatedAt))
}

func TestRemoveBookOps(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	filter, update := removeBookOps("user-1", "B1", now)

	bookKey := bsonName(t, bookDoc{}, "BookID")
	assert.Equal(t, bson.M{
		"_id": "user-1",
		bsonName(t, userDoc{}, "SavedBooks") + "." + bookKey: "B1",
	}, filter)

	var decoded struct {
		Pull struct {
			SavedBooks map[string]string `bson:"savedBooks"`
		} `bson:"$pull"`
		Set struct {
			UpdatedAt time.Time `bson:"updatedAt"`
		} `bson:"$set"`
	}
	roundTripBSON(t, update, &decoded)
	assert.Equal(t, map[string]string{bookKey: "B1"}, decoded.Pull.SavedBooks)
	assert.True(t, now.Equal(decoded.Set.UpdatedAt))
}
