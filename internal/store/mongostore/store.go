// Package mongostore is a store.Store backed by MongoDB. Saved books are
// embedded in the user document and updated with conditional $push and $pull.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/readlist/readlist-server/internal/domain"
	"github.com/readlist/readlist-server/internal/normalize"
	"github.com/readlist/readlist-server/internal/store"
)

const (
	driverName      = "mongo"
	usersCollection = "users"

	emailIndex    = "email_unique"
	usernameIndex = "username_unique"

	connectTimeout = 10 * time.Second
)

// Store persists users in a MongoDB collection.
type Store struct {
	client *mongo.Client
	users  *mongo.Collection
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// Open connects to uri, verifies the connection, and ensures indexes on database.
func Open(ctx context.Context, uri, database string, logger *slog.Logger) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &Store{
		client: client,
		users:  client.Database(database).Collection(usersCollection),
		logger: logger,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	if logger != nil {
		logger.Info("mongo store opened", "database", database)
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "emailKey", Value: 1}},
			Options: options.Index().SetName(emailIndex).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "usernameKey", Value: 1}},
			Options: options.Index().SetName(usernameIndex).SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

// Driver implements store.Store.
func (s *Store) Driver() string {
	return driverName
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// CreateUser implements store.Store.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := s.users.InsertOne(ctx, newUserDoc(user))
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		msg := err.Error()
		switch {
		case strings.Contains(msg, emailIndex):
			return store.ErrEmailExists
		case strings.Contains(msg, usernameIndex):
			return store.ErrUsernameExists
		default:
			return store.ErrUserExists
		}
	}
	return fmt.Errorf("insert user: %w", err)
}

// GetUser implements store.Store.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetUserByEmail implements store.Store.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"emailKey": normalize.Email(email)})
}

// CountUsers implements store.Store.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	n, err := s.users.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return int(n), nil
}

// AddSavedBook pushes book only when no entry with its bookId is present.
func (s *Store) AddSavedBook(ctx context.Context, userID string, book domain.Book) (*domain.User, error) {
	filter, update := addBookOps(userID, book, time.Now())
	return s.updateOrLoad(ctx, userID, filter, update)
}

// RemoveSavedBook pulls every entry with bookID.
func (s *Store) RemoveSavedBook(ctx context.Context, userID, bookID string) (*domain.User, error) {
	filter, update := removeBookOps(userID, bookID, time.Now())
	return s.updateOrLoad(ctx, userID, filter, update)
}

// addBookOps matches the user only while no entry with book.BookID exists,
// so a matched filter always means the push changes the set.
func addBookOps(userID string, book domain.Book, now time.Time) (filter, update bson.M) {
	filter = bson.M{
		"_id":               userID,
		"savedBooks.bookId": bson.M{"$ne": book.BookID},
	}
	update = bson.M{
		"$push": bson.M{"savedBooks": newBookDoc(book)},
		"$set":  bson.M{"updatedAt": now},
	}
	return filter, update
}

// removeBookOps matches the user only while an entry with bookID exists.
func removeBookOps(userID, bookID string, now time.Time) (filter, update bson.M) {
	filter = bson.M{
		"_id":               userID,
		"savedBooks.bookId": bookID,
	}
	update = bson.M{
		"$pull": bson.M{"savedBooks": bson.M{"bookId": bookID}},
		"$set":  bson.M{"updatedAt": now},
	}
	return filter, update
}

// updateOrLoad applies update when filter matches. A non-matching filter means
// either the user is missing or the change is a no-op, so the current
// document is loaded to tell the two apart.
func (s *Store) updateOrLoad(ctx context.Context, userID string, filter, update bson.M) (*domain.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDoc
	err := s.users.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return s.GetUser(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("update saved books: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}
