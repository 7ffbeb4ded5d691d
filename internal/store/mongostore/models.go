package mongostore

import (
	"time"

	"github.com/readlist/readlist-server/internal/domain"
	"github.com/readlist/readlist-server/internal/normalize"
)

type userDoc struct {
	ID          string    `bson:"_id"`
	Username    string    `bson:"username"`
	UsernameKey string    `bson:"usernameKey"`
	Email       string    `bson:"email"`
	EmailKey    string    `bson:"emailKey"`
	Password    string    `bson:"password"`
	SavedBooks  []bookDoc `bson:"savedBooks"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

type bookDoc struct {
	ID          string   `bson:"id"`
	BookID      string   `bson:"bookId"`
	Title       string   `bson:"title"`
	Authors     []string `bson:"authors"`
	Description string   `bson:"description,omitempty"`
	Image       string   `bson:"image,omitempty"`
	Link        string   `bson:"link,omitempty"`
}

func newUserDoc(u *domain.User) userDoc {
	doc := userDoc{
		ID:          u.ID,
		Username:    u.Username,
		UsernameKey: normalize.UsernameKey(u.Username),
		Email:       u.Email,
		EmailKey:    normalize.Email(u.Email),
		Password:    u.PasswordHash,
		SavedBooks:  []bookDoc{},
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
	for _, b := range u.SavedBooks {
		doc.SavedBooks = append(doc.SavedBooks, newBookDoc(b))
	}
	return doc
}

func newBookDoc(b domain.Book) bookDoc {
	return bookDoc{
		ID:          b.ID,
		BookID:      b.BookID,
		Title:       b.Title,
		Authors:     b.Authors,
		Description: b.Description,
		Image:       b.Image,
		Link:        b.Link,
	}
}

func (d *userDoc) toDomain() *domain.User {
	u := &domain.User{
		Record: domain.Record{
			ID:        d.ID,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		},
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.Password,
	}
	for _, b := range d.SavedBooks {
		u.SavedBooks = append(u.SavedBooks, domain.Book{
			ID:          b.ID,
			BookID:      b.BookID,
			Title:       b.Title,
			Authors:     b.Authors,
			Description: b.Description,
			Image:       b.Image,
			Link:        b.Link,
		})
	}
	return u
}
