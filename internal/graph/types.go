package graph

import (
	"github.com/graph-gophers/graphql-go"

	"github.com/readlist/readlist-server/internal/domain"
	"github.com/readlist/readlist-server/internal/service"
)

type userResolver struct {
	u *domain.User
}

func newUserResolver(u *domain.User) *userResolver {
	if u == nil {
		return nil
	}
	return &userResolver{u: u}
}

func (r *userResolver) ID() graphql.ID {
	return graphql.ID(r.u.ID)
}

func (r *userResolver) Username() string {
	return r.u.Username
}

func (r *userResolver) Email() string {
	return r.u.Email
}

func (r *userResolver) SavedBookCount() int32 {
	return int32(r.u.SavedBookCount())
}

func (r *userResolver) SavedBooks() *[]*bookResolver {
	books := make([]*bookResolver, len(r.u.SavedBooks))
	for i := range r.u.SavedBooks {
		books[i] = &bookResolver{b: &r.u.SavedBooks[i]}
	}
	return &books
}

type bookResolver struct {
	b *domain.Book
}

func (r *bookResolver) ID() graphql.ID {
	return graphql.ID(r.b.ID)
}

func (r *bookResolver) BookID() string {
	return r.b.BookID
}

func (r *bookResolver) Title() string {
	return r.b.Title
}

func (r *bookResolver) Authors() *[]*string {
	authors := make([]*string, len(r.b.Authors))
	for i := range r.b.Authors {
		authors[i] = &r.b.Authors[i]
	}
	return &authors
}

func (r *bookResolver) Description() *string {
	return optional(r.b.Description)
}

func (r *bookResolver) Image() *string {
	return optional(r.b.Image)
}

func (r *bookResolver) Link() *string {
	return optional(r.b.Link)
}

// optional maps "" to null.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type authResolver struct {
	res *service.AuthResult
}

func newAuthResolver(res *service.AuthResult) *authResolver {
	return &authResolver{res: res}
}

func (r *authResolver) Token() string {
	return r.res.Token
}

func (r *authResolver) User() *userResolver {
	return newUserResolver(r.res.User)
}
