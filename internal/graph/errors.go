package graph

import (
	domainerrors "github.com/readlist/readlist-server/internal/errors"
)

// codeBadRequest rejects operations the transport does not allow, such as
// mutations sent over GET.
const codeBadRequest = "BAD_REQUEST"

// Error is a resolver error rendered as {message, extensions.code}.
// Only the public message ever reaches the client.
type Error struct {
	message string
	code    string
	details any
}

func (e *Error) Error() string {
	return e.message
}

// Code returns the value reported in extensions.code.
func (e *Error) Code() string {
	return e.code
}

// Extensions implements the graphql-go extensions hook.
func (e *Error) Extensions() map[string]any {
	ext := map[string]any{"code": e.code}
	if e.details != nil {
		ext["fields"] = e.details
	}
	return ext
}

// toGraphQLError converts a service error. Errors without a domain code
// collapse to a generic internal error.
func toGraphQLError(err error) *Error {
	e := &Error{
		message: domainerrors.PublicMessage(err),
		code:    domainerrors.CodeOf(err).GraphQLCode(),
	}
	var domainErr *domainerrors.Error
	if domainerrors.As(err, &domainErr) {
		e.details = domainErr.Details
	}
	return e
}
