package graph

import (
	"errors"

	"github.com/graphql-go/graphql"

	"github.com/spec-kit/community-hub/internal/domain"
	"github.com/spec-kit/community-hub/internal/service"
	"github.com/spec-kit/community-hub/internal/session"
)

// NewAuthSchema builds the authentication subgraph's executable schema.
func NewAuthSchema(svc *service.AuthService) (graphql.Schema, error) {
	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.ID),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.Identity).ID, nil
				},
			},
			"username": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.Identity).Username, nil
				},
			},
			"email": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.Identity).Email, nil
				},
			},
			"role": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return string(p.Source.(*domain.Identity).Role), nil
				},
			},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"currentUser": &graphql.Field{
				Type: userType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					identity := svc.CurrentUser(p.Context)
					if identity == nil {
						return nil, nil
					}
					return identity, nil
				},
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"signup": &graphql.Field{
				Type: graphql.Boolean,
				Args: graphql.FieldConfigArgument{
					"username": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"role":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					err := svc.Signup(p.Context,
						stringArg(p.Args, "username"),
						stringArg(p.Args, "email"),
						stringArg(p.Args, "password"),
						domain.Role(stringArg(p.Args, "role")))
					if err != nil {
						return nil, err
					}
					return true, nil
				},
			},
			"login": &graphql.Field{
				Type: graphql.Boolean,
				Args: graphql.FieldConfigArgument{
					"username": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					token, expiresAt, err := svc.Login(p.Context,
						stringArg(p.Args, "username"),
						stringArg(p.Args, "password"))
					if err != nil {
						return nil, err
					}
					sink, ok := session.CookieSinkFromContext(p.Context)
					if !ok {
						return nil, errors.New("no cookie sink in context")
					}
					sink.SetSessionCookie(token, expiresAt)
					return true, nil
				},
			},
			"logout": &graphql.Field{
				Type: graphql.Boolean,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					// Clearing the cookie is the whole of logout; the token
					// stays valid until its embedded expiry.
					if sink, ok := session.CookieSinkFromContext(p.Context); ok {
						sink.ClearSessionCookie()
					}
					return true, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query, Mutation: mutation})
}
