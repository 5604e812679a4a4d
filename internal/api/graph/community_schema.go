package graph

import (
	"github.com/graphql-go/graphql"

	"github.com/spec-kit/community-hub/internal/domain"
	"github.com/spec-kit/community-hub/internal/service"
)

// NewCommunitySchema builds the community subgraph's executable schema. The
// User type here is served from the local mirror, never from the auth
// service.
func NewCommunitySchema(svc *service.CommunityService) (graphql.Schema, error) {
	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.ID),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.MirrorUser).ID, nil
				},
			},
			"username": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.MirrorUser).Username, nil
				},
			},
			"email": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.MirrorUser).Email, nil
				},
			},
			"role": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return string(p.Source.(*domain.MirrorUser).Role), nil
				},
			},
		},
	})

	postType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CommunityPost",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.ID),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.PopulatedPost).Post.ID, nil
				},
			},
			"author": &graphql.Field{
				Type: graphql.NewNonNull(userType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.PopulatedPost).Author, nil
				},
			},
			"title": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.PopulatedPost).Post.Title, nil
				},
			},
			"content": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.PopulatedPost).Post.Content, nil
				},
			},
			"category": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return string(p.Source.(*domain.PopulatedPost).Post.Category), nil
				},
			},
			"aiSummary": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					summary := p.Source.(*domain.PopulatedPost).Post.AISummary
					if summary == nil {
						return nil, nil
					}
					return *summary, nil
				},
			},
			"createdAt": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return epochMillis(p.Source.(*domain.PopulatedPost).Post.CreatedAt), nil
				},
			},
			"updatedAt": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return epochMillis(p.Source.(*domain.PopulatedPost).Post.UpdatedAt), nil
				},
			},
		},
	})

	helpRequestType := graphql.NewObject(graphql.ObjectConfig{
		Name: "HelpRequest",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.ID),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.PopulatedHelpRequest).Request.ID, nil
				},
			},
			"author": &graphql.Field{
				Type: graphql.NewNonNull(userType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.PopulatedHelpRequest).Author, nil
				},
			},
			"description": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.PopulatedHelpRequest).Request.Description, nil
				},
			},
			"location": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					loc := p.Source.(*domain.PopulatedHelpRequest).Request.Location
					if loc == nil {
						return nil, nil
					}
					return *loc, nil
				},
			},
			"isResolved": &graphql.Field{
				Type: graphql.Boolean,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.PopulatedHelpRequest).Request.IsResolved, nil
				},
			},
			"volunteers": &graphql.Field{
				Type: graphql.NewList(userType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.PopulatedHelpRequest).Volunteers, nil
				},
			},
			"createdAt": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return epochMillis(p.Source.(*domain.PopulatedHelpRequest).Request.CreatedAt), nil
				},
			},
			"updatedAt": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return epochMillis(p.Source.(*domain.PopulatedHelpRequest).Request.UpdatedAt), nil
				},
			},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"communityPosts": &graphql.Field{
				Type: graphql.NewList(postType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					posts, err := svc.CommunityPosts(p.Context)
					if err != nil {
						// Return an untyped nil so the failed field is null,
						// not a typed nil slice serialized as [].
						return nil, err
					}
					return posts, nil
				},
			},
			"helpRequests": &graphql.Field{
				Type: graphql.NewList(helpRequestType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return svc.HelpRequests(p.Context)
				},
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"addCommunityPost": &graphql.Field{
				Type: postType,
				Args: graphql.FieldConfigArgument{
					"title":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"content":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"category":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"aiSummary": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return svc.AddCommunityPost(p.Context,
						stringArg(p.Args, "title"),
						stringArg(p.Args, "content"),
						domain.PostCategory(stringArg(p.Args, "category")),
						optionalStringArg(p.Args, "aiSummary"))
				},
			},
			"updateCommunityPost": &graphql.Field{
				Type: postType,
				Args: graphql.FieldConfigArgument{
					"id":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"content": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return svc.UpdateCommunityPost(p.Context,
						stringArg(p.Args, "id"),
						stringArg(p.Args, "content"))
				},
			},
			"addHelpRequest": &graphql.Field{
				Type: helpRequestType,
				Args: graphql.FieldConfigArgument{
					"description": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"location":    &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return svc.AddHelpRequest(p.Context,
						stringArg(p.Args, "description"),
						optionalStringArg(p.Args, "location"))
				},
			},
			"resolveHelpRequest": &graphql.Field{
				Type: helpRequestType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return svc.ResolveHelpRequest(p.Context, stringArg(p.Args, "id"))
				},
			},
			"volunteerForHelpRequest": &graphql.Field{
				Type: helpRequestType,
				Args: graphql.FieldConfigArgument{
					"requestId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return svc.VolunteerForHelpRequest(p.Context, stringArg(p.Args, "requestId"))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query, Mutation: mutation})
}
