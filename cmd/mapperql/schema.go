package main

// movieSchemaSDL is the GraphQL source text for the movies/people mapping
// internal/movies.Registry builds directly in Go (§1 Non-goals: schema
// loading from SDL text is the thin shell, not the core; the registry
// underneath is what actually drives planning).
const movieSchemaSDL = `
scalar DateTime

type Person {
	id: ID!
	name: String!
	manager: Person
}

type Movie {
	id: ID!
	title: String!
	genre: String!
	releaseDateAttr: DateTime!
	showtime: DateTime!
	nextShowing: DateTime!
	durationAttr: Int!
	categories: [String!]!
	features: [String!]!
	isLong: Boolean!
	director: Person
}

type Query {
	movieById(id: ID!): Movie
	moviesByGenres(genres: [String!]!): [Movie!]!
	moviesReleasedBetween(from: DateTime!, to: DateTime!): [Movie!]!
	longMovies: [Movie!]!
}
`
