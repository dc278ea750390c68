package movies

import "github.com/eddieafk/mapperql/mapping"

// YAMLDocument is a declarative subset of Registry(), exercising
// mapping.ParseDocument/Document.Build the way a deployment would configure
// this fixture without recompiling Go code (adapted from the teacher CLI's
// goinmonster.yaml `models:`/`fields:`/`relations:` shape). It omits
// Person.managerIdAttr, Movie's releaseDateAttr, showtime, nextShowing,
// categories and features fields, the moviesReleasedBetween and longMovies
// root fields, and every ArgsPredicate/Filter hook.
const YAMLDocument = `
types:
  Person:
    fields:
      id:
        kind: sql_field
        table: people
        column: id
        key: true
      name:
        kind: sql_field
        table: people
        column: name
      manager:
        kind: sql_object
        target: Person
        joins:
          - parent_table: people
            parent_column: manager_id
            child_table: people
            child_column: id
  Movie:
    fields:
      id:
        kind: sql_field
        table: movies
        column: id
        key: true
      title:
        kind: sql_field
        table: movies
        column: title
      genre:
        kind: sql_field
        table: movies
        column: genre
      durationAttr:
        kind: sql_attribute
        table: movies
        column: duration
      isLong:
        kind: cursor_field
        fn: isLong
        required: ["durationAttr"]
      director:
        kind: sql_object
        target: Person
        joins:
          - parent_table: movies
            parent_column: director_id
            child_table: people
            child_column: id
  Query:
    fields:
      id:
        kind: sql_field
        table: query_root
        column: id
        key: true
      movieById:
        kind: sql_object
        target: Movie
      moviesByGenres:
        kind: sql_object
        target: Movie
        list: true
`

// LoadFromYAML parses YAMLDocument and builds a Registry from it, using
// Codecs and CursorFuncs the same way a deployment loading a mapping file
// from disk would.
func LoadFromYAML() (*mapping.Registry, error) {
	doc, err := mapping.ParseDocument([]byte(YAMLDocument))
	if err != nil {
		return nil, err
	}
	return doc.Build(Codecs, CursorFuncs())
}
