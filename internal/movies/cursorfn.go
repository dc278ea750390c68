package movies

import "github.com/eddieafk/mapperql/rowcursor"

// longMovieMinutes is the runtime threshold IsLongMovie applies.
const longMovieMinutes = 120

// IsLongMovie is the CursorField backing Movie.isLong (the S4 scenario): a
// movie is "long" once its hidden duration attribute reaches two hours.
// RequiredSiblings pulls "durationAttr" into the projection without
// exposing it as a GraphQL field itself.
func IsLongMovie(cursor any) (any, error) {
	c, ok := cursor.(rowcursor.Cursor)
	if !ok {
		return nil, &rowcursor.TypeError{Path: nil, Msg: "isLong: cursor does not implement rowcursor.Cursor"}
	}
	cell, err := c.Attribute("durationAttr")
	if err != nil {
		return nil, err
	}
	if cell.IsNull() || cell.IsFailedJoin() {
		return false, nil
	}
	minutes, ok := cell.Value().(int64)
	if !ok {
		if i32, ok := cell.Value().(int32); ok {
			minutes = int64(i32)
		} else {
			return nil, &rowcursor.TypeError{Path: c.Path(), Msg: "isLong: durationAttr is not an integer"}
		}
	}
	return minutes >= longMovieMinutes, nil
}
