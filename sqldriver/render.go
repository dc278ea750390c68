package sqldriver

import (
	"strings"

	"github.com/eddieafk/mapperql/sqlfrag"
)

// Render rewrites f's placeholder-agnostic `?` markers into d's bind syntax
// and encodes each bound value via its Encoder, returning the final SQL
// text and the ordered argument list ready for database/sql.
func Render(d Dialect, f sqlfrag.Fragment) (string, []any, error) {
	var sb strings.Builder
	args := make([]any, 0, len(f.Binds))

	bindIdx := 0
	for i := 0; i < len(f.Text); i++ {
		if f.Text[i] != '?' {
			sb.WriteByte(f.Text[i])
			continue
		}
		b := f.Binds[bindIdx]
		bindIdx++
		sb.WriteString(d.Placeholder(bindIdx))

		v, err := b.Encoder.Encode(b.Value)
		if err != nil {
			return "", nil, &DriverError{Op: "encode bind value", Err: err}
		}
		args = append(args, v)
	}

	return sb.String(), args, nil
}
