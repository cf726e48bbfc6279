// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageSize is the default number of rows in a paged list.
const PageSize = 50

// MaxPageSize caps ?limit=.
const MaxPageSize = 200

// ClampLimit maps a requested page size onto [1, MaxPageSize]. Zero or
// negative values fall back to PageSize.
func ClampLimit(n int) int {
	switch {
	case n <= 0:
		return PageSize
	case n > MaxPageSize:
		return MaxPageSize
	}
	return n
}

// ParseLimit reads the "limit" query parameter. Missing or unparsable
// values yield PageSize.
func ParseLimit(r *http.Request) int {
	s := query.Get(r, "limit")
	if s == "" {
		return PageSize
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return PageSize
	}
	return ClampLimit(n)
}

// Direction indicates the pagination direction.
type Direction int

const (
	Forward  Direction = iota // sort ascending, cursor is "$gt"
	Backward                  // sort descending, cursor is "$lt"
)

// CursorError reports a cursor parameter that is not a valid id.
type CursorError struct {
	Param string // "after" or "before"
}

func (e *CursorError) Error() string {
	return "invalid " + e.Param + " cursor"
}

// KeysetConfig describes one keyset page over _id.
type KeysetConfig struct {
	Direction Direction
	SortOrder int // 1 for ascending, -1 for descending
	Cursor    *primitive.ObjectID
	Limit     int
}

// ConfigureKeyset determines the direction and decodes the cursor. before
// takes precedence over after. A non-empty cursor that is not an ObjectID
// hex string yields a *CursorError.
func ConfigureKeyset(before, after string, limit int) (KeysetConfig, error) {
	cfg := KeysetConfig{
		Direction: Forward,
		SortOrder: 1,
		Limit:     ClampLimit(limit),
	}

	raw, param := after, "after"
	if before != "" {
		cfg.Direction = Backward
		cfg.SortOrder = -1
		raw, param = before, "before"
	}
	if raw == "" {
		return cfg, nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return cfg, &CursorError{Param: param}
	}
	cfg.Cursor = &id
	return cfg, nil
}

// LimitPlusOne is the fetch size: one extra row tells TrimPage whether
// another page exists.
func (cfg KeysetConfig) LimitPlusOne() int64 {
	return int64(ClampLimit(cfg.Limit) + 1)
}

// ApplyToFind sets the _id sort and the look-ahead limit.
func (cfg KeysetConfig) ApplyToFind(find *options.FindOptions) {
	find.SetSort(bson.D{{Key: "_id", Value: cfg.SortOrder}}).SetLimit(cfg.LimitPlusOne())
}

// KeysetWindow returns the _id condition for the query filter, or nil on
// the first page.
func (cfg KeysetConfig) KeysetWindow() bson.M {
	if cfg.Cursor == nil {
		return nil
	}
	op := "$gt"
	if cfg.Direction == Backward {
		op = "$lt"
	}
	return bson.M{"_id": bson.M{op: *cfg.Cursor}}
}

// Result holds the output of TrimPage.
type Result struct {
	HasPrev bool
	HasNext bool
}

// TrimPage trims rows fetched with LimitPlusOne and already restored to
// ascending order (see Reverse).
//
// Backward: an extra row means an older page exists; it is the first row
// and is dropped. HasNext is always true since we came from a later page.
//
// Forward: an extra row means a newer page exists; it is the last row and
// is dropped. HasPrev is true only when a cursor was given.
func TrimPage[T any](rows *[]T, cfg KeysetConfig) Result {
	size := ClampLimit(cfg.Limit)
	var res Result

	if cfg.Direction == Backward {
		if len(*rows) > size {
			*rows = (*rows)[len(*rows)-size:]
			res.HasPrev = true
		}
		res.HasNext = true
	} else {
		if len(*rows) > size {
			*rows = (*rows)[:size]
			res.HasNext = true
		}
		res.HasPrev = cfg.Cursor != nil
	}
	return res
}

// Reverse reverses a slice in place. Use it after fetching a backward page.
func Reverse[T any](rows []T) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}

// BuildCursors returns the previous/next cursors for a trimmed page. A
// cursor is empty when res says there is no page in that direction.
func BuildCursors[T any](rows []T, res Result, idFn func(T) primitive.ObjectID) (prev, next string) {
	if len(rows) == 0 {
		return "", ""
	}
	if res.HasPrev {
		prev = idFn(rows[0]).Hex()
	}
	if res.HasNext {
		next = idFn(rows[len(rows)-1]).Hex()
	}
	return prev, next
}
