package graph

import (
	"strconv"
	"time"
)

// stringArg reads a required string argument; non-null args are guaranteed by
// the engine, so a missing value simply yields "".
func stringArg(args map[string]interface{}, name string) string {
	val, _ := args[name].(string)
	return val
}

// optionalStringArg reads a nullable string argument.
func optionalStringArg(args map[string]interface{}, name string) *string {
	val, ok := args[name].(string)
	if !ok {
		return nil
	}
	return &val
}

// epochMillis renders timestamps the way the wire contract demands: string
// encoded epoch milliseconds, not a natural-language date.
func epochMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
