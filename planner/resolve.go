package planner

import "strings"

func pathKey(hops []string) string { return strings.Join(hops, ".") }
