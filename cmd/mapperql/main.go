// Command mapperql is the CLI/benchmark harness around the core query
// engine (serve/plan/bench), kept thin and effectful at the edges the way
// cmd/goinmonster's own main.go stays a dispatcher over the generator
// package, restructured here onto cobra subcommands in the style of
// mvp-joe-project-cortex's internal/cli.
package main

func main() {
	Execute()
}
