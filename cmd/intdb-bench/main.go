// Package main provides the entry point for the intdb-bench CLI.
package main

import "github.com/lzhtan/intdb-bench/cmd"

func main() {
	cmd.Execute()
}
