// Package main is the entry point for the typekit CLI.
package main

func main() {
	Execute()
}
