// Package main is the entry point for the cleanreader service.
package main

func main() {
	Execute()
}
