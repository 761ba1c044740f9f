// Package main is the memorychat CLI entry point.
package main

import "github.com/joho/godotenv"

func main() {
	// A .env in the working directory is optional.
	_ = godotenv.Load()
	Execute()
}
