// Package main provides the entry point for the reviewscan CLI.
//
// reviewscan extracts customer reviews from product pages and labels
// each one FAKE or GENUINE with a pretrained text classifier.
//
// Usage:
//
//	reviewscan analyze <url|file|-> ...
//	reviewscan serve --addr :5000
//	reviewscan history [source]
//
// See --help for all available options.
package main

// main is the entry point for reviewscan.
func main() {
	Execute()
}
