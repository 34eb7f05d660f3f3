// Package main provides the entry point for the VigiCrawl CLI.
//
// VigiCrawl crawls public websites with a rendered browser, classifies
// the discovered pages and selects a representative sample for
// accessibility and compliance auditing.
//
// Usage:
//
//	vigicrawl serve
//	vigicrawl crawl https://www.example.fr
//
// See --help for all available options.
package main

// main is the entry point for VigiCrawl.
func main() {
	Execute()
}
