// Package main provides the entry point for the pydistro CLI.
//
// pydistro scrapes DistroWatch and reports which Python 3 micro-version each
// Linux distribution release ships, one CSV file per Python minor version.
//
// Usage:
//
//	pydistro            scrape and print the summary
//	pydistro report     print the summary of the last scrape
//	pydistro history    list archived runs
//
// See --help for all available options.
package main

func main() {
	Execute()
}
