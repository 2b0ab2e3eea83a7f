// Package main is the entry point for the scholarnav command.
//
// scholarnav searches Google Scholar for authors, publications and
// organizations and prints the parsed records as text, JSON or Markdown.
// Requests can be routed directly, through rotating free proxies, through
// Tor or through a third-party unblocking API.
package main

func main() {
	Execute()
}
