// Command crawld runs the admin API, applies the relational schema, or
// drives a one-shot foreground crawl, per SPEC_FULL.md's bootstrap section.
package main

func main() {
	Execute()
}
