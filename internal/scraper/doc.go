// Package scraper defines the core types and boundary interfaces shared by
// the lead-mining pipeline phases.
package scraper
