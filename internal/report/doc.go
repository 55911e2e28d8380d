// Package report renders run results for humans: a console summary
// after each run and a markdown report for GitHub Actions step
// summaries.
package report
