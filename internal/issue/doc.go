// Package issue looks up GitHub issues through the gh CLI and derives
// branch names from their titles.
package issue
