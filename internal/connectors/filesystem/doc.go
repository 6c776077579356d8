// Package filesystem loads case files from local paths and watches them
// for changes.
package filesystem
