// Package normalisers turns case files into documents ready for chunking.
// Each subpackage handles one file format; Registry picks the normaliser
// for a file's MIME type.
package normalisers
