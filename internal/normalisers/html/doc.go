// Package html provides a Normaliser for published HTML decisions.
// It strips markup, scripts and styles and keeps block structure as lines.
package html
