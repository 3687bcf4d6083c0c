// Package domain holds the types, sentinel errors, and constants shared by the
// session layer and its collaborators. It has no dependencies outside the
// standard library.
package domain
