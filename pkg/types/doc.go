// Package types holds the interfaces shared across confset packages.
//
// It deliberately stays dependency-free so that every other package can
// import it without cycles.
package types
