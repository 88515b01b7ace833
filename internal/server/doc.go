// Package server assembles the gin engines and runs the public and admin
// HTTP listeners.
//
// The public engine registers no gin routes. Every request reaches the
// pipeline through NoRoute so that route matching stays in one place.
package server
