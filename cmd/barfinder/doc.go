// Package main hosts the barfinder CLI entrypoint and command graph.
//
// The Cobra command tree wires configuration, logging and the store around
// the internal packages: "match" runs the battle finder over the observation
// document, "export" builds the frontend data file, and the "db", "show" and
// "config" commands cover schema setup, inspection and scaffolding.
//
// Keep this package lean: behaviour belongs in internal packages, commands
// only resolve inputs and render results.
package main
