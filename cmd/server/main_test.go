package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Keeps the server package in `go test ./...`, so a broken main.go fails CI.
func TestVersionDefaultsToDev(t *testing.T) {
	assert.Equal(t, "dev", version)
}
