package blobstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/quote-uploads/1-ab-a.jpg",
		JoinURL("https://cdn.example.com/", "quote-uploads/1-ab-a.jpg"))
	assert.Equal(t, "http://localhost:8080/uploads/k/a%20b.jpg",
		JoinURL("http://localhost:8080/uploads", "k/a b.jpg"))
}
