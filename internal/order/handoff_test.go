package order

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLink(t *testing.T) {
	assert.Equal(t, "https://wa.me/5493364188464?text=abc%20def", Link("5493364188464", "abc%20def"))
}

func TestContactLink(t *testing.T) {
	link := ContactLink("5493364188464")

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "wa.me", u.Host)
	assert.Equal(t, "/5493364188464", u.Path)
	assert.Equal(t, ContactGreeting, u.Query().Get("text"))
}
