package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalidNetIDPage_EscapesNetID(t *testing.T) {
	page := InvalidNetIDPage(`<script>alert(1)</script>`)
	assert.NotContains(t, page, "<script>alert(1)</script>")
	assert.Contains(t, page, "&lt;script&gt;")
}

func TestPages_ContainSupportContact(t *testing.T) {
	for name, page := range map[string]string{
		"invalid netid": InvalidNetIDPage("x"),
		"error":         ErrorPage(),
	} {
		assert.Contains(t, page, "huskytest@uw.edu", name)
		assert.Contains(t, page, "(206) 616-2414", name)
	}
}

func TestNotFoundPage_LinksHome(t *testing.T) {
	assert.Contains(t, NotFoundPage(), `href="/"`)
}
