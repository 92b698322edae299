package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var maritalStatus = StatusMapping{
	"1": {Text: "Belum Menikah", Color: "blue"},
	"2": {Text: "Menikah", Color: "green"},
	"3": {Text: "Duda/Janda", Color: "orange"},
}

func TestResolveStatusCoercesNumbers(t *testing.T) {
	assert.Equal(t, "Menikah", ResolveStatus(maritalStatus, 2).Text)
	assert.Equal(t, "Menikah", ResolveStatus(maritalStatus, "2").Text)
	assert.Equal(t, "Menikah", ResolveStatus(maritalStatus, float64(2)).Text)
	assert.Equal(t, "Menikah", ResolveStatus(maritalStatus, int64(2)).Text)
}

func TestResolveStatusBooleans(t *testing.T) {
	active := StatusMapping{
		"true":  {Text: "Aktif", Color: "green"},
		"false": {Text: "Nonaktif", Color: "red"},
	}
	assert.Equal(t, "Aktif", ResolveStatus(active, true).Text)
	assert.Equal(t, "Nonaktif", ResolveStatus(active, false).Text)
	assert.Equal(t, "Aktif", ResolveStatus(active, "true").Text)
}

func TestResolveStatusFallback(t *testing.T) {
	got := ResolveStatus(maritalStatus, 99)
	assert.Equal(t, FallbackBadge, got)

	custom := Badge{Text: "?", Color: "purple"}
	assert.Equal(t, custom, ResolveStatus(maritalStatus, "x", custom))

	// nil mapping never panics
	assert.Equal(t, FallbackBadge, ResolveStatus(nil, 1))
	assert.Equal(t, FallbackBadge, ResolveStatus(maritalStatus, nil))
}
