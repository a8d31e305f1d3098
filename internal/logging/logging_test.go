package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerbosity(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, 0)
	log.Info("visible", "rows", 3)
	log.V(1).Info("hidden")
	assert.Contains(t, buf.String(), "msg=visible rows=3")
	assert.NotContains(t, buf.String(), "hidden")

	buf.Reset()
	log = New(&buf, 1)
	log.V(1).Info("detail")
	assert.Contains(t, buf.String(), "msg=detail")
}
