package zerologadapter_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	zerologadapter "github.com/jassus213/affilify-gate/adapters/zerolog"
)

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf).Level(zerolog.InfoLevel)
	l := zerologadapter.New(&base)

	l.Debugf("hidden")
	l.Warnf("failing open for %s", "rate_limit:auth:1.2.3.4")
	l.Errorf("boom")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "warn", first["level"])
	assert.Equal(t, "admission", first["component"])
	assert.Equal(t, "failing open for rate_limit:auth:1.2.3.4", first["message"])
	assert.Contains(t, lines[1], `"level":"error"`)
}
