package logsvc

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/user"
)

func newTestLogger(debug bool) (*RollbarLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "", 0), &core.Config{Env: "TEST", Debug: debug})
	logger.Enable(false)
	return logger, &buf
}

func TestRollbarLogger_print(t *testing.T) {
	logger, buf := newTestLogger(false)

	logger.Warn("row skipped", map[string]interface{}{"row": 3, "class": "10a"}, user.User{ID: 7, Username: "john.doe"})
	assert.Equal(t, "[WARN] row skipped class=10a row=3 user=7(john.doe)\n", buf.String())

	buf.Reset()
	logger.Error("boom", errors.New("disk full"))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "[ERROR] boom", lines[0])
	assert.Equal(t, "disk full", lines[1])
	assert.Greater(t, len(lines), 2, "errors are printed with their stack trace")
}

func TestRollbarLogger_Debug(t *testing.T) {
	logger, buf := newTestLogger(false)
	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger, buf = newTestLogger(true)
	logger.Debug("shown")
	assert.Equal(t, "[DEBUG] shown\n", buf.String())
}
