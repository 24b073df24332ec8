package inject

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpaops/filterrelay/pkg/browser/drivertest"
)

func TestNotifierShowPassesMessageAndColor(t *testing.T) {
	driver := drivertest.New()
	n := NewNotifier(driver, testLogger(t))

	n.Show("bounds relayed", SeveritySuccess)
	n.Show("nothing to apply", SeverityError)

	require.Len(t, driver.Evals, 2)
	assert.True(t, strings.Contains(driver.Evals[0].JS, "setTimeout"))
	assert.Equal(t, []interface{}{"bounds relayed", "#27ae60"}, driver.Evals[0].Args)
	assert.Equal(t, []interface{}{"nothing to apply", "#e74c3c"}, driver.Evals[1].Args)
}
