package livereload

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func marshal(t *testing.T, e Event) string {
	t.Helper()
	b, err := json.Marshal(e)
	require.NoError(t, err)
	return string(b)
}

func TestStartEventShape(t *testing.T) {
	require.JSONEq(t, `{"type":"start"}`, marshal(t, Start()))
}

func TestNotifyEventShape(t *testing.T) {
	require.JSONEq(t,
		`{"type":"notify","message":"Site built.","error":false}`,
		marshal(t, Notify("Site built.", false)))
	require.JSONEq(t,
		`{"type":"notify","message":"Build failed.","error":true}`,
		marshal(t, Notify("Build failed.", true)))
}

func TestReloadEventShape(t *testing.T) {
	require.JSONEq(t, `{"type":"reload"}`, marshal(t, Reload("")))
	require.JSONEq(t,
		`{"type":"reload","href":"/blog/"}`,
		marshal(t, Reload("/blog/")))
}
