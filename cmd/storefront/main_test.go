package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jrsteele09/go-storefront-client/storefront/fakeapi"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func TestDemo(t *testing.T) {
	t.Setenv("SESSION_BACKEND", "memory")
	t.Setenv("LOG_LEVEL", "error")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"demo"}, &stdout, &stderr))

	out := stdout.String()
	require.Contains(t, out, "Please log in to continue")
	require.Contains(t, out, "Premium Coffee")
	require.Contains(t, out, "Added by: admin")
	require.Contains(t, out, "Refresh calls: 1")
	require.Contains(t, out, "Premium Coffee  $12.99 x 2")
	require.Contains(t, out, "Total: $34.48")
	require.Contains(t, out, "Error: You can only delete your own products")
	require.Contains(t, out, "Checkout functionality would be implemented here!")
}

func TestCommandsAgainstBackend(t *testing.T) {
	api := fakeapi.New()
	server := api.Start()
	t.Cleanup(server.Close)
	api.SeedProduct(fakeapi.AdminUsername, "Premium Coffee", "", 12.99)

	t.Setenv("BASE_URL", server.URL)
	t.Setenv("SESSION_BACKEND", "file")
	t.Setenv("SESSION_FILE", filepath.Join(t.TempDir(), "session.json"))
	t.Setenv("LOG_LEVEL", "error")

	exec := func(args ...string) (string, error) {
		var stdout, stderr bytes.Buffer
		err := run(args, &stdout, &stderr)
		return stdout.String(), err
	}

	out, err := exec("cart", "add", "1")
	require.Error(t, err)
	require.Contains(t, out, "Please log in to continue")
	require.Equal(t, 0, api.Calls("POST /api/cart"))

	out, err = exec("login", "-u", fakeapi.TestUsername, "-p", "wrong")
	require.Error(t, err)
	require.Contains(t, out, "Error: Invalid username or password")

	_, err = exec("login", "-u", fakeapi.TestUsername, "-p", fakeapi.TestPassword)
	require.NoError(t, err)

	// each command is a new process in real use; the file store carries the session
	out, err = exec("status")
	require.NoError(t, err)
	require.Contains(t, out, "Session: authenticated (file)")

	out, err = exec("whoami")
	require.NoError(t, err)
	require.Contains(t, out, "(user)")

	_, err = exec("cart", "add", "1", "-q", "2")
	require.NoError(t, err)
	out, err = exec("cart")
	require.NoError(t, err)
	require.Contains(t, out, "Premium Coffee  $12.99 x 2")

	_, err = exec("products", "add", "-n", "Tea", "-p", "2")
	require.Error(t, err, "only admins can add products")

	_, err = exec("logout")
	require.NoError(t, err)
	out, err = exec("status")
	require.NoError(t, err)
	require.Contains(t, out, "Session: anonymous")
}

func TestUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, run(nil, &stdout, &stderr))
	require.Contains(t, stdout.String(), "Usage: storefront <command>")

	stdout.Reset()
	stderr.Reset()
	require.Error(t, run([]string{"teleport"}, &stdout, &stderr))
	require.Contains(t, stderr.String(), `unknown command "teleport"`)
}

func TestBadArguments(t *testing.T) {
	t.Setenv("SESSION_BACKEND", "memory")
	t.Setenv("LOG_LEVEL", "error")

	var stdout, stderr bytes.Buffer
	require.Error(t, run([]string{"cart", "remove", "abc"}, &stdout, &stderr))
	require.Contains(t, stdout.String(), `invalid cart item id "abc"`)
}

func TestHomeShowsProductsWhenSessionIsLost(t *testing.T) {
	api := fakeapi.New()
	server := api.Start()
	t.Cleanup(server.Close)
	api.SeedProduct(fakeapi.AdminUsername, "Premium Coffee", "", 12.99)

	t.Setenv("BASE_URL", server.URL)
	t.Setenv("SESSION_BACKEND", "file")
	t.Setenv("SESSION_FILE", filepath.Join(t.TempDir(), "session.json"))
	t.Setenv("LOG_LEVEL", "error")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"login", "-u", fakeapi.TestUsername, "-p", fakeapi.TestPassword}, &stdout, &stderr))

	api.ExpireAccessTokens()
	api.RejectRefresh(true)

	stdout.Reset()
	err := run([]string{"home"}, &stdout, &stderr)
	require.Error(t, err)
	require.Contains(t, stdout.String(), "Premium Coffee")
	require.Contains(t, stdout.String(), "Please log in to continue")
}
