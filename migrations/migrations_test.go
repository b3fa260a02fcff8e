package migrations

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	src, err := Source()
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	t.Run("up creates every table", func(t *testing.T) {
		r, _, err := src.ReadUp(first)
		require.NoError(t, err)
		defer r.Close()
		body, err := io.ReadAll(r)
		require.NoError(t, err)

		for _, table := range []string{"profiles", "jobs", "applications", "proxy_emails", "transactions", "email_forwards"} {
			assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS "+table)
		}
	})

	t.Run("constraint names match repository error mapping", func(t *testing.T) {
		r, _, err := src.ReadUp(first)
		require.NoError(t, err)
		defer r.Close()
		body, err := io.ReadAll(r)
		require.NoError(t, err)

		assert.Contains(t, string(body), "proxy_emails_proxy_address_key")
		assert.Contains(t, string(body), "proxy_emails_application_id_key")
		assert.Contains(t, string(body), "UNIQUE (job_id, job_seeker_id)")
		assert.Contains(t, string(body), "CHECK (token_balance >= 0)")
	})

	t.Run("down drops every table", func(t *testing.T) {
		r, _, err := src.ReadDown(first)
		require.NoError(t, err)
		defer r.Close()
		body, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, 6, strings.Count(string(body), "DROP TABLE IF EXISTS"))
	})
}
