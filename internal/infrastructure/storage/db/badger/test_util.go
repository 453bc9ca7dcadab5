package dbbadger

import (
	"testing"

	"github.com/postmix/forwardd/internal/core/ports"
)

func newTestRepoManager(t *testing.T) ports.RepoManager {
	t.Helper()

	repoManager, err := NewRepoManager(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(repoManager.Close)
	return repoManager
}
