package identity

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestImportConnectedLog(t *testing.T) {
	log := "Player Connected Alice NetID(76561198000000001_+_|aabbcc) (1/3/2,026 18:05)\n" +
		"Player Disconnected Alice NetID(76561198000000001_+_|aabbcc)\n" +
		"Player Connected AliceRenamed NetID(76561198000000001_+_|aabbcc) (2/3/2,026 09:12)\n" +
		"Player Connected Bob NetID(76561198000000002_+_|ddeeff) (2/3/2,026 10:00)\n" +
		"some unrelated noise\n"

	r := NewResolver(testStore(t))
	n, err := r.ImportConnectedLog(writeFile(t, "PlayerConnectedLog.txt", log))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// The later line for the same steam id wins
	name, ok := r.Name("76561198000000001")
	assert.True(t, ok)
	assert.Equal(t, "AliceRenamed", name)

	id, ok := r.SteamID("Bob")
	assert.True(t, ok)
	assert.Equal(t, "76561198000000002", id)
}

func TestImportConnectedLogMissingFile(t *testing.T) {
	r := NewResolver(testStore(t))

	n, err := r.ImportConnectedLog(filepath.Join(t.TempDir(), "missing.txt"))
	require.NoError(t, err, "a missing log is a normal condition")
	assert.Zero(t, n)
}

func TestImportMappedFile(t *testing.T) {
	mapped := "76561198000000001_+_|aabbcc@Alice\n" +
		"76561198000000002_+_|ddeeff@name with spaces\n" +
		"garbage line without separator\n" +
		"notdigits_+_|xx@Broken\n" +
		"76561198000000003_+_|001122@\n"

	r := NewResolver(testStore(t))
	n, err := r.ImportMappedFile(writeFile(t, "PlayerIDMapped.txt", mapped))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	name, ok := r.Name("76561198000000002")
	assert.True(t, ok)
	assert.Equal(t, "name with spaces", name)

	_, ok = r.Name("76561198000000003")
	assert.False(t, ok, "rows without a name are skipped")
}

func TestRecentConnects(t *testing.T) {
	log := "Player Connected Alice NetID(76561198000000001_+_|aabbcc) (1/3/2,026 18:05)\n" +
		"Player Connected Bob NetID(76561198000000002_+_|ddeeff) (28/2/2,026 23:59)\n" +
		"Player Connected Alice NetID(76561198000000001_+_|aabbcc) (2/3/2,026 09:12)\n" +
		"Player Disconnected Alice NetID(76561198000000001_+_|aabbcc)\n"

	path := writeFile(t, "PlayerConnectedLog.txt", log)

	result := RecentConnects(path, []string{"Alice", "Bob", "Nobody"})
	require.Len(t, result, 2)

	// The most recent Connected row wins, with the "2,026" year normalized
	assert.Equal(t,
		time.Date(2026, time.March, 2, 9, 12, 0, 0, time.Local),
		result["Alice"])
	assert.Equal(t,
		time.Date(2026, time.February, 28, 23, 59, 0, 0, time.Local),
		result["Bob"])

	assert.NotContains(t, result, "Nobody")
}

func TestRecentConnectsNoNames(t *testing.T) {
	assert.Nil(t, RecentConnects("whatever", nil))
}
