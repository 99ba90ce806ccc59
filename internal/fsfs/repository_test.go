package fsfs_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xiaozhiob/subversion/internal/fs"
	"github.com/xiaozhiob/subversion/internal/fsfs"
)

func writeControlFiles(t *testing.T, m *fs.MemoryFS, format, current string) {
	t.Helper()
	require.NoError(t, m.MkdirAll("repo/db/revs", 0o755))
	require.NoError(t, m.WriteFile("repo/db/format", []byte(format), 0o644))
	require.NoError(t, m.WriteFile("repo/db/current", []byte(current), 0o644))
}

func TestOpenLinearPhysical(t *testing.T) {
	m := fs.NewMemoryFS()
	writeControlFiles(t, m, "5\nlayout linear\n", "42\n")

	repo, err := fsfs.Open(m, "repo")
	require.NoError(t, err)
	require.Equal(t, 5, repo.Format)
	require.EqualValues(t, 0, repo.ShardSize)
	require.False(t, repo.Logical)
	require.EqualValues(t, 42, repo.Youngest)
	require.EqualValues(t, 64*1024, repo.BlockSize)
}

func TestOpenShardedLogical(t *testing.T) {
	m := fs.NewMemoryFS()
	writeControlFiles(t, m, "7\nlayout sharded 1000\naddressing logical\n", "1500\n")
	require.NoError(t, m.WriteFile("repo/db/min-unpacked-rev", []byte("1000\n"), 0o644))

	repo, err := fsfs.Open(m, "repo")
	require.NoError(t, err)
	require.EqualValues(t, 1000, repo.ShardSize)
	require.True(t, repo.Logical)
	require.EqualValues(t, 1000, repo.MinUnpacked)
	require.True(t, repo.Packed(999))
	require.False(t, repo.Packed(1000))
	require.EqualValues(t, 0, repo.Shard(999))
	require.EqualValues(t, 1, repo.Shard(1000))
}

func TestOpenReadsBlockSizeFromConf(t *testing.T) {
	m := fs.NewMemoryFS()
	writeControlFiles(t, m, "5\nlayout linear\n", "0\n")
	require.NoError(t, m.WriteFile("repo/db/fsfs.conf", []byte("[io]\nblock-size = 128\n"), 0o644))

	repo, err := fsfs.Open(m, "repo")
	require.NoError(t, err)
	require.EqualValues(t, 128*1024, repo.BlockSize)
}

func TestOpenCorruptControlFiles(t *testing.T) {
	for name, files := range map[string]map[string]string{
		"bad format number": {
			"repo/db/format":  "five\n",
			"repo/db/current": "0\n",
		},
		"bad layout": {
			"repo/db/format":  "5\nlayout sharded nope\n",
			"repo/db/current": "0\n",
		},
		"bad addressing": {
			"repo/db/format":  "7\nlayout linear\naddressing quantum\n",
			"repo/db/current": "0\n",
		},
		"bad current": {
			"repo/db/format":  "5\nlayout linear\n",
			"repo/db/current": "-3\n",
		},
	} {
		t.Run(name, func(t *testing.T) {
			m := fs.NewMemoryFS()
			require.NoError(t, m.MkdirAll("repo/db", 0o755))
			for p, content := range files {
				require.NoError(t, m.WriteFile(p, []byte(content), 0o644))
			}
			_, err := fsfs.Open(m, "repo")
			require.ErrorIs(t, err, fsfs.ErrCorrupt)
		})
	}
}
