package util_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/artefactual-labs/scope-services/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringListContains(t *testing.T) {
	list := []string{"apple", "banana", "cherry"}
	assert.True(t, util.StringListContains(list, "banana"))
	assert.False(t, util.StringListContains(list, "kumquat"))
	assert.False(t, util.StringListContains(nil, "banana"))
}

func TestFileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exists.txt")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0644))
	assert.True(t, util.FileExists(path))
	assert.False(t, util.FileExists(path+".nope"))
}

func TestExpandTilde(t *testing.T) {
	expanded, err := util.ExpandTilde("~/tmp")
	require.NoError(t, err)
	assert.True(t, len(expanded) > len("/tmp"))
	assert.True(t, filepath.IsAbs(expanded))

	expanded, err = util.ExpandTilde("/var/lib/data")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/data", expanded)
}

func TestLooksSafeToDelete(t *testing.T) {
	assert.True(t, util.LooksSafeToDelete("/mnt/dips/workdir/54321", 12, 3))
	assert.False(t, util.LooksSafeToDelete("/usr", 12, 3))
	assert.False(t, util.LooksSafeToDelete("/mnt/dips", 12, 3))
}

func TestUUIDSuffix(t *testing.T) {
	dirName := "transfer-8c2c0a39-1a31-4db8-bc5c-8beab6276897"
	assert.Equal(t, "8c2c0a39-1a31-4db8-bc5c-8beab6276897", util.UUIDSuffix(dirName))
	assert.Equal(t, "", util.UUIDSuffix("short"))
}
