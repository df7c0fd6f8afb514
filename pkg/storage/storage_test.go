package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDisk(dir, "/uploads")
	require.NoError(t, err)

	ctx := context.Background()
	location, err := store.Save(ctx, "ada_lovelace_1.png", strings.NewReader("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/ada_lovelace_1.png", location)

	content, err := os.ReadFile(filepath.Join(dir, "ada_lovelace_1.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(content))

	require.NoError(t, store.Delete(ctx, location))
	_, err = os.Stat(filepath.Join(dir, "ada_lovelace_1.png"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx, location), "deleting twice is not an error")
}

func TestDiskSaveStaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDisk(dir, "/uploads")
	require.NoError(t, err)

	location, err := store.Save(context.Background(), "../../escape.png", strings.NewReader("x"), "")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/escape.png", location)
	assert.FileExists(t, filepath.Join(dir, "escape.png"))
}

func TestDiskSaveRefusesOverwrite(t *testing.T) {
	store, err := NewDisk(t.TempDir(), "/uploads")
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "same.png", strings.NewReader("a"), "")
	require.NoError(t, err)
	_, err = store.Save(context.Background(), "same.png", strings.NewReader("b"), "")
	assert.Error(t, err)
}

func TestDiskDeleteRejectsForeignLocation(t *testing.T) {
	store, err := NewDisk(t.TempDir(), "/uploads")
	require.NoError(t, err)

	assert.ErrorIs(t, store.Delete(context.Background(), "https://bucket.s3.amazonaws.com/a.png"), ErrInvalidLocation)
}

func TestKeyFromLocation(t *testing.T) {
	assert.Equal(t, "ada_1.png", keyFromLocation("https://bucket.s3.eu-west-1.amazonaws.com/ada_1.png"))
	assert.Equal(t, "faces/ada%201.png", keyFromLocation("https://s3.local/faces/ada%201.png"))
	assert.Equal(t, "plain-key.png", keyFromLocation("plain-key.png"))
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New("ftp", t.TempDir())
	assert.Error(t, err)
}
