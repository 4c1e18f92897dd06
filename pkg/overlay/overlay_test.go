package overlay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webConfig = "<?xml version=\"1.0\" encoding=\"utf-8\"?>\r\n" +
	"<configuration>\r\n" +
	"  <!-- settings read by the hosted app -->\r\n" +
	"  <appSettings>\r\n" +
	"    <add key=\"Key1\" value=\"Old\" />\r\n" +
	"    <add key=\"Key2\"   value='Other'/>\r\n" +
	"  </appSettings>\r\n" +
	"  <title>Original</title>\r\n" +
	"</configuration>\r\n"

const key1 = "/configuration/appSettings/add[@key='Key1']"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "web.config")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "web.config")

	o, err := Load(path)
	require.NoError(t, err)
	assert.False(t, o.Exists())
	assert.Nil(t, o.Original())

	require.NoError(t, o.SetAttribute(key1, "value", "New"))
	require.NoError(t, o.SetText("/configuration/title", "x"))
	assert.False(t, o.Dirty())

	require.NoError(t, o.Restore())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "restore must not create the file")
}

func TestLoad_Directory(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestSetAttribute_RoundTrip(t *testing.T) {
	path := writeConfig(t, webConfig)

	o, err := Load(path)
	require.NoError(t, err)
	require.True(t, o.Exists())

	require.NoError(t, o.SetAttribute(key1, "value", "New"))
	assert.True(t, o.Dirty())

	edited := readFile(t, path)
	assert.Contains(t, edited, `value="New"`)
	assert.NotContains(t, edited, `value="Old"`)
	assert.Contains(t, edited, "Other", "other settings survive the edit")

	require.NoError(t, o.Restore())
	assert.False(t, o.Dirty())
	assert.Equal(t, webConfig, readFile(t, path))
}

func TestSetAttribute_EditsAccumulate(t *testing.T) {
	path := writeConfig(t, webConfig)
	o, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, o.SetAttribute(key1, "value", "A"))
	require.NoError(t, o.SetAttribute("/configuration/appSettings/add[@key='Key2']", "value", "B"))

	edited := readFile(t, path)
	assert.Contains(t, edited, `value="A"`)
	assert.Contains(t, edited, `value="B"`)

	require.NoError(t, o.Restore())
	assert.Equal(t, webConfig, readFile(t, path))
}

func TestSetAttribute_NoMatch(t *testing.T) {
	tests := []struct {
		name      string
		locator   string
		attribute string
	}{
		{"missing node", "/configuration/appSettings/add[@key='Nope']", "value"},
		{"missing attribute", key1, "other"},
		{"wrong root", "/settings/add", "value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, webConfig)
			o, err := Load(path)
			require.NoError(t, err)

			require.NoError(t, o.SetAttribute(tt.locator, tt.attribute, "New"))
			assert.False(t, o.Dirty())
			assert.Equal(t, webConfig, readFile(t, path))
		})
	}
}

func TestSetText(t *testing.T) {
	path := writeConfig(t, webConfig)
	o, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, o.SetText("/configuration/title", "Changed"))
	assert.True(t, o.Dirty())
	assert.Contains(t, readFile(t, path), "<title>Changed</title>")

	require.NoError(t, o.Restore())
	assert.Equal(t, webConfig, readFile(t, path))
}

func TestSetAttribute_InvalidLocator(t *testing.T) {
	path := writeConfig(t, webConfig)
	o, err := Load(path)
	require.NoError(t, err)

	err = o.SetAttribute("/configuration/add[@key='Key1'", "value", "New")
	assert.ErrorIs(t, err, ErrInvalidLocator)
	assert.False(t, o.Dirty())
}

func TestSetAttribute_MalformedDocument(t *testing.T) {
	path := writeConfig(t, "<configuration><<</configuration>")
	o, err := Load(path)
	require.NoError(t, err)

	assert.Error(t, o.SetAttribute(key1, "value", "New"))
	assert.False(t, o.Dirty())
}

func TestRestore_OnlyWhenDirty(t *testing.T) {
	path := writeConfig(t, webConfig)
	o, err := Load(path)
	require.NoError(t, err)

	// An external change that the overlay did not make is left alone.
	require.NoError(t, os.WriteFile(path, []byte("<configuration/>"), 0o644))
	require.NoError(t, o.Restore())
	assert.Equal(t, "<configuration/>", readFile(t, path))
}

func TestOriginal_IsCopy(t *testing.T) {
	path := writeConfig(t, webConfig)
	o, err := Load(path)
	require.NoError(t, err)

	snap := o.Original()
	snap[0] = 'X'
	assert.Equal(t, webConfig, string(o.Original()))
}
