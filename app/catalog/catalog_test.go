package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/random-theme/app/enum"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.Len(t, c.Light, 17)
	assert.Len(t, c.Dark, 44)
	assert.Equal(t, Theme{Name: "Arc - Orange", ID: "com.formdev.flatlaf.intellijthemes.FlatArcOrangeIJTheme"}, c.Light[0])
	assert.Equal(t, Theme{Name: "Vuesion", ID: "com.formdev.flatlaf.intellijthemes.FlatVuesionIJTheme"}, c.Dark[len(c.Dark)-1])
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{name: "valid", data: "light:\n  - {name: A, id: a}\ndark:\n  - {name: B, id: b}\n"},
		{name: "empty document", data: "", wantErr: "empty catalog"},
		{name: "broken yaml", data: "light: [", wantErr: "failed to decode catalog"},
		{name: "unknown field", data: "light:\n  - {name: A, id: a}\ndark:\n  - {name: B, id: b}\nextra: 1\n",
			wantErr: "failed to decode catalog"},
		{name: "empty light", data: "dark:\n  - {name: B, id: b}\n", wantErr: "light group is empty"},
		{name: "empty dark", data: "light:\n  - {name: A, id: a}\n", wantErr: "dark group is empty"},
		{name: "cross-group id collision", data: "light:\n  - {name: A, id: x}\ndark:\n  - {name: B, id: x}\n",
			wantErr: `duplicate theme id "x" in light and dark groups`},
		{name: "duplicate name", data: "light:\n  - {name: A, id: a}\ndark:\n  - {name: A, id: b}\n",
			wantErr: `duplicate theme name "A"`},
		{name: "empty id", data: "light:\n  - {name: A, id: \"\"}\ndark:\n  - {name: B, id: b}\n",
			wantErr: "light theme #0 has empty id"},
		{name: "empty name", data: "light:\n  - {name: A, id: a}\ndark:\n  - {id: b}\n",
			wantErr: `dark theme "b" has empty name`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Load(strings.NewReader(tc.data))
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []Theme{{Name: "A", ID: "a"}}, c.Light)
			assert.Equal(t, []Theme{{Name: "B", ID: "b"}}, c.Dark)
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Run("loads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "themes.yml")
		require.NoError(t, os.WriteFile(path, []byte("light:\n  - {name: A, id: a}\ndark:\n  - {name: B, id: b}\n"), 0o600))
		c, err := LoadFile(path)
		require.NoError(t, err)
		assert.Len(t, c.PoolFor(enum.GroupAll), 2)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open catalog")
	})
}

func TestCatalog_PoolFor(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	light := c.PoolFor(enum.GroupLight)
	dark := c.PoolFor(enum.GroupDark)
	all := c.PoolFor(enum.GroupAll)

	assert.Equal(t, c.Light, light)
	assert.Equal(t, c.Dark, dark)
	require.Len(t, all, len(light)+len(dark))

	ids := make(map[string]int, len(all))
	for _, th := range all {
		ids[th.ID]++
	}
	assert.Len(t, ids, len(all), "no duplicates in combined pool")
	for _, th := range append(append([]Theme{}, light...), dark...) {
		assert.Equal(t, 1, ids[th.ID], th.ID)
	}

	t.Run("all pool is a copy", func(t *testing.T) {
		pool := c.PoolFor(enum.GroupAll)
		pool[0] = Theme{Name: "changed", ID: "changed"}
		assert.NotEqual(t, "changed", c.Light[0].ID)
	})
}

func TestCatalog_Find(t *testing.T) {
	c := &Catalog{Light: []Theme{{Name: "A", ID: "a"}}, Dark: []Theme{{Name: "B", ID: "b"}}}

	th, ok := c.Find("b")
	assert.True(t, ok)
	assert.Equal(t, Theme{Name: "B", ID: "b"}, th)

	_, ok = c.Find("zzz")
	assert.False(t, ok)

	_, ok = c.Find("")
	assert.False(t, ok)
}

func TestCatalog_GroupOf(t *testing.T) {
	c := &Catalog{Light: []Theme{{Name: "A", ID: "a"}}, Dark: []Theme{{Name: "B", ID: "b"}}}

	g, ok := c.GroupOf("a")
	assert.True(t, ok)
	assert.Equal(t, enum.GroupLight, g)

	g, ok = c.GroupOf("b")
	assert.True(t, ok)
	assert.Equal(t, enum.GroupDark, g)

	_, ok = c.GroupOf("zzz")
	assert.False(t, ok)
}
