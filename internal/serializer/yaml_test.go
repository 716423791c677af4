package serializer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// Files written by the serializer must stay readable by general YAML tools.
func TestYAMLCompat_SavedFileParses(t *testing.T) {
	mem := NewMemStorage()
	in := []record{{Value: 1, Name: "a"}, {Value: 2, Name: "b: c"}}
	special := "Line\nBreak\tTab\\Backslash\"Quote"
	basic := basicData{Int: 42, Float: 3.14, String: "hello", Bool: true}

	require.NoError(t, Save(statePath, "basic_data", basic.serialize, WithStorage(mem)))
	require.NoError(t, Save(statePath, "unordered_map", recordList(&in), WithStorage(mem)))
	require.NoError(t, Save(statePath, "strings", func(d *Document) {
		d.Entry("special_string", &special).Entry("tags", []string{"x", "y"})
	}, WithStorage(mem)))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(readMem(t, mem)), &doc))

	assert.Equal(t, map[string]any{
		"test_int":    42,
		"test_float":  3.14,
		"test_string": "hello",
		"test_bool":   true,
	}, doc["basic_data"])

	assert.Equal(t, map[string]any{
		"mapping": []any{
			map[string]any{"value": 1, "name": "a"},
			map[string]any{"value": 2, "name": "b: c"},
		},
	}, doc["unordered_map"])

	strs := doc["strings"].(map[string]any)
	assert.Equal(t, special, strs["special_string"])
	assert.Equal(t, []any{"x", "y"}, strs["tags"])
}

// Block YAML written with two-space indentation loads through a Document.
func TestYAMLCompat_EncoderOutputLoads(t *testing.T) {
	src := map[string]any{
		"window": map[string]any{
			"width": 1280,
			"title": "main",
			"tags":  []string{"left", "pinned"},
			"panels": []map[string]any{
				{"name": "files", "visible": true},
				{"name": "output", "visible": false},
			},
		},
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	require.NoError(t, enc.Encode(src))
	require.NoError(t, enc.Close())

	mem := NewMemStorage()
	require.NoError(t, mem.WriteFile(statePath, buf.Bytes()))

	type panelState struct {
		Name    string
		Visible bool
	}
	var (
		width  int
		title  string
		tags   []string
		panels []panelState
	)
	require.NoError(t, Load(statePath, "window", func(d *Document) {
		d.Entry("width", &width).
			Entry("title", &title).
			Entry("tags", &tags).
			List("panels", &panels, func(d *Document, i int) {
				d.Entry("name", &panels[i].Name).Entry("visible", &panels[i].Visible)
			})
	}, WithStorage(mem)))

	assert.Equal(t, 1280, width)
	assert.Equal(t, "main", title)
	assert.Equal(t, []string{"left", "pinned"}, tags)
	assert.Equal(t, []panelState{{"files", true}, {"output", false}}, panels)
}
