package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"

	"github.com/dshills/scaffold/internal/config"
	"github.com/dshills/scaffold/internal/config/loader"
	"github.com/dshills/scaffold/internal/serializer"
)

func newInitCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration directory and missing state files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := c.manager(false)
			defer m.Close()

			if err := m.Init(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), m.Dir())
			return nil
		},
	}
}

func newSectionsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "sections <file>",
		Short: "List the sections of a state file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := config.ParseFile(args[0])
			if err != nil {
				return err
			}
			m := c.manager(false)
			defer m.Close()

			names, err := m.Sections(f)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newCheckCmd(c *cli) *cobra.Command {
	var override bool

	cmd := &cobra.Command{
		Use:   "check <file> <section> <key> [default]",
		Short: "Read a key, adding it with a default value when missing",
		Long: `check prints the stored value of key. When the key does not exist it
is added with the given default. With --override the default replaces the
stored value.`,
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := config.ParseFile(args[0])
			if err != nil {
				return err
			}
			var value string
			if len(args) == 4 {
				value = args[3]
			}

			m := c.manager(false)
			defer m.Close()

			found, err := m.Check(f, args[1], args[2], &value, override)
			if err != nil {
				return err
			}

			result := "added"
			switch {
			case found && override:
				result = "overridden"
			case found:
				result = "found"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", args[2], value, result)
			return nil
		},
	}
	cmd.Flags().BoolVar(&override, "override", false, "Replace the stored value")
	return cmd
}

func newExportCmd(c *cli) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export <file> [section]",
		Short: "Print a state file or one section as YAML, TOML or JSON",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := config.ParseFile(args[0])
			if err != nil {
				return err
			}
			m := c.manager(false)
			defer m.Close()

			data, err := m.Decode(f)
			if err != nil {
				return err
			}
			var value any = data
			if len(args) == 2 {
				if value, err = sectionOf(data, f, args[1]); err != nil {
					return err
				}
			}

			out, err := encode(value, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format (yaml, toml, json)")
	return cmd
}

func newImportCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file> <settings.toml>",
		Short: "Write every table of a TOML file as a section of a state file",
		Long: `import reads a TOML document and saves each top-level table as a
section of the state file, replacing sections with the same name and keeping
the others.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := config.ParseFile(args[0])
			if err != nil {
				return err
			}
			data, err := loader.NewTOMLLoader(args[1]).Load()
			if err != nil {
				return err
			}
			if data == nil {
				return fmt.Errorf("%s: file not found", args[1])
			}

			names := make([]string, 0, len(data))
			for name := range data {
				names = append(names, name)
			}
			sort.Strings(names)

			m := c.manager(false)
			defer m.Close()

			for _, name := range names {
				section, ok := data[name].(map[string]any)
				if !ok {
					return fmt.Errorf("top-level key %q is not a table", name)
				}
				if err := m.Save(f, name, func(d *serializer.Document) {
					d.Fields(&section)
				}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %s\n", name)
			}
			return nil
		},
	}
	return cmd
}

func newGetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get <file> <section> [path]",
		Short: "Print a section as JSON, or the value at a gjson path inside it",
		Example: `  scaffold get ui window
  scaffold get ui layout panels.#.title
  scaffold get theme theme colors.accent`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := config.ParseFile(args[0])
			if err != nil {
				return err
			}
			m := c.manager(false)
			defer m.Close()

			data, err := m.Decode(f)
			if err != nil {
				return err
			}
			section, err := sectionOf(data, f, args[1])
			if err != nil {
				return err
			}
			raw, err := json.Marshal(section)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(args) == 2 {
				fmt.Fprintln(out, gjson.GetBytes(raw, "@pretty").String())
				return nil
			}
			res := gjson.GetBytes(raw, args[2])
			if !res.Exists() {
				return fmt.Errorf("no value at %q in %s/%s", args[2], f, args[1])
			}
			if res.IsObject() || res.IsArray() {
				fmt.Fprintln(out, res.Raw)
				return nil
			}
			fmt.Fprintln(out, res.String())
			return nil
		},
	}
}

func newSetCmd(c *cli) *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "set <file> <section> <path> [value]",
		Short: "Change the value at a sjson path inside a section",
		Long: `set rewrites one value of a section. The value is taken as JSON when it
parses as JSON (numbers, booleans, arrays, objects, quoted strings) and as a
plain string otherwise. With --delete the value at path is removed.`,
		Example: `  scaffold set ui window maximized true
  scaffold set theme theme name solarized
  scaffold set ui layout panels.0.tags '["files","pinned"]'`,
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := config.ParseFile(args[0])
			if err != nil {
				return err
			}
			if !remove && len(args) != 4 {
				return errors.New("a value is required unless --delete is given")
			}

			m := c.manager(false)
			defer m.Close()

			var section map[string]any
			err = m.Load(f, args[1], func(d *serializer.Document) {
				d.RawFields(&section)
			})
			if err != nil && !errors.Is(err, config.ErrFileNotFound) {
				return err
			}
			raw, err := json.Marshal(typed(section))
			if err != nil {
				return err
			}

			if remove {
				raw, err = sjson.DeleteBytes(raw, args[2])
			} else if value := args[3]; json.Valid([]byte(value)) {
				raw, err = sjson.SetRawBytes(raw, args[2], []byte(value))
			} else {
				raw, err = sjson.SetBytes(raw, args[2], value)
			}
			if err != nil {
				return fmt.Errorf("updating %s: %w", args[2], err)
			}

			updated, err := decodeJSON(raw)
			if err != nil {
				return err
			}
			updated = keepText(updated, section).(map[string]any)
			return m.Save(f, args[1], func(d *serializer.Document) {
				d.Fields(&updated)
			})
		},
	}
	cmd.Flags().BoolVar(&remove, "delete", false, "Remove the value at path")
	return cmd
}

// sectionOf returns one section of decoded file data. An empty section is
// an empty map.
func sectionOf(data map[string]any, f config.File, name string) (map[string]any, error) {
	v, ok := data[name]
	if !ok {
		return nil, fmt.Errorf("no section %q in %s", name, f.FileName())
	}
	if v == nil {
		return map[string]any{}, nil
	}
	section, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%q in %s is not a section", name, f.FileName())
	}
	return section, nil
}

func encode(v any, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "toml":
		m, _ := dropNils(v).(map[string]any)
		return loader.EncodeTOML(m)
	case "json":
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown format %q (must be yaml, toml, or json)", format)
	}
}

// dropNils removes empty headers, which TOML cannot represent.
func dropNils(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			if e == nil {
				continue
			}
			out[k] = dropNils(e)
		}
		return out
	case []any:
		out := make([]any, 0, len(val))
		for _, e := range val {
			if e == nil {
				continue
			}
			out = append(out, dropNils(e))
		}
		return out
	default:
		return v
	}
}

// decodeJSON parses a JSON object keeping integers as int64.
func decodeJSON(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return normalizeNumbers(m).(map[string]any), nil
}

func normalizeNumbers(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, e := range val {
			val[k] = normalizeNumbers(e)
		}
		return val
	case []any:
		for i, e := range val {
			val[i] = normalizeNumbers(e)
		}
		return val
	case json.Number:
		if n, err := strconv.ParseInt(string(val), 10, 64); err == nil {
			return n
		}
		f, _ := val.Float64()
		return f
	default:
		return v
	}
}

// typed replaces the Raw scalars of a RawFields result with typed values.
func typed(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = typed(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = typed(e)
		}
		return out
	case serializer.Raw:
		return val.Value()
	default:
		return v
	}
}

// keepText puts back the on-disk text of every scalar of old whose value
// did not change in updated.
func keepText(updated, old any) any {
	switch val := updated.(type) {
	case map[string]any:
		prev, _ := old.(map[string]any)
		for k, e := range val {
			val[k] = keepText(e, prev[k])
		}
		return val
	case []any:
		prev, _ := old.([]any)
		for i, e := range val {
			if i < len(prev) {
				val[i] = keepText(e, prev[i])
			}
		}
		return val
	default:
		if r, ok := old.(serializer.Raw); ok && sameValue(r.Value(), updated) {
			return r
		}
		return updated
	}
}

// sameValue compares decoded scalars. Numbers are compared by value since
// JSON does not keep the difference between 1000 and 1e3.
func sameValue(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	x, okA := number(a)
	y, okB := number(b)
	return okA && okB && x == y
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
