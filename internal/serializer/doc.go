// Package serializer reads and writes application state files in a small,
// indentation-significant subset of YAML.
//
// A state file holds any number of top-level sections. Calling code describes
// the shape of one section with a single traversal function that works in
// both directions: the same calls save the data when the Document was opened
// with SaveToFile and restore it when opened with LoadFromFile.
//
//	err := serializer.Serialize(path, "window", option, func(d *serializer.Document) {
//	    d.Entry("width", &w.Width).
//	        Entry("height", &w.Height).
//	        Subsection("theme", func(d *serializer.Document) {
//	            d.Entry("accent", &w.Theme.Accent)
//	        }).
//	        List("panels", &w.Panels, func(d *serializer.Document, i int) {
//	            d.Entry("title", &w.Panels[i].Title).
//	                Entry("tags", &w.Panels[i].Tags)
//	        })
//	})
//
// # File Format
//
// Indentation is two spaces per level. Tabs and other widths are rejected.
//
//	window:
//	  width: 1280
//	  height: 720
//	  theme:
//	    accent: 0.2 0.4 0.8 1
//	  panels:
//	    - title: Files
//	      tags:
//	        - left
//	        - pinned
//	    - title: "Output: build"
//	      tags:
//
// Lines whose first non-space character is '#' are ignored and are not
// preserved when the section is saved again. Strings that would otherwise be
// misread are written double-quoted with Go escape sequences.
//
// # Missing Data
//
// Keys, subsections and lists that are not in the file are not errors: the
// caller's values are left as they were. This lets a program add settings
// without invalidating files written by older versions.
//
// # Errors
//
// Protocol calls never return errors directly. The first failure is recorded
// on the document, later calls do nothing, and the error is returned by Err
// and Close. A section that failed while saving is not written.
package serializer
