package overlay

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/beevik/etree"
)

// ErrInvalidLocator is returned when a locator is not a valid etree path.
var ErrInvalidLocator = errors.New("invalid locator")

// Overlay is a snapshot of a configuration file plus the edits made since.
type Overlay struct {
	path     string
	original []byte
	mode     fs.FileMode
	exists   bool
	dirty    bool
}

// Load snapshots the file at path. A missing file yields an empty overlay.
func Load(path string) (*Overlay, error) {
	o := &Overlay{path: path}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return o, nil
	}
	if err != nil {
		return nil, fmt.Errorf("overlay: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("overlay: %s is a directory", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("overlay: %w", err)
	}

	o.original = data
	o.mode = info.Mode().Perm()
	o.exists = true
	return o, nil
}

// Path returns the configuration file path.
func (o *Overlay) Path() string { return o.path }

// Exists reports whether the file existed when the overlay was loaded.
func (o *Overlay) Exists() bool { return o.exists }

// Dirty reports whether the file has been edited since the last restore.
func (o *Overlay) Dirty() bool { return o.dirty }

// Original returns a copy of the snapshot, or nil for an empty overlay.
func (o *Overlay) Original() []byte {
	if !o.exists {
		return nil
	}
	return append([]byte(nil), o.original...)
}

// SetAttribute sets attribute on the first element matching locator and saves
// the file. Nothing happens when the element or the attribute is missing.
func (o *Overlay) SetAttribute(locator, attribute, value string) error {
	return o.edit(locator, func(el *etree.Element) bool {
		attr := el.SelectAttr(attribute)
		if attr == nil {
			return false
		}
		attr.Value = value
		return true
	})
}

// SetText replaces the character data of the first element matching locator
// and saves the file. Nothing happens when no element matches.
func (o *Overlay) SetText(locator, value string) error {
	return o.edit(locator, func(el *etree.Element) bool {
		el.SetText(value)
		return true
	})
}

// Restore writes the snapshot back if the file was edited.
func (o *Overlay) Restore() error {
	if !o.exists || !o.dirty {
		return nil
	}
	if err := os.WriteFile(o.path, o.original, o.mode); err != nil {
		return fmt.Errorf("overlay: restore %s: %w", o.path, err)
	}
	o.dirty = false
	return nil
}

// edit reads the current document, applies fn to the located element and
// persists the result when fn reports a change.
func (o *Overlay) edit(locator string, fn func(*etree.Element) bool) error {
	if !o.exists {
		return nil
	}

	path, err := etree.CompilePath(locator)
	if err != nil {
		return fmt.Errorf("overlay: %w %q: %v", ErrInvalidLocator, locator, err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromFile(o.path); err != nil {
		return fmt.Errorf("overlay: parse %s: %w", o.path, err)
	}

	el := doc.FindElementPath(path)
	if el == nil || !fn(el) {
		return nil
	}

	data, err := doc.WriteToBytes()
	if err != nil {
		return fmt.Errorf("overlay: encode %s: %w", o.path, err)
	}
	if err := os.WriteFile(o.path, data, o.mode); err != nil {
		return fmt.Errorf("overlay: write %s: %w", o.path, err)
	}

	o.dirty = true
	return nil
}
