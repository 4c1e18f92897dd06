// Package overlay applies reversible edits to an XML configuration file.
//
// An Overlay snapshots the file's bytes when it is loaded. Edits address an
// element with an etree path (for example
// "/configuration/appSettings/add[@key='Key1']") and rewrite one attribute or
// the element's text in place. Restore writes the snapshot back verbatim, so
// the file ends byte-identical to what was loaded no matter how the edits
// reformatted it.
//
// A missing file is not an error: the overlay is empty and every operation on
// it does nothing. Overlays are not safe for concurrent use.
package overlay
