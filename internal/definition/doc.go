// Package definition loads slicer definition documents (*.def.json) and
// models each one as a typed tree built once at load time.
//
// A Document exposes its parent reference (inherits), metadata, the setting
// tree and the single-level overrides block. Tree nodes are either
// categories or settings; a node is a setting when it declares a type other
// than "category". Only the allow-listed attributes of a setting are kept,
// everything else is dropped while parsing.
package definition
