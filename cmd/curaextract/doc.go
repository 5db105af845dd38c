// Command curaextract extracts effective Cura slicer settings for a machine.
package main
