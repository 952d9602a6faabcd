// Package formats reads occupancy grids from Ragnarok Online GAT files and
// from plain text grids.
package formats
