// Package grids holds structured 3D meshes with scalar quantities sampled at
// each vertex, and interpolates those quantities at particle positions.
//
// Meshes are loaded from coordinate arrays ([Load], [LoadCartesian]) or built
// from start, stop and point counts ([NewCartesian],
// [NewNonUniformCartesian]). A grid is flagged uniform when its axes are
// evenly spaced and it forms a tensor product; only uniform grids can be
// interpolated.
//
// Interpolation takes positions in SI metres and returns quantity values in
// the unit the quantity was added with. Positions outside the grid map to NaN.
package grids
