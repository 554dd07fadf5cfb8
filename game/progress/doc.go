// Package progress records which levels the player has completed, with the
// move counts and star ratings achieved, in a single JSON file.
package progress
