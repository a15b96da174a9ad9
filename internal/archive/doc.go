// Package archive moves record sets in and out of the local store as
// self-describing envelope files.
//
// An envelope's mode fully determines how its payload is interpreted:
//
//	plain     data is the record array itself
//	encoded   data is a reversible text encoding (Base64) of the array
//	encrypted data is AES-256-CBC ciphertext hex, iv is the IV hex
//
// Unknown modes fail the whole import; legacy files that are a bare record
// array with no envelope wrapper are still accepted.
//
// Import merges by dedup key - content hash for assets, id for history,
// because re-imported data may have been re-identified while the content
// hash survives. Candidates are validated against a CUE schema at the
// boundary; an item missing required fields is dropped from the merge, not
// the whole import. The merged set is written back wholesale (clear, then
// rewrite). There is no cross-operation locking: two overlapping imports
// snapshot the existing keys independently and resolve last-write-wins.
package archive
