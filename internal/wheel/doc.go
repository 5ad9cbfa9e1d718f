// Package wheel parses Python wheel filenames into their structured
// components (distribution, version, optional build tag, python/abi/platform
// tags) and normalizes distribution names for comparison.
//
// Parsing the filename structure instead of prefix-matching avoids false
// positives between packages whose names prefix each other (an inventory
// entry "ase" must not match "ase-extras-1.0-py3-none-any.whl").
package wheel
