// Package layout computes canonical ABI sizes, alignments and field offsets
// for WIT types placed in linear memory.
//
// Records can be laid out behind a fixed header so that a shape identifier
// occupies the first bytes and the fields follow at their natural alignment.
package layout
