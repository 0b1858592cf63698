// Package model defines the normalized in-memory representation of a
// parsed word-processing document: an ordered sequence of block-level
// nodes (headings, paragraphs, tables, images, formulas, lists), each
// carrying ordered inline span content. The model is pure data with
// construction and traversal helpers only; parsing lives in the docx
// package and serialization in the markdown package.
package model
