// Package grade turns a user-defined variation grid ("grade") into the
// rows of a product's variant table.
//
// Pipeline:
//
//   - Normalize: canonical form of a raw payload plus a list of issues.
//   - Autonumber: sequential 2-digit codes by first appearance.
//   - Expand: Cartesian product of every axis, last axis fastest.
//   - Generate: picks the two code axes, composes one EAN-13 per combo
//     and a composite SKU.
//
// Only two axes feed the EAN-13. With role tags present, the size and
// color axes are the tagged ones; without any tag the first and second
// axes are used. Remaining axes are carried in each combo and in the SKU
// suffix but never change the barcode.
package grade
