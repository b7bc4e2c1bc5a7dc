/*Command bio-lenvec-index writes the chromosome index of one or more
  length-vector files.  For each input file F it writes F.idx, with one
  "chrom<TAB>offset" line per chromosome giving the byte offset of the
  chromosome's first row.  Files are indexed concurrently.

  Usage: bio-lenvec-index sample.plus sample.minus
*/
package main
