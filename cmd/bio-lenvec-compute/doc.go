/*Command bio-lenvec-compute reads a coordinate-sorted small-RNA BAM and
  writes its genomic length vectors: for every covered position, the
  weighted number of reads of each length covering it.  Each alignment
  weighs 1/NH.  Plus-strand rows go to <outprefix>.plus and minus-strand
  rows to <outprefix>.minus.  Positions with no read in the length range get
  no row.

  Usage: bio-lenvec-compute [-min-length=18] [-max-length=30] [-index] bampath outprefix

  With -index, the chromosome indexes <outprefix>.plus.idx and
  <outprefix>.minus.idx used by bio-lenvec-locus are also written.
*/
package main
