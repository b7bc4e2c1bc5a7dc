/*Command bio-lenvec-locus computes a read-length profile for every locus of
  a BED file.  It reads <prefix>.plus and <prefix>.minus, as written by
  bio-lenvec-compute, together with their .idx chromosome indexes.  Each
  output line holds the locus name and, for every read length, the log2
  odds of that length against a uniform length distribution:

    name  E<min_read_len>  E<min_read_len+1>  ...

  Loci should be grouped by chromosome and strand.  Other orders give the
  same output but rescan a chromosome each time it reappears.

  Usage: bio-lenvec-locus [-stride=100] [-out=path] locus_bed lenvector_prefix min_read_len
*/
package main
