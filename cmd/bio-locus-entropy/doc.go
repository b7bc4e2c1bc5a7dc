/*Command bio-locus-entropy computes, for each locus, the Shannon entropy
  (in nats) of the distribution of its reads' 5' and 3' end positions.  The
  input has one "locus<TAB>5p|3p<TAB>count" line per distinct end position.
  Output is sorted by locus name:

    name pos_entropy5p pos_entropy3p

  Usage: bio-locus-entropy [-out=path] entropy_input
*/
package main
