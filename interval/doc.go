/*Package interval reads BED-like locus files: one named, stranded,
  half-open interval per line.  Loci are streamed in file order; callers that
  benefit from chromosome+strand grouping (such as the locus aggregator) rely
  on the file already being grouped, nothing here sorts or validates order.
  It assumes every position fits in a PosType, which is currently defined as
  int32 since that's what BAM files are limited to.
*/
package interval
