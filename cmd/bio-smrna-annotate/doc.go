/*Command bio-smrna-annotate classifies small-RNA loci by the annotation
  classes they overlap.  The first input is an intersection of the loci with
  an annotation track, one "locus_id class amount description" row per
  overlap, rows of a locus adjacent.  The second is a class priority table
  of "class rank" lines; lower ranks win.  One line is written per locus:

    locus_id basic_class prioritized_class all_classes basic_desc prioritized_desc

  Usage: bio-smrna-annotate [-out=path] in.intersect class_pri.txt
*/
package main
