// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package lenvec reads and writes length-vector files.

A length-vector file holds one tab-separated row per genomic position with
at least one covering read:

  chrom  strand  pos  bin_0  bin_1 ... bin_{k-1}

where bin_i is the summed weight of reads of length minLen+i covering pos.
Positions are ascending within a contiguous block per chromosome, and each
file holds a single strand.  Positions absent from the file have all-zero
bins.

The chromosome index (path + ".idx") stores the byte offset of the first row
of each chromosome block:

  chrom  offset

Together with LineReader, which reports the offset of every line it reads,
this allows seeking close to any position of a multi-gigabyte file without
loading it.
*/
package lenvec
