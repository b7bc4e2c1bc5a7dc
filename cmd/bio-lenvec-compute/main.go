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
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/smrna/encoding/lenvec"
	plenvec "github.com/grailbio/smrna/pileup/lenvec"
)

var (
	minLength   = flag.Int("min-length", plenvec.DefaultOpts.MinLength, "Shortest read length to count")
	maxLength   = flag.Int("max-length", plenvec.DefaultOpts.MaxLength, "Longest read length to count")
	flagExclude = flag.Int("flag-exclude", plenvec.DefaultOpts.FlagExclude, "Reads with a FLAG bit intersecting this value are skipped")
	mapq        = flag.Int("mapq", plenvec.DefaultOpts.Mapq, "Reads with MAPQ below this level are skipped")
	parallelism = flag.Int("parallelism", plenvec.DefaultOpts.Parallelism, "Number of BAM decompression goroutines")
	index       = flag.Bool("index", false, "Also write the chromosome index of each output file")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] bampath outprefix\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() < 2 {
		flag.Usage()
		os.Exit(1)
	}
	bamPath, outPrefix := flag.Arg(0), flag.Arg(1)
	opts := plenvec.Opts{
		MinLength:   *minLength,
		MaxLength:   *maxLength,
		FlagExclude: *flagExclude,
		Mapq:        *mapq,
		Parallelism: *parallelism,
	}
	ctx := vcontext.Background()
	plusPath, minusPath := outPrefix+".plus", outPrefix+".minus"
	if err := plenvec.Compute(ctx, bamPath, plusPath, minusPath, &opts); err != nil {
		log.Fatalf("%v", err)
	}
	if *index {
		for _, path := range []string{plusPath, minusPath} {
			if err := lenvec.IndexFile(ctx, path); err != nil {
				log.Fatalf("%v", err)
			}
		}
	}
	log.Debug.Printf("exiting")
}
