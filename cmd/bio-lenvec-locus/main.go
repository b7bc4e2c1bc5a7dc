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
	"strconv"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/smrna/locus"
	"github.com/grailbio/smrna/util"
)

var (
	stride      = flag.Int("stride", locus.DefaultOpts.Stride, "Positions between samples of the in-memory chromosome index")
	outPath     = flag.String("out", "-", "Output path; '-' for stdout, *.gz for bgzf-compressed output")
	parallelism = flag.Int("parallelism", 1, "Number of compression goroutines for *.gz output")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] locus_bed lenvector_prefix min_read_len\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() < 3 {
		flag.Usage()
		os.Exit(1)
	}
	opts := locus.DefaultOpts
	opts.Stride = *stride
	// A malformed length is 0, like every other numeric field.
	opts.MinReadLen, _ = strconv.Atoi(flag.Arg(2))

	ctx := vcontext.Background()
	out, err := util.CreateOutput(ctx, *outPath, *parallelism)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err = locus.Run(ctx, flag.Arg(0), flag.Arg(1), out.Writer(), &opts); err != nil {
		log.Fatalf("%v", err)
	}
	if err = out.Close(); err != nil {
		log.Fatalf("%v", err)
	}
}
