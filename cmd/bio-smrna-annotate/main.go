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
	"github.com/grailbio/smrna/annotate"
	"github.com/grailbio/smrna/util"
)

var outPath = flag.String("out", "-", "Output path; '-' for stdout, *.gz for bgzf-compressed output")

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] in.intersect class_pri.txt\n", os.Args[0])
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
	ctx := vcontext.Background()
	out, err := util.CreateOutput(ctx, *outPath, 1)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err = annotate.Run(ctx, flag.Arg(0), flag.Arg(1), out.Writer()); err != nil {
		log.Fatalf("%v", err)
	}
	if err = out.Close(); err != nil {
		log.Fatalf("%v", err)
	}
}
