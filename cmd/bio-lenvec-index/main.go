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
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/smrna/encoding/lenvec"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s lenvec_file...\n", os.Args[0])
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	paths := flag.Args()
	if len(paths) < 1 {
		flag.Usage()
		os.Exit(1)
	}
	ctx := vcontext.Background()
	err := traverse.Each(len(paths), func(i int) error {
		return lenvec.IndexFile(ctx, paths[i])
	})
	if err != nil {
		log.Fatalf("%v", err)
	}
}
