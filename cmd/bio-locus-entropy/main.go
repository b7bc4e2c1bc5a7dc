package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/smrna/locus"
	"github.com/grailbio/smrna/util"
)

var outPath = flag.String("out", "-", "Output path; '-' for stdout, *.gz for bgzf-compressed output")

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-out=path] entropy_input\n", os.Args[0])
	}
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}
	ctx := vcontext.Background()
	out, err := util.CreateOutput(ctx, *outPath, 1)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err = locus.RunEntropy(ctx, flag.Arg(0), out.Writer()); err != nil {
		log.Fatalf("%v", err)
	}
	if err = out.Close(); err != nil {
		log.Fatalf("%v", err)
	}
}
