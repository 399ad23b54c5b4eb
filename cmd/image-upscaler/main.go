// Command image-upscaler serves the upscaling web front end and runs batch
// upscales and diagnostics from the command line.
//
// A default build links no OpenCV and ships only the classical and remote
// backends. Build with -tags gocv for bilateral+CLAHE and the deep model.
package main

import (
	"fmt"
	"os"
)

const usage = `usage: image-upscaler <command> [flags]

commands:
  serve     run the web front end
  upscale   upscale image files on disk
  doctor    print environment and backend diagnostics

Run "image-upscaler <command> -h" for command flags.
Without -tags gocv only the classical and remote backends are built in.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "upscale":
		err = runUpscale(os.Args[2:])
	case "doctor":
		err = runDoctor(os.Args[2:], os.Stdout)
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "image-upscaler %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}
