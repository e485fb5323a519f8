package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"feedbacksense/inference"
	"feedbacksense/ml"
)

const (
	exitOK          = 0
	exitInputError  = 1
	exitUnavailable = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("predict", flag.ContinueOnError)
	flags.SetOutput(stderr)
	artifactsDir := flags.String("artifacts", "", "directory holding the artifacts (default: beside the executable)")
	preprocessorFile := flags.String("preprocessor", ml.DefaultPreprocessorFile, "preprocessor artifact file")
	classifierFile := flags.String("classifier", ml.DefaultClassifierFile, "classifier artifact file")
	inputPath := flags.String("input", "-", "JSON record file, - for stdin")
	strict := flags.Bool("strict", true, "reject values outside the documented field domains")
	if err := flags.Parse(args); err != nil {
		return exitInputError
	}

	loader := ml.NewArtifactLoader(*artifactsDir, *preprocessorFile, *classifierFile)
	svc := inference.FromLoader(loader)
	if err := svc.LoadError(); err != nil {
		fmt.Fprintf(stderr, "%v: %v\n", inference.ErrModelUnavailable, err)
		return exitUnavailable
	}

	input := stdin
	if *inputPath != "-" {
		f, err := os.Open(*inputPath)
		if err != nil {
			fmt.Fprintf(stderr, "failed to open input: %v\n", err)
			return exitInputError
		}
		defer f.Close()
		input = f
	}

	rec, err := ml.DecodeRecord(input)
	if err != nil {
		fmt.Fprintf(stderr, "invalid record: %v\n", err)
		return exitInputError
	}
	if *strict {
		if err := rec.Validate(); err != nil {
			fmt.Fprintf(stderr, "invalid record: %v\n", err)
			return exitInputError
		}
	}

	prediction, err := svc.Predict(context.Background(), rec)
	if err != nil {
		fmt.Fprintf(stderr, "prediction failed: %v\n", err)
		if inference.IsInputError(err) {
			return exitInputError
		}
		return exitUnavailable
	}
	fmt.Fprintln(stdout, prediction.Label)
	return exitOK
}
