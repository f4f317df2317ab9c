// Command rcore is a minimal embedding-API driver: flag-driven
// expression/file/REPL modes, non-zero exit codes on failure. Since
// this repo ships no bundled parser, every mode here exercises
// pkg/runtime's Run/Send surface rather than compiling real programs.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"rcore/pkg/config"
	"rcore/pkg/rvalue"
	"rcore/pkg/runtime"
)

func main() {
	exprFlag := flag.String("e", "", "run the given source and exit")
	flag.Parse()

	rt := runtime.New(config.Default())

	switch {
	case *exprFlag != "":
		runSource(rt, *exprFlag, "-e")
	case flag.NArg() == 1:
		runFile(rt, flag.Arg(0))
	case flag.NArg() > 1:
		fmt.Fprintln(os.Stderr, "usage: rcore [script] or rcore -e \"source\"")
		os.Exit(64)
	default:
		repl(rt)
	}
}

func runFile(rt *runtime.Runtime, filename string) {
	src, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rcore: %s\n", err)
		os.Exit(70)
	}
	runSource(rt, string(src), filename)
}

func runSource(rt *runtime.Runtime, source, filename string) {
	v, err := rt.Run(source, filename, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rcore: %s\n", err)
		os.Exit(70)
	}
	fmt.Println(display(v))
}

func repl(rt *runtime.Runtime) {
	fmt.Println("rcore embedding-API REPL (bundled parser: empty programs only)")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		v, err := rt.Run(line, "<repl>", 0)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
			continue
		}
		fmt.Println(display(v))
	}
}

func display(v rvalue.Value) string {
	switch v.Kind() {
	case rvalue.KindNil:
		return "nil"
	case rvalue.KindBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case rvalue.KindSmallInt, rvalue.KindLongInt:
		return fmt.Sprintf("%d", v.AsSmallInt())
	case rvalue.KindFloat:
		return fmt.Sprintf("%g", v.AsFloat())
	case rvalue.KindImmutableString, rvalue.KindMutableString:
		return string(v.AsString().Rope().Flatten())
	case rvalue.KindSymbol:
		return ":" + v.AsSymbol().String()
	default:
		return fmt.Sprintf("#<%s>", v.Kind())
	}
}
