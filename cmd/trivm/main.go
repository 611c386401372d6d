package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/trivm/trivm/asm"
	"github.com/trivm/trivm/image"
	"github.com/trivm/trivm/isa"
	"github.com/trivm/trivm/translate"
	"github.com/trivm/trivm/vm"
)

var f = translate.From

// Config is the optional machine configuration, loaded from a TOML
// file.
type Config struct {
	MaxDepth  int    `toml:"max_depth"`
	StepLimit uint64 `toml:"step_limit"`
	Trace     bool   `toml:"trace"`
}

var (
	compile  = flag.String("c", "", f("assemble the named source file"))
	output   = flag.String("o", "", f("write the image here instead of running it"))
	list     = flag.Bool("d", false, f("disassemble the image instead of running it"))
	input    = flag.String("in", "", f("read console input from this file"))
	confPath = flag.String("config", "", f("machine configuration file (TOML)"))
	verbose  = flag.Bool("v", false, f("trace executed instructions"))
)

func usage() {
	name := os.Args[0]
	fmt.Fprintln(os.Stderr, f("usage:"))
	fmt.Fprintf(os.Stderr, "  %s -c prog.asm            %s\n", name, f("assemble and run"))
	fmt.Fprintf(os.Stderr, "  %s -c prog.asm -o prog.tvm %s\n", name, f("assemble to an image file"))
	fmt.Fprintf(os.Stderr, "  %s prog.tvm               %s\n", name, f("run an image file"))
	fmt.Fprintf(os.Stderr, "  %s -d prog.tvm            %s\n", name, f("list an image file"))
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	img, err := loadProgram()
	if err != nil {
		log.Fatalf("%v", err)
	}

	if *output != "" {
		if err := img.Save(*output); err != nil {
			log.Fatalf(f("cannot write %v: %v"), *output, err)
		}
		return
	}

	if *list {
		if err := disassemble(img); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	os.Exit(run(img))
}

// loadProgram produces the image to operate on: either by assembling
// the -c source file or by reading the image file named on the command
// line.
func loadProgram() (*image.Image, error) {
	if *compile != "" {
		src, err := os.ReadFile(*compile)
		if err != nil {
			return nil, err
		}
		return asm.Assemble(string(src))
	}

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	return image.Load(flag.Arg(0))
}

func run(img *image.Image) (status int) {
	cpu := vm.New()
	cpu.Verbose = *verbose
	cpu.Console.Input = os.Stdin
	cpu.Console.Output = os.Stdout

	if *confPath != "" {
		var conf Config
		if _, err := toml.DecodeFile(*confPath, &conf); err != nil {
			log.Fatalf(f("cannot read %v: %v"), *confPath, err)
		}
		cpu.MaxDepth = conf.MaxDepth
		cpu.StepLimit = conf.StepLimit
		if conf.Trace {
			cpu.Verbose = true
		}
	}

	if *input != "" {
		file, err := os.Open(*input)
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer file.Close()
		cpu.Console.Input = file
	}

	if err := cpu.LoadImage(img); err != nil {
		log.Fatalf("%v", err)
	}
	if err := cpu.Run(); err != nil {
		log.Fatalf("%v", err)
	}
	return int(cpu.HaltCode)
}

// disassemble prints a code listing with offsets, then a data segment
// dump.
func disassemble(img *image.Image) error {
	at := 0
	for at < len(img.Code) {
		ins, width, err := isa.Decode(img.Code[at:])
		if err != nil {
			return fmt.Errorf("%#04x: %w", at, err)
		}
		fmt.Printf("%#04x: %v\n", at, ins)
		at += width
	}
	if len(img.Data) > 0 {
		fmt.Printf(f("data (%d bytes): % x\n"), len(img.Data), img.Data)
	}
	return nil
}
