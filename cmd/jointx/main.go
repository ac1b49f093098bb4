// Copyright 2026 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2026 Charles University, Faculty of Arts,
//                Department of Linguistics
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command jointx is the external driver around the decode/train core
// (spec.md §6): it owns input/output, span generation, configuration
// loading, and optional session persistence, none of which the core
// itself touches. Subcommand dispatch mirrors vte.go's
// create|append|template|version exactly, renamed to this domain's
// verbs: decode|train|template|version.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
)

var (
	version   string
	build     string
	gitCommit string
)

func printUsage() {
	fmt.Println("\n+-------------------------------------------------------------+")
	fmt.Println("| jointx - joint field decoder/trainer for semi-structured     |")
	fmt.Println("|          multi-field text records                            |")
	fmt.Printf("|                       version %s                         |\n", version)
	fmt.Println("+-------------------------------------------------------------+")
	fmt.Println("\nUsage:")
	fmt.Println("jointx decode -conf config.json [-stats stats.json] [-persist] <file-or-dir>")
	fmt.Println("\t(decode every document under the given path, print records as JSON)")
	fmt.Println("jointx train -conf config.json -feedback feedback.json [-stats stats.json] [-noSave] [-persist] <file>")
	fmt.Println("\t(decode one document, apply feedback, checkpoint weights back to config.json)")
	fmt.Println("jointx stats -conf config.json <file-or-dir>")
	fmt.Println("\t(decode a batch and print field position-consistency statistics as JSON)")
	fmt.Println("jointx template\n\t(print a minimal sample config to stdout)")
	fmt.Println("jointx version\n\tshow detailed version information")
	fmt.Println("\nOptions:")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = printUsage
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	decodeCommand := flag.NewFlagSet("decode", flag.ExitOnError)
	decodeConf := decodeCommand.String("conf", "", "path to a jointx config.json")
	decodeStats := decodeCommand.String("stats", "", "optional path to a field stats JSON produced by 'jointx stats'")
	decodePersist := decodeCommand.Bool("persist", false, "persist each decoded session via the configured store")

	trainCommand := flag.NewFlagSet("train", flag.ExitOnError)
	trainConf := trainCommand.String("conf", "", "path to a jointx config.json")
	trainFeedback := trainCommand.String("feedback", "", "path to a feedback JSON file")
	trainStats := trainCommand.String("stats", "", "optional path to a field stats JSON produced by 'jointx stats'")
	trainNoSave := trainCommand.Bool("noSave", false, "do not write updated weights back to -conf")
	trainPersist := trainCommand.Bool("persist", false, "persist the trained session via the configured store")

	statsCommand := flag.NewFlagSet("stats", flag.ExitOnError)
	statsConf := statsCommand.String("conf", "", "path to a jointx config.json")

	templateCommand := flag.NewFlagSet("template", flag.ExitOnError)

	switch os.Args[1] {
	case "decode":
		decodeCommand.Parse(os.Args[2:])
		if decodeCommand.NArg() < 1 {
			log.Fatal("FATAL: decode requires an input file or directory argument")
		}
		if err := runDecode(decodeOpts{
			confPath:  *decodeConf,
			input:     decodeCommand.Arg(0),
			statsPath: *decodeStats,
			persist:   *decodePersist,
		}); err != nil {
			log.Fatal("FATAL: ", err)
		}
	case "train":
		trainCommand.Parse(os.Args[2:])
		if trainCommand.NArg() < 1 {
			log.Fatal("FATAL: train requires an input file argument")
		}
		if err := runTrain(trainOpts{
			confPath:     *trainConf,
			input:        trainCommand.Arg(0),
			feedbackPath: *trainFeedback,
			statsPath:    *trainStats,
			noSave:       *trainNoSave,
			persist:      *trainPersist,
		}); err != nil {
			log.Fatal("FATAL: ", err)
		}
	case "stats":
		statsCommand.Parse(os.Args[2:])
		if statsCommand.NArg() < 1 {
			log.Fatal("FATAL: stats requires an input file or directory argument")
		}
		if err := runStats(*statsConf, statsCommand.Arg(0)); err != nil {
			log.Fatal("FATAL: ", err)
		}
	case "template":
		templateCommand.Parse(os.Args[2:])
		out, err := dumpTemplate()
		if err != nil {
			log.Fatal("FATAL: ", err)
		}
		fmt.Println(out)
	case "version":
		fmt.Printf("jointx %s\nbuild date: %s\nlast commit: %s\n", version, build, gitCommit)
	default:
		printUsage()
		log.Fatalf("Unknown command '%s'", os.Args[1])
	}
}
