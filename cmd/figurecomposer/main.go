// Command figurecomposer drives the breakup/genconfig/assemble pipeline
// from the command line.
package main

import (
	"flag"
	"io"
	"log"
	"os"
	"time"

	figurecomposer "github.com/reinerbro/figurecomposer"
)

type cliOpts struct {
	dir       string
	output    string
	config    string
	genconfig bool
	assemble  bool
	breakup   bool
	verbose   bool
}

func parseCLIOpts() cliOpts {
	var opt cliOpts
	flag.StringVar(&opt.dir, "dir", "", "export directory (parent of ExportedProject)")
	flag.StringVar(&opt.output, "output", "./configs", "output directory for a generated config")
	flag.StringVar(&opt.config, "config", "", "config file path")
	flag.BoolVar(&opt.genconfig, "genconfig", false, "generate a config file from the export directory")
	flag.BoolVar(&opt.assemble, "assemble", false, "assemble figures per the config")
	flag.BoolVar(&opt.breakup, "breakup", false, "break the atlas up into individual sprite PNGs")
	flag.BoolVar(&opt.verbose, "v", false, "verbose output")
	flag.Parse()
	return opt
}

// stageTimer logs how long a named pipeline stage took.
type stageTimer struct {
	name  string
	start time.Time
}

func newStageTimer(name string) *stageTimer {
	return &stageTimer{name: name, start: time.Now()}
}

func (t *stageTimer) done() {
	log.Printf("[figurecomposer] %s took %.2f seconds", t.name, time.Since(t.start).Seconds())
}

func main() {
	opt := parseCLIOpts()
	if opt.verbose {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(io.Discard)
	}

	if opt.dir != "" && figurecomposer.IsDicedExport(opt.dir) {
		log.Printf("[figurecomposer] detected diced sprite export structure")
		timer := newStageTimer("diced assembly")
		if err := figurecomposer.RunDiced(opt.dir, opt.output); err != nil {
			log.Fatalf("[figurecomposer] diced assembly failed: %v", err)
		}
		timer.done()
		return
	}

	if !opt.assemble && !opt.breakup && !opt.genconfig {
		opt.assemble = true
		opt.breakup = true
		opt.genconfig = true
	}

	configPath := opt.config
	if configPath == "" {
		configPath = "config.json"
	}

	if opt.genconfig && opt.config == "" {
		timer := newStageTimer("genconfig")
		cfg, characterName, err := figurecomposer.GenerateConfig(opt.dir)
		if err != nil {
			log.Fatalf("[figurecomposer] genconfig failed: %v", err)
		}
		configPath = opt.output + "/" + characterName + "_config.json"
		if err := cfg.Save(configPath); err != nil {
			log.Fatalf("[figurecomposer] genconfig failed: %v", err)
		}
		timer.done()
	}

	cfg, err := figurecomposer.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("[figurecomposer] load config %s failed: %v", configPath, err)
	}

	if opt.breakup {
		timer := newStageTimer("breakup")
		exportStruct, err := figurecomposer.LoadExportStructure(cfg.ExportDir)
		if err != nil {
			log.Fatalf("[figurecomposer] breakup failed: %v", err)
		}
		atlas, err := figurecomposer.LoadAtlas(exportStruct.TexturePath)
		if err != nil {
			log.Fatalf("[figurecomposer] breakup failed: %v", err)
		}
		if err := figurecomposer.Breakup(exportStruct, atlas, cfg.OutputDirSprite); err != nil {
			log.Fatalf("[figurecomposer] breakup failed: %v", err)
		}
		timer.done()
	}

	if opt.assemble {
		timer := newStageTimer("assemble")
		if err := figurecomposer.RunAll(cfg); err != nil {
			log.Fatalf("[figurecomposer] assemble failed: %v", err)
		}
		timer.done()
	}
}
