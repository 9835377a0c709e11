// Package pipeline runs a complete encoding pass: read, detect, configure,
// recode, then write the data file and its SPSS script.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pixperk/spssprep/internal/config"
	"github.com/pixperk/spssprep/internal/detect"
	"github.com/pixperk/spssprep/internal/encoding"
	"github.com/pixperk/spssprep/internal/fileutil"
	"github.com/pixperk/spssprep/internal/syntax"
	"github.com/pixperk/spssprep/internal/table"
)

type Stage string

const (
	StageRead        Stage = "read"
	StageDetect      Stage = "detect"
	StageConfigure   Stage = "configure"
	StageEncode      Stage = "encode"
	StageWriteData   Stage = "write data"
	StageWriteScript Stage = "write script"
)

// Stages lists the stages of Run in order
var Stages = []Stage{StageRead, StageDetect, StageConfigure, StageEncode, StageWriteData, StageWriteScript}

// Options carries optional callbacks for progress and logging
type Options struct {
	OnStage    func(stage Stage, done, total int)
	OnColumn   func(meta detect.Metadata, column config.ResolvedColumnConfig, identifier string)
	OnMiss     func(miss encoding.Miss)
	OnComplete func(report *Report)
}

func (o *Options) stage(s Stage) {
	if o == nil || o.OnStage == nil {
		return
	}
	for i, st := range Stages {
		if st == s {
			o.OnStage(s, i, len(Stages))
			return
		}
	}
}

// Report describes a finished run
type Report struct {
	Input       string
	OutputPath  string
	ScriptPath  string
	SavePath    string
	Rows        int
	Metadata    []detect.Metadata
	Columns     []config.ResolvedColumnConfig
	Identifiers []string
	Mappings    map[string]encoding.Mapping
	Originals   map[string]string
	Diagnostics encoding.Diagnostics
	// Table is the recoded table as written to OutputPath
	Table    *table.Table
	Script   string
	Duration time.Duration
}

// EncodedColumns counts columns that received value labels
func (r *Report) EncodedColumns() int {
	return len(r.Mappings)
}

// Run executes one encoding pass for cfg.Input
func Run(ctx context.Context, cfg *config.Config, opts *Options) (*Report, error) {
	start := time.Now()
	if cfg.Input == "" {
		return nil, fmt.Errorf("no input file configured")
	}

	opts.stage(StageRead)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := table.Read(cfg.Input, table.ReadOptions{Sheet: cfg.InputSheet})
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	opts.stage(StageDetect)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	meta := detect.DetectOrdered(t)

	opts.stage(StageConfigure)
	columns, identifiers, err := Resolve(cfg, meta)
	if err != nil {
		return nil, err
	}
	encConfigs := make([]encoding.ColumnConfig, len(columns))
	for i, c := range columns {
		encConfigs[i] = c.EncodingConfig(identifiers[i])
		if opts != nil && opts.OnColumn != nil {
			opts.OnColumn(meta[i], c, identifiers[i])
		}
	}

	opts.stage(StageEncode)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := encoding.Apply(t, encConfigs)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	if opts != nil && opts.OnMiss != nil {
		for _, id := range res.Identifiers {
			if miss, ok := res.Diagnostics.Misses[id]; ok {
				opts.OnMiss(miss)
			}
		}
	}

	paths := ResolvePaths(cfg)

	opts.stage(StageWriteData)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := table.Write(paths.Output, res.Table, table.WriteOptions{Sheet: cfg.OutputSheet}); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	opts.stage(StageWriteScript)
	format, err := table.DetectFormat(paths.Output)
	if err != nil {
		return nil, err
	}
	sheet := cfg.OutputSheet
	if sheet == "" {
		sheet = table.DefaultSheet
	}
	script := syntax.Generate(
		syntax.FromResult(res),
		syntax.Source{Path: paths.Output, Sheet: sheet, Format: format},
		syntax.Options{IncludeSave: cfg.IncludeSave, SavePath: paths.Save},
	)
	if err := fileutil.WriteFileAtomic(paths.Script, []byte(script), 0o644); err != nil {
		return nil, fmt.Errorf("write script: %w", err)
	}

	report := &Report{
		Input:       cfg.Input,
		OutputPath:  paths.Output,
		ScriptPath:  paths.Script,
		Rows:        t.Rows(),
		Metadata:    meta,
		Columns:     columns,
		Identifiers: res.Identifiers,
		Mappings:    res.Mappings,
		Originals:   res.Originals,
		Diagnostics: res.Diagnostics,
		Table:       res.Table,
		Script:      script,
		Duration:    time.Since(start),
	}
	if cfg.IncludeSave {
		report.SavePath = paths.Save
	}

	if opts != nil && opts.OnComplete != nil {
		opts.OnComplete(report)
	}
	return report, nil
}

// Resolve merges detection results with the config and assigns every column
// its output identifier. Explicit identifiers from the config and the
// headers of columns that are not sanitized are used verbatim and reserved;
// the remaining headers are sanitized and suffixed around them.
func Resolve(cfg *config.Config, meta []detect.Metadata) ([]config.ResolvedColumnConfig, []string, error) {
	columns := make([]config.ResolvedColumnConfig, len(meta))
	identifiers := make([]string, len(meta))
	reserved := make(map[string]string)
	var derived []string
	var derivedAt []int

	for i, m := range meta {
		c, err := cfg.EffectiveColumn(m)
		if err != nil {
			return nil, nil, err
		}
		columns[i] = c

		switch {
		case c.Identifier != "":
			identifiers[i] = c.Identifier
		case !c.Sanitize:
			identifiers[i] = c.Name
		default:
			derived = append(derived, m.Name)
			derivedAt = append(derivedAt, i)
			continue
		}
		if _, taken := reserved[identifiers[i]]; !taken {
			reserved[identifiers[i]] = m.Name
		}
	}

	if len(derived) > 0 {
		unique, err := cfg.Sanitizer().UniqueNamesReserving(derived, reserved)
		if err != nil {
			return nil, nil, err
		}
		for j, i := range derivedAt {
			identifiers[i] = unique[j]
		}
	}
	return columns, identifiers, nil
}

// Paths are the files a run writes
type Paths struct {
	Output string
	Script string
	Save   string
}

// ResolvePaths applies the output defaults: <input>_encoded.xlsx next to the
// input, the script beside the data unless a script path is configured, and
// a .sav beside the data.
func ResolvePaths(cfg *config.Config) Paths {
	var p Paths

	p.Output = cfg.Output
	if p.Output == "" {
		base := strings.TrimSuffix(filepath.Base(cfg.Input), filepath.Ext(cfg.Input))
		p.Output = filepath.Join(filepath.Dir(cfg.Input), base+"_encoded.xlsx")
	}

	beside := strings.TrimSuffix(p.Output, filepath.Ext(p.Output)) + ".sps"
	switch {
	case cfg.PlaceScriptBesideData, cfg.Script == "":
		p.Script = beside
	default:
		p.Script = cfg.Script
	}

	p.Save = cfg.SavePath
	if p.Save == "" {
		p.Save = syntax.SavePathFor(p.Output)
	}
	return p
}

// Result is the outcome of one input in RunMany
type Result struct {
	Input  string
	Report *Report
	Error  error
}

// RunMany encodes several inputs in parallel with a shared base config.
// Each input gets its own derived output and script paths. Results keep the
// order of inputs. Callbacks in opts must be safe for concurrent use.
func RunMany(ctx context.Context, base *config.Config, inputs []string, opts *Options) []Result {
	results := make([]Result, len(inputs))
	var wg sync.WaitGroup

	for i, in := range inputs {
		wg.Add(1)
		go func(i int, input string) {
			defer wg.Done()
			cfg := *base
			cfg.Input = input
			cfg.Output = ""
			cfg.Script = ""
			cfg.SavePath = ""
			report, err := Run(ctx, &cfg, opts)
			results[i] = Result{Input: input, Report: report, Error: err}
		}(i, in)
	}

	wg.Wait()
	return results
}
