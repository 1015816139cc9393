// Package process runs a script over many inputs.
//
// Every file gets its own parse, match and render pipeline. Pipelines share
// nothing but the compiled script, so they run in parallel up to a job
// limit and a failure in one file leaves the others untouched.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gnoswap-labs/tsed/internal"
	"github.com/gnoswap-labs/tsed/internal/script"
	"github.com/gnoswap-labs/tsed/internal/syntax"
	"github.com/gnoswap-labs/tsed/scanner"
)

// Options control a run.
type Options struct {
	// Language forces one grammar by name. Empty picks it by extension.
	Language string
	// Jobs bounds concurrent files. Zero or less means one per CPU.
	Jobs int
	// Write stores changed output back into each file.
	Write bool
	// Progress receives a progress bar for multi-file runs. Nil hides it.
	Progress io.Writer
	// Fs is the filesystem to read and write. Nil means the OS.
	Fs afero.Fs
}

// FileResult is the outcome for one input.
type FileResult struct {
	Path     string
	Language string
	Input    []byte
	Output   []byte
	Printed  []string
	Edits    int
	Err      error
}

// Changed reports whether the script altered the input.
func (r *FileResult) Changed() bool {
	return r.Err == nil && string(r.Input) != string(r.Output)
}

// Processor applies one compiled script to sources and files.
type Processor struct {
	script *script.Script
	reg    *syntax.Registry
	logger *zap.Logger
	opts   Options

	engines map[string]*internal.Engine
}

// New returns a processor. A nil logger discards output.
func New(s *script.Script, reg *syntax.Registry, logger *zap.Logger, opts Options) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.NumCPU()
	}
	return &Processor{
		script:  s,
		reg:     reg,
		logger:  logger,
		opts:    opts,
		engines: make(map[string]*internal.Engine),
	}
}

// engine returns the validated engine for lang. It must not be called
// concurrently.
func (p *Processor) engine(lang syntax.Language) (*internal.Engine, error) {
	if e, ok := p.engines[lang.Name()]; ok {
		return e, nil
	}
	e := internal.NewEngine(p.script, lang, p.logger)
	if err := e.Validate(); err != nil {
		return nil, err
	}
	p.engines[lang.Name()] = e
	return e, nil
}

// language resolves the grammar for path, honoring a forced language.
func (p *Processor) language(path string) (syntax.Language, error) {
	if p.opts.Language != "" {
		return p.reg.Lookup(p.opts.Language)
	}
	return p.reg.ForFile(path)
}

// Source runs the script over src. name only selects the grammar when no
// language is forced and is reported back in the result.
func (p *Processor) Source(ctx context.Context, name string, src []byte) (*FileResult, error) {
	lang, err := p.language(name)
	if err != nil {
		return nil, err
	}
	e, err := p.engine(lang)
	if err != nil {
		return nil, err
	}
	res := run(ctx, e, name, lang.Name(), src)
	return res, res.Err
}

// Files runs the script over every path, expanding directories to the
// files whose extension has a grammar. Results come back in path order.
// Per-file failures are recorded on their result; the returned error is
// reserved for failures that stop the whole run.
func (p *Processor) Files(ctx context.Context, paths []string) ([]*FileResult, error) {
	type job struct {
		path string
		lang syntax.Language
		e    *internal.Engine
	}

	var jobs []job
	for _, path := range paths {
		files, err := p.expand(path)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			lang, err := p.language(f)
			if err != nil {
				return nil, err
			}
			e, err := p.engine(lang)
			if err != nil {
				return nil, err
			}
			jobs = append(jobs, job{path: f, lang: lang, e: e})
		}
	}

	var bar *progressbar.ProgressBar
	if p.opts.Progress != nil && len(jobs) > 1 {
		bar = newBar(p.opts.Progress, len(jobs))
	}

	results := make([]*FileResult, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Jobs)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = p.file(ctx, j.e, j.path, j.lang.Name())
			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(p.opts.Progress)
	}
	return results, nil
}

// expand lists the files a path stands for.
func (p *Processor) expand(path string) ([]string, error) {
	info, err := p.opts.Fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	exts := p.reg.Extensions()
	if p.opts.Language != "" {
		if forced := p.reg.ExtensionsOf(p.opts.Language); len(forced) > 0 {
			exts = forced
		}
	}
	found, err := scanner.NewFs(p.opts.Fs, path, exts...).Scan()
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	files := make([]string, len(found))
	for i, f := range found {
		files[i] = f.Path
	}
	return files, nil
}

// file runs one file pipeline and stores the output when asked to.
func (p *Processor) file(ctx context.Context, e *internal.Engine, path, lang string) *FileResult {
	src, err := afero.ReadFile(p.opts.Fs, path)
	if err != nil {
		p.logger.Error("Error reading file", zap.String("path", path), zap.Error(err))
		return &FileResult{Path: path, Language: lang, Err: err}
	}

	res := run(ctx, e, path, lang, src)
	if res.Err != nil {
		p.logger.Error("Error processing file",
			zap.String("path", path),
			zap.String("class", internal.ErrorClass(res.Err)),
			zap.Error(res.Err),
		)
		return res
	}
	p.logger.Debug("File processed", zap.String("path", path), zap.Int("edits", res.Edits))

	if p.opts.Write && res.Changed() {
		if err := writeFile(p.opts.Fs, path, res.Output); err != nil {
			p.logger.Error("Error writing file", zap.String("path", path), zap.Error(err))
			res.Err = err
		}
	}
	return res
}

func run(ctx context.Context, e *internal.Engine, name, lang string, src []byte) *FileResult {
	res := &FileResult{Path: name, Language: lang, Input: src}
	out, err := e.Run(ctx, src)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", name, err)
		return res
	}
	res.Output = out.Output
	res.Printed = out.Printed
	res.Edits = out.Edits
	return res
}

// writeFile replaces path keeping its permissions.
func writeFile(fs afero.Fs, path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := fs.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	return afero.WriteFile(fs, path, data, mode)
}

func newBar(w io.Writer, n int) *progressbar.ProgressBar {
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("editing"),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

// Failed returns the results that carry an error.
func Failed(results []*FileResult) []*FileResult {
	var out []*FileResult
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Err joins the errors of failed results, or returns nil.
func Err(results []*FileResult) error {
	var errs []error
	for _, r := range Failed(results) {
		errs = append(errs, r.Err)
	}
	return errors.Join(errs...)
}
