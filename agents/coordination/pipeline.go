package coordination

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/Conceptual-Machines/lsys-music-go/audio"
	"github.com/Conceptual-Machines/lsys-music-go/grammar"
	"github.com/Conceptual-Machines/lsys-music-go/lsystem"
	"github.com/Conceptual-Machines/lsys-music-go/metrics"
	"github.com/Conceptual-Machines/lsys-music-go/midifile"
	"github.com/Conceptual-Machines/lsys-music-go/models"
	"github.com/Conceptual-Machines/lsys-music-go/music"
)

// ErrNoOutput is returned when a request names neither a MIDI nor a WAV path
var ErrNoOutput = errors.New("no output path given")

// RenderRequest describes one grammar-to-file run
type RenderRequest struct {
	GrammarPath string // Read when Source is empty
	Source      string // Grammar text, takes precedence over GrammarPath
	Depth       uint
	Scale       music.Scale
	ScaleName   string // Label for logs and metrics
	Start       uint8
	Strict      bool
	MaxSymbols  int // 0 means unlimited
	MIDIPath    string
	WAVPath     string
	BPM         float64
	Audio       audio.RenderConfig
}

// RenderResult is everything produced by a run
type RenderResult struct {
	Definition *grammar.Definition `json:"-"`
	Report     string              `json:"report"` // Engine summary: result, step, axiom, alphabet, rules
	Symbols    int                 `json:"symbols"`
	Notes      []models.Note       `json:"notes"`
	Events     []models.NoteEvent  `json:"events"`
}

// Pipeline runs parse, expand, interpret and write for a grammar
type Pipeline struct {
	metrics *metrics.SentryMetrics
}

// NewPipeline creates a new render pipeline
func NewPipeline() *Pipeline {
	return &Pipeline{metrics: metrics.NewSentryMetrics()}
}

// Render parses the grammar, expands it Depth times, interprets the result and
// writes the requested files. MIDI and WAV output are written in parallel.
func (p *Pipeline) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if req.MIDIPath == "" && req.WAVPath == "" {
		return nil, ErrNoOutput
	}
	if req.Scale.Len() == 0 {
		return nil, fmt.Errorf("invalid render request: %w", music.ErrEmptyScale)
	}

	startTime := time.Now()
	transaction := sentry.StartTransaction(ctx, "pipeline.render")
	defer transaction.Finish()
	transaction.SetTag("scale", req.ScaleName)
	transaction.SetTag("depth", fmt.Sprintf("%d", req.Depth))
	ctx = transaction.Context()

	result, err := p.run(ctx, req)
	if err != nil {
		transaction.SetTag("success", "false")
		metrics.CaptureError(ctx, "render", err)
		log.Printf("❌ Render failed after %v: %v", time.Since(startTime), err)
		return nil, err
	}

	transaction.SetTag("success", "true")
	log.Printf("✅ Render completed in %v (%d symbols, %d notes)", time.Since(startTime), result.Symbols, len(result.Notes))
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	def, err := p.parse(ctx, req)
	if err != nil {
		return nil, err
	}

	engine, err := p.expand(ctx, def, req)
	if err != nil {
		return nil, err
	}

	notes, err := p.interpret(ctx, engine.Sequence(), req)
	if err != nil {
		return nil, err
	}

	if err := p.write(ctx, notes, req); err != nil {
		return nil, err
	}

	return &RenderResult{
		Definition: def,
		Report:     engine.String(),
		Symbols:    engine.Len(),
		Notes:      notes,
		Events:     music.Schedule(notes),
	}, nil
}

func (p *Pipeline) parse(ctx context.Context, req *RenderRequest) (*grammar.Definition, error) {
	span := sentry.StartSpan(ctx, "grammar.parse")
	defer span.Finish()

	if req.Source != "" {
		return grammar.Parse("input", req.Source)
	}
	return grammar.ParseFile(req.GrammarPath)
}

func (p *Pipeline) expand(ctx context.Context, def *grammar.Definition, req *RenderRequest) (*lsystem.Engine, error) {
	var opts []lsystem.EngineOption
	if req.MaxSymbols > 0 {
		opts = append(opts, lsystem.WithMaxSymbols(req.MaxSymbols))
	}
	engine := def.NewEngine(opts...)

	start := time.Now()
	if err := engine.Forward(req.Depth); err != nil {
		return nil, fmt.Errorf("expansion stopped at generation %d: %w", engine.Generation(), err)
	}
	p.metrics.RecordExpansion(ctx, req.Depth, engine.Len(), time.Since(start))
	log.Printf("🌱 Expanded %d generations to %d symbols", req.Depth, engine.Len())
	return engine, nil
}

func (p *Pipeline) interpret(ctx context.Context, seq []lsystem.Symbol, req *RenderRequest) ([]models.Note, error) {
	mode := music.PitchWrap
	if req.Strict {
		mode = music.PitchStrict
	}
	interp := music.NewInterpreter(req.Scale, music.WithPitchMode(mode))

	notes, err := interp.Run(seq, req.Start)
	p.metrics.RecordInterpretation(ctx, req.ScaleName, len(notes), err == nil)
	if err != nil {
		return nil, fmt.Errorf("interpretation failed: %w", err)
	}
	log.Printf("🎵 Interpreted %d notes in %s scale from %s", len(notes), req.ScaleName, models.NoteName(int(req.Start)))
	return notes, nil
}

func (p *Pipeline) write(ctx context.Context, notes []models.Note, req *RenderRequest) error {
	var wg sync.WaitGroup
	var midiErr, wavErr error

	if req.MIDIPath != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			span := sentry.StartSpan(ctx, "midifile.save")
			defer span.Finish()

			opts := midifile.DefaultOptions()
			opts.BPM = req.BPM
			if err := midifile.Save(req.MIDIPath, notes, opts); err != nil {
				midiErr = err
				return
			}
			log.Printf("💾 Wrote MIDI file %s", req.MIDIPath)
		}()
	}

	if req.WAVPath != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			span := sentry.StartSpan(ctx, "audio.save_wav")
			defer span.Finish()

			cfg := req.Audio
			if req.BPM > 0 {
				cfg.BPM = req.BPM
			}
			if err := audio.SaveWAV(req.WAVPath, notes, cfg); err != nil {
				wavErr = err
				return
			}
			log.Printf("🔊 Wrote WAV file %s", req.WAVPath)
		}()
	}

	wg.Wait()
	return errors.Join(midiErr, wavErr)
}
