package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/drawseq/internal/engine"
	"github.com/roach88/drawseq/internal/ir"
)

//go:embed schema.cue
var schemaSrc string

// Config is a decoded, schema-checked configuration.
type Config struct {
	FlushThreshold int     `json:"flush_threshold"`
	CodePage       string  `json:"code_page"`
	Surface        Surface `json:"surface"`
	Journal        string  `json:"journal,omitempty"`
	LogLevel       string  `json:"log_level"`
	Allocator      string  `json:"allocator"`
}

// Surface is the size of the canvas a run draws on.
type Surface struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Default returns the configuration an empty file produces.
func Default() Config {
	return Config{
		FlushThreshold: engine.DefaultFlushThreshold,
		CodePage:       ir.DefaultCodePage.String(),
		Surface:        Surface{Width: 640, Height: 480},
		LogLevel:       "info",
		Allocator:      "heap",
	}
}

// Load reads a CUE file and checks it against #Config.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading config: %v", err)}
	}
	return Parse(path, data)
}

// Parse checks CUE source against #Config. filename is used in error
// positions only.
func Parse(filename string, src []byte) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, cueError(ErrCodeSchemaLoad, "schema.cue", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	user := ctx.CompileBytes(src, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return Config{}, cueError(ErrCodeSyntax, filename, err)
	}

	v := def.Unify(user)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, cueError(ErrCodeSchema, filename, err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return Config{}, cueError(ErrCodeDecode, filename, err)
	}
	return cfg, nil
}

// CodePageValue resolves the configured code page.
func (c Config) CodePageValue() (ir.CodePage, error) {
	return ir.ParseCodePage(c.CodePage)
}

// Level maps log_level to a slog level.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// NewAllocator returns a fresh allocator of the configured kind.
func (c Config) NewAllocator() engine.Allocator {
	if c.Allocator == "pool" {
		return engine.NewPoolAllocator()
	}
	return engine.HeapAllocator{}
}
