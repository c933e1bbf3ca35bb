package debug

import (
	"os"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/milk9111/gamestate/specs"
)

// Config controls which diagnostics are printed. It is loaded from
// debug.yaml and may be swapped at runtime.
type Config struct {
	Enabled        bool     `yaml:"enabled"`
	Level          string   `yaml:"level"`
	ExcludeSenders []string `yaml:"exclude_senders"`
	ExcludeGroups  []Group  `yaml:"exclude_groups"`
	OnlyIncluded   bool     `yaml:"only_included"`
	IncludeSenders []string `yaml:"include_senders"`
	IncludeGroups  []Group  `yaml:"include_groups"`
	ReportDir      string   `yaml:"report_dir"`
}

// LoadConfig reads a filter config through specs.LoadSpec.
func LoadConfig(name string) (Config, error) {
	return specs.LoadSpec[Config](name)
}

func (c Config) shouldPrint(group Group, sender string) bool {
	if slices.Contains(c.ExcludeGroups, group) {
		return false
	}
	if slices.Contains(c.ExcludeSenders, sender) {
		return false
	}
	if c.OnlyIncluded && !(slices.Contains(c.IncludeSenders, sender) || slices.Contains(c.IncludeGroups, group)) {
		return false
	}
	return true
}

// Manager is the zap-backed Sink. Output and Warn honour Enabled and the
// include/exclude filters; Error is always written. Every entry that is not
// a warning is also kept for the bug report.
type Manager struct {
	mu     sync.RWMutex
	cfg    Config
	level  zap.AtomicLevel
	logger *zap.Logger
	report *report
	frame  func() int64
}

type Option func(*managerOptions)

type managerOptions struct {
	cores []zapcore.Core
	out   zapcore.WriteSyncer
	frame func() int64
}

// WithCore tees an extra core, e.g. a zaptest observer.
func WithCore(core zapcore.Core) Option {
	return func(o *managerOptions) { o.cores = append(o.cores, core) }
}

// WithOutput replaces stdout as the console destination.
func WithOutput(ws zapcore.WriteSyncer) Option {
	return func(o *managerOptions) { o.out = ws }
}

// WithFrameSource stamps each entry with the host's frame counter.
func WithFrameSource(frame func() int64) Option {
	return func(o *managerOptions) { o.frame = frame }
}

func NewManager(cfg Config, opts ...Option) *Manager {
	o := managerOptions{out: zapcore.AddSync(os.Stdout)}
	for _, opt := range opts {
		opt(&o)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "component",
		MessageKey:       "msg",
		StacktraceKey:    "stacktrace",
		FunctionKey:      zapcore.OmitKey,
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " | ",
	}

	level := zap.NewAtomicLevelAt(parseLevel(cfg.Level))
	rep := newReport()

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), o.out, level),
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(rep), zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return l != zapcore.WarnLevel
		})),
	}
	cores = append(cores, o.cores...)

	frame := o.frame
	if frame == nil {
		frame = func() int64 { return 0 }
	}

	return &Manager{
		cfg:    cfg,
		level:  level,
		logger: zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zapcore.ErrorLevel)).Named("debug"),
		report: rep,
		frame:  frame,
	}
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "info":
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// Config returns a copy of the active filter config.
func (m *Manager) Config() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// SetConfig swaps the filter config; safe to call from a watcher goroutine.
func (m *Manager) SetConfig(cfg Config) {
	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()
	m.level.SetLevel(parseLevel(cfg.Level))
}

func (m *Manager) allowed(group Group, sender any) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.Enabled && m.cfg.shouldPrint(group, SenderName(sender))
}

func (m *Manager) fields(group Group, sender any) []zap.Field {
	return []zap.Field{
		zap.Int64("frame", m.frame()),
		zap.Stringer("group", group),
		zap.String("sender", SenderLabel(sender)),
	}
}

func (m *Manager) Output(group Group, sender any, msg string) {
	if m == nil || !m.allowed(group, sender) {
		return
	}
	m.logger.Debug(msg, m.fields(group, sender)...)
}

func (m *Manager) Warn(group Group, sender any, msg string) {
	if m == nil || !m.allowed(group, sender) {
		return
	}
	m.logger.Warn(msg, m.fields(group, sender)...)
}

func (m *Manager) Error(group Group, sender any, msg string) {
	if m == nil {
		return
	}
	m.logger.Error(msg, m.fields(group, sender)...)
}

// Sync flushes the underlying zap cores.
func (m *Manager) Sync() error {
	return m.logger.Sync()
}

// Reload re-reads the named filter config and applies it. On error the
// active config is kept.
func (m *Manager) Reload(name string) error {
	cfg, err := LoadConfig(name)
	if err != nil {
		return err
	}
	m.SetConfig(cfg)
	return nil
}
