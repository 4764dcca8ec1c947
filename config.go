package rowdb

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

type Options struct {
	// Logger receives catalog events at Info level and, with Verbose,
	// mutation traces at Debug level. Defaults to logrus.StandardLogger().
	Logger *logrus.Logger

	Verbose   bool
	IsTesting bool

	// bbolt settings; zero values keep the defaults.
	MmapSize int
	Timeout  time.Duration
	NoSync   bool
}

const optionsSection = "rowdb"

// LoadOptions reads options from the [rowdb] section of an INI file:
//
//	[rowdb]
//	verbose   = true
//	testing   = false
//	mmap_size = 1073741824
//	timeout   = 10s
//	no_sync   = false
//	log_level = debug
//
// When log_level is set, or verbose is on, a new logger with that level is
// created; otherwise Logger is left nil.
func LoadOptions(path string) (Options, error) {
	f, err := ini.Load(path)
	if err != nil {
		return Options{}, errors.Wrapf(err, "rowdb: loading %s", path)
	}
	opt, err := optionsFromINI(f)
	return opt, errors.Wrapf(err, "rowdb: %s", path)
}

// ParseOptions is LoadOptions for INI data held in memory.
func ParseOptions(data []byte) (Options, error) {
	f, err := ini.Load(data)
	if err != nil {
		return Options{}, errors.Wrap(err, "rowdb: parsing options")
	}
	return optionsFromINI(f)
}

func optionsFromINI(f *ini.File) (Options, error) {
	var opt Options
	sec := f.Section(optionsSection)

	var err error
	if opt.Verbose, err = boolKey(sec, "verbose"); err != nil {
		return Options{}, err
	}
	if opt.IsTesting, err = boolKey(sec, "testing"); err != nil {
		return Options{}, err
	}
	if opt.NoSync, err = boolKey(sec, "no_sync"); err != nil {
		return Options{}, err
	}
	if sec.HasKey("mmap_size") {
		if opt.MmapSize, err = sec.Key("mmap_size").Int(); err != nil {
			return Options{}, errors.Wrap(err, "mmap_size")
		}
	}
	if sec.HasKey("timeout") {
		if opt.Timeout, err = sec.Key("timeout").Duration(); err != nil {
			return Options{}, errors.Wrap(err, "timeout")
		}
	}

	level := logrus.InfoLevel
	if opt.Verbose {
		level = logrus.DebugLevel
	}
	if sec.HasKey("log_level") {
		if level, err = logrus.ParseLevel(sec.Key("log_level").String()); err != nil {
			return Options{}, errors.Wrap(err, "log_level")
		}
	}
	if opt.Verbose || sec.HasKey("log_level") {
		opt.Logger = logrus.New()
		opt.Logger.SetLevel(level)
	}
	return opt, nil
}

func boolKey(sec *ini.Section, name string) (bool, error) {
	if !sec.HasKey(name) {
		return false, nil
	}
	v, err := sec.Key(name).Bool()
	return v, errors.Wrap(err, name)
}
