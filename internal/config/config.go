package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/qepting91/burneddit/internal/domain"
	"github.com/qepting91/burneddit/internal/schema"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath        = "config.yaml"
	DefaultExamplePath = "config.yaml.example"
)

var (
	ErrOpen        = errors.New("unable to open file")
	ErrParse       = errors.New("unable to parse file")
	ErrMissingKeys = errors.New("missing config keys")
)

// MissingKeysError lists every key-path the user config lacks.
type MissingKeysError struct {
	Keys []string
}

func (e *MissingKeysError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingKeys, strings.Join(e.Keys, ", "))
}

func (e *MissingKeysError) Unwrap() error { return ErrMissingKeys }

// Config is the validated user configuration.
type Config struct {
	Users       []domain.Credentials `yaml:"users"`
	Submissions domain.Policy        `yaml:"submissions"`
	Comments    domain.Policy        `yaml:"comments"`
}

// Document is a loaded YAML file in both raw and tree form.
type Document struct {
	Path  string
	Data  []byte
	Value schema.Value
}

// ReadDocument opens and parses one YAML file. Failures wrap ErrOpen or ErrParse.
func ReadDocument(path string, log *slog.Logger) (*Document, error) {
	log.Info("loading file", "path", path)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrOpen, path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(stripBOM(f))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrOpen, path, err)
	}

	log.Info("parsing file", "path", path)
	v, err := schema.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrParse, path, err)
	}
	return &Document{Path: path, Data: data, Value: v}, nil
}

// Load reads the user config and the reference example, checks that every
// reference key-path exists in the user config, and decodes the result.
// Nothing is decoded until both files parse and the key check passes.
func Load(path, examplePath string, log *slog.Logger) (*Config, error) {
	doc, err := ReadDocument(path, log)
	if err != nil {
		return nil, err
	}
	example, err := ReadDocument(examplePath, log)
	if err != nil {
		return nil, err
	}

	missing := schema.FindMissingKeys(example.Value, doc.Value)
	userMissing, err := missingUserKeys(example.Data, doc.Data)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrParse, path, err)
	}
	missing = append(missing, userMissing...)
	if len(missing) > 0 {
		return nil, &MissingKeysError{Keys: missing}
	}

	var cfg Config
	if err := yaml.Unmarshal(doc.Data, &cfg); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrParse, path, err)
	}
	return &cfg, nil
}

// missingUserKeys checks each users entry against the first users entry of the
// example. The generic key-path walk treats the users list as a single leaf.
func missingUserKeys(exampleData, data []byte) ([]string, error) {
	var ref, cand struct {
		Users []yaml.Node `yaml:"users"`
	}
	if err := yaml.Unmarshal(exampleData, &ref); err != nil || len(ref.Users) == 0 {
		return nil, nil
	}
	if err := yaml.Unmarshal(data, &cand); err != nil {
		return nil, err
	}

	template := schema.FromNode(&ref.Users[0])
	var missing []string
	for i := range cand.Users {
		prefix := "/users/" + strconv.Itoa(i)
		for _, p := range schema.FindMissingKeys(template, schema.FromNode(&cand.Users[i])) {
			missing = append(missing, prefix+p)
		}
	}
	return missing, nil
}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	head, err := br.Peek(3)
	if err == nil && bytes.Equal(head, []byte{0xEF, 0xBB, 0xBF}) {
		br.Discard(3)
	}
	return br
}
