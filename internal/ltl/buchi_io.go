package ltl

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// buchiDoc is the on-disk form of an automaton. External LTL
// translators can target it directly.
type buchiDoc struct {
	States      []string         `yaml:"states"`
	Init        []string         `yaml:"init"`
	Accept      []string         `yaml:"accept"`
	Transitions []transitionSpec `yaml:"transitions"`
}

type transitionSpec struct {
	From  string `yaml:"from"`
	To    string `yaml:"to"`
	Guard Guard  `yaml:"guard"`
}

// ParseBuchi decodes an automaton from its YAML document form.
func ParseBuchi(data []byte) (*Buchi, error) {
	var doc buchiDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "buchi: decode")
	}
	b := NewBuchi()
	for _, q := range doc.States {
		b.AddState(q, false, false)
	}
	for _, q := range doc.Init {
		b.AddState(q, true, false)
	}
	for _, q := range doc.Accept {
		b.AddState(q, false, true)
	}
	for _, t := range doc.Transitions {
		if err := b.AddTransition(t.From, t.To, t.Guard); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// LoadBuchi reads an automaton document from disk.
func LoadBuchi(path string) (*Buchi, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "buchi: read %s", path)
	}
	return ParseBuchi(data)
}
