package scheduler

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/spacelife/internal/core/observability/log"
)

// Record is the saved form of an Event. Exactly one of RepeatsForever or
// RepeatsLeft is written.
type Record struct {
	Name           string  `yaml:"name" json:"name"`
	Cooldown       float64 `yaml:"cooldown" json:"cooldown"`
	TimeToWait     float64 `yaml:"timeToWait" json:"timeToWait"`
	RepeatsForever bool    `yaml:"repeatsForever,omitempty" json:"repeatsForever,omitempty"`
	RepeatsLeft    *int    `yaml:"repeatsLeft,omitempty" json:"repeatsLeft,omitempty"`
}

func recordOf(e *Event) Record {
	r := Record{Name: e.name, Cooldown: e.cooldown, TimeToWait: e.timeToWait}
	if e.repeatsForever {
		r.RepeatsForever = true
	} else {
		left := e.repeatsLeft
		r.RepeatsLeft = &left
	}
	return r
}

// Save returns records for every live, saveable, unfinished event.
func (s *Scheduler) Save() []Record {
	records := make([]Record, 0, len(s.events))
	for _, e := range s.events {
		if !e.saveable || e.Finished() {
			continue
		}
		records = append(records, recordOf(e))
	}
	return records
}

// Load rebuilds events from records using the registered prototypes and adds
// them to the live set. Records whose prototype is missing are skipped and
// reported; the rest still load.
func (s *Scheduler) Load(records []Record) error {
	var errs error
	for _, r := range records {
		repeats := 0
		if r.RepeatsLeft != nil {
			repeats = *r.RepeatsLeft
		}
		evt, err := s.fromPrototype(r.Name, r.Cooldown, r.TimeToWait, r.RepeatsForever, repeats)
		if err != nil {
			s.log.Warn("skipping saved event", log.String("event", r.Name), log.Error(err))
			errs = errors.Join(errs, err)
			continue
		}
		s.RegisterEvent(evt)
	}
	return errs
}

type document struct {
	Events []Record `yaml:"events"`
}

// WriteYAML writes the saveable events as a YAML document.
func (s *Scheduler) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(document{Events: s.Save()}); err != nil {
		return fmt.Errorf("encode scheduler: %w", err)
	}
	return enc.Close()
}

// ReadYAML loads events from a document produced by WriteYAML.
func (s *Scheduler) ReadYAML(r io.Reader) error {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("decode scheduler: %w", err)
	}
	return s.Load(doc.Events)
}
