// Package plan loads YAML edit plans and turns them into queued
// transactions.
package plan

import (
	"errors"
	"fmt"
	"os"

	"github.com/adalundhe/codemod/core/files"
	"github.com/adalundhe/codemod/core/transaction"
	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyPlan   = errors.New("plan has no edits")
	ErrInvalidEdit = errors.New("invalid edit")
)

type Plan struct {
	Edits []Edit `yaml:"edits"`
}

type Edit struct {
	File    string `yaml:"file"`
	Kind    string `yaml:"kind"`
	Start   int    `yaml:"start"`
	End     int    `yaml:"end"`
	Content string `yaml:"content"`
	NewPath string `yaml:"new_path"`
}

func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", path, err)
	}
	return p, nil
}

func Parse(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Plan) Validate() error {
	if len(p.Edits) == 0 {
		return ErrEmptyPlan
	}
	for i, e := range p.Edits {
		if err := e.validate(); err != nil {
			return fmt.Errorf("edit %d: %w", i, err)
		}
	}
	return nil
}

func (e Edit) validate() error {
	if e.File == "" {
		return fmt.Errorf("%w: file is required", ErrInvalidEdit)
	}

	kind, ok := transaction.ParseKind(e.Kind)
	if !ok {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEdit, e.Kind)
	}

	switch kind {
	case transaction.KindInsert:
		if e.Start < 0 {
			return fmt.Errorf("%w: negative offset %d", ErrInvalidEdit, e.Start)
		}
	case transaction.KindEdit, transaction.KindRemove:
		if e.Start < 0 || e.End < e.Start {
			return fmt.Errorf("%w: bad range [%d,%d)", ErrInvalidEdit, e.Start, e.End)
		}
	case transaction.KindFileRename:
		if e.NewPath == "" {
			return fmt.Errorf("%w: new_path is required for %s", ErrInvalidEdit, e.Kind)
		}
	}
	return nil
}

// Transaction builds the transaction described by e.
func (e Edit) Transaction(store files.Store) (transaction.Transaction, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}

	kind, _ := transaction.ParseKind(e.Kind)
	switch kind {
	case transaction.KindInsert:
		return transaction.NewInsert(store, e.File, e.Start, []byte(e.Content)), nil
	case transaction.KindEdit:
		return transaction.NewEdit(store, e.File, e.Start, e.End, []byte(e.Content)), nil
	case transaction.KindRemove:
		return transaction.NewRemove(store, e.File, e.Start, e.End), nil
	case transaction.KindFileAdd:
		return transaction.NewFileAdd(store, e.File, []byte(e.Content)), nil
	case transaction.KindFileRemove:
		return transaction.NewFileRemove(store, e.File), nil
	default:
		return transaction.NewFileRename(store, e.File, e.NewPath), nil
	}
}

// Queue adds every edit to m in plan order and returns how many were
// accepted. It stops at the first error, which includes limit errors.
func (p *Plan) Queue(m *transaction.Manager, store files.Store) (int, error) {
	accepted := 0
	for i, e := range p.Edits {
		tx, err := e.Transaction(store)
		if err != nil {
			return accepted, fmt.Errorf("edit %d: %w", i, err)
		}

		added, err := m.AddTransaction(tx)
		if added {
			accepted++
		}
		if err != nil {
			return accepted, fmt.Errorf("edit %d: %w", i, err)
		}
	}
	return accepted, nil
}
