package graph

import (
	"context"
	"fmt"
	"log/slog"
)

// Assembler builds a KnowledgeGraph from an extracted Codebase. Phases run
// strictly in order: nodes, inheritance edges, argument edges. Each phase is
// a function of (graph, codebase) so it can be exercised on its own.
type Assembler struct {
	graph    *KnowledgeGraph
	codebase *Codebase
	logger   *slog.Logger
}

// NewAssembler creates an Assembler with an empty graph. A nil logger uses
// slog.Default.
func NewAssembler(codebase *Codebase, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	if codebase == nil {
		codebase = NewCodebase("")
	}
	return &Assembler{
		graph:    NewKnowledgeGraph(),
		codebase: codebase,
		logger:   logger,
	}
}

// Graph returns the graph under construction.
func (a *Assembler) Graph() *KnowledgeGraph {
	return a.graph
}

// phaseFunc is one build phase.
type phaseFunc func(ctx context.Context, g *KnowledgeGraph, cb *Codebase, logger *slog.Logger) error

// AddNodes creates class and function nodes and belongs_to_class edges.
func (a *Assembler) AddNodes(ctx context.Context) bool {
	return a.runPhase(ctx, "nodes", addNodes)
}

// AddInheritanceEdges adds (base, class) inheritance edges.
func (a *Assembler) AddInheritanceEdges(ctx context.Context) bool {
	return a.runPhase(ctx, "inheritance edges", addInheritanceEdges)
}

// AddArgumentEdges adds argument nodes and (argument, function) edges.
func (a *Assembler) AddArgumentEdges(ctx context.Context) bool {
	return a.runPhase(ctx, "function argument edges", addArgumentEdges)
}

// GenerateUnifiedGraph runs all phases in order. A failed phase does not stop
// the later ones; the result is true only when every phase succeeded.
// Running it again on the same codebase reproduces the same graph.
func (a *Assembler) GenerateUnifiedGraph(ctx context.Context) bool {
	a.logger.Info("generating unified graph", slog.Int("files", len(a.codebase.Files)))
	ok := a.AddNodes(ctx)
	ok = a.AddInheritanceEdges(ctx) && ok
	ok = a.AddArgumentEdges(ctx) && ok

	nodes, edges := a.graph.Len()
	if ok {
		a.logger.Info("unified graph generated", slog.Int("nodes", nodes), slog.Int("edges", edges))
	} else {
		a.logger.Error("unified graph incomplete", slog.Int("nodes", nodes), slog.Int("edges", edges))
	}
	return ok
}

// runPhase executes fn, turning both errors and panics into a logged false.
// Whatever fn wrote before failing stays in the graph.
func (a *Assembler) runPhase(ctx context.Context, name string, fn phaseFunc) (ok bool) {
	a.logger.Debug("phase started", slog.String("phase", name))
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("phase panicked", slog.String("phase", name), slog.Any("panic", r))
			ok = false
		}
	}()

	if err := fn(ctx, a.graph, a.codebase, a.logger); err != nil {
		a.logger.Error("phase failed", slog.String("phase", name), slog.Any("error", err))
		return false
	}
	a.logger.Debug("phase completed", slog.String("phase", name))
	return true
}

// ClassKey returns the file-qualified node name of a class.
func ClassKey(file, class string) string {
	return file + "_" + class
}

func addNodes(ctx context.Context, g *KnowledgeGraph, cb *Codebase, logger *slog.Logger) error {
	for _, file := range cb.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry := cb.Entries[file]
		meta := entry.Metadata

		methodToClass := make(map[string]string)
		for _, cls := range meta.Classes {
			key := ClassKey(file, cls.Name)
			for _, m := range cls.Methods {
				methodToClass[m] = key
			}
		}

		for _, cls := range meta.Classes {
			err := g.UpsertNode(Node{
				Name:   ClassKey(file, cls.Name),
				Type:   NodeTypeClass,
				File:   file,
				Source: locate(entry.Tree, cls.Name, SymbolClass, logger),
			})
			if err != nil {
				return fmt.Errorf("class %s in %s: %w", cls.Name, file, err)
			}
		}

		for _, fn := range meta.Functions {
			class := methodToClass[fn.Name]
			err := g.UpsertNode(Node{
				Name:         fn.Name,
				Type:         NodeTypeFunction,
				ParentObject: class,
				File:         file,
				Source:       locate(entry.Tree, fn.Name, SymbolFunction, logger),
			})
			if err != nil {
				return fmt.Errorf("function %s in %s: %w", fn.Name, file, err)
			}
			if class == "" {
				continue
			}
			err = g.AddEdge(Edge{From: class, To: fn.Name, Type: EdgeTypeBelongsToClass, File: file})
			if err != nil {
				return fmt.Errorf("method %s of %s: %w", fn.Name, class, err)
			}
		}
	}
	return nil
}

func addInheritanceEdges(ctx context.Context, g *KnowledgeGraph, cb *Codebase, _ *slog.Logger) error {
	for _, file := range cb.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, cls := range cb.Entries[file].Metadata.Classes {
			for _, base := range cls.Bases {
				if err := g.AddEdge(Edge{From: base, To: cls.Name, Type: EdgeTypeInheritance}); err != nil {
					return fmt.Errorf("inheritance %s -> %s: %w", base, cls.Name, err)
				}
			}
		}
	}
	return nil
}

func addArgumentEdges(ctx context.Context, g *KnowledgeGraph, cb *Codebase, _ *slog.Logger) error {
	for _, file := range cb.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, fn := range cb.Entries[file].Metadata.Functions {
			for _, arg := range fn.Args {
				if arg == selfParam {
					continue
				}
				if _, err := g.EnsureNode(arg, NodeTypeArgument); err != nil {
					return fmt.Errorf("argument %s of %s: %w", arg, fn.Name, err)
				}
				if err := g.AddEdge(Edge{From: arg, To: fn.Name, Type: EdgeTypeFunctionArg}); err != nil {
					return fmt.Errorf("argument %s of %s: %w", arg, fn.Name, err)
				}
			}
		}
	}
	return nil
}
