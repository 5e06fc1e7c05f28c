package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jacoelho/jsonslice/internal/config"
	"github.com/jacoelho/jsonslice/internal/exit"
	"github.com/jacoelho/jsonslice/internal/index"
	"github.com/jacoelho/jsonslice/internal/keypath"
	"github.com/jacoelho/jsonslice/internal/resolver"
	"github.com/jacoelho/jsonslice/internal/source"
	"github.com/jacoelho/jsonslice/internal/value"
)

// execute opens the document, indexes it and runs the configured command.
func execute(ctx context.Context, cfg *config.Config, logger *zap.Logger) *exit.Result {
	src, err := source.Open(cfg.File)
	if err != nil {
		return exit.FromError(err)
	}
	defer src.Close()

	r, err := resolver.New(ctx, src,
		resolver.WithMaxSize(cfg.MaxSize),
		resolver.WithReadRate(cfg.ReadRate),
		resolver.WithLogger(logger),
	)
	if err != nil {
		logger.Debug("indexing failed", zap.String("file", cfg.File), zap.Error(err))
		return exit.FromError(err)
	}

	logger.Debug("running command",
		zap.String("session", r.ID()),
		zap.String("command", cfg.Command),
		zap.String("path", cfg.Path),
	)

	out, err := dispatch(ctx, r, cfg)
	if err != nil {
		return exit.FromError(err)
	}
	return out
}

func dispatch(ctx context.Context, r *resolver.Resolver, cfg *config.Config) (*exit.Result, error) {
	switch cfg.Command {
	case "validate":
		if err := r.Validate(ctx); err != nil {
			return nil, err
		}
		return exit.Success("valid\n"), nil

	case "exists":
		if !r.Exists(cfg.Path) {
			res := exit.Success("false\n")
			res.ExitCode = exit.CodeError
			return res, nil
		}
		return exit.Success("true\n"), nil

	case "type":
		kind, err := r.TypeOf(cfg.Path)
		if err != nil {
			return nil, err
		}
		return exit.Success(kind.String() + "\n"), nil

	case "len":
		n, err := r.Length(cfg.Path)
		if err != nil {
			return nil, err
		}
		return exit.Success(strconv.Itoa(n) + "\n"), nil

	case "get":
		v, err := r.FetchShallow(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return exit.Success(v.String() + "\n"), nil

	case "exact":
		v, err := r.FetchExact(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return exit.Success(v.String() + "\n"), nil

	case "raw":
		raw, err := r.Raw(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return exit.Success(string(raw) + "\n"), nil

	case "select":
		results, err := r.Select(ctx, cfg.Path, cfg.Expr)
		if err != nil {
			return nil, err
		}
		return exit.Success(renderLines(results)), nil

	case "index":
		return exit.Success(renderIndex(r.Index())), nil
	}

	return exit.Usagef("Error: %v: %s\n", config.ErrUnknownCommand, cfg.Command), nil
}

func renderLines(values []value.Value) string {
	var b strings.Builder
	for _, v := range values {
		b.Write(v.AppendJSON(nil))
		b.WriteByte('\n')
	}
	return b.String()
}

// renderIndex prints one tab-separated line per node: path, kind, start, end
// and, for arrays, the element count. The first line carries the digest.
func renderIndex(root *index.Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# digest %016x nodes %d\n", root.Digest(), root.Len())

	root.Walk(func(path keypath.Path, n *index.Node) bool {
		name := path.String()
		if name == "" {
			name = "$"
		}
		fmt.Fprintf(&b, "%s\t%s\t%d\t%d", name, n.Kind, n.Start, n.End)
		if n.Kind == value.KindArray {
			fmt.Fprintf(&b, "\t%d", n.Count)
		}
		b.WriteByte('\n')
		return true
	})
	return b.String()
}
